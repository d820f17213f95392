// level.go - single-level stateful signer

package spqsigs

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/pibara/spq-sigs/internal/hash"
	"github.com/pibara/spq-sigs/internal/merkle"
	"github.com/pibara/spq-sigs/internal/wots"
)

// Level is a Merkle tree of 2^height one-time keys. Each call to SignDigest
// consumes the next slot; once all slots are used the level is exhausted
// and stays so until Refresh.
//
// A Level is not safe for concurrent use. Signing the same slot twice
// breaks the scheme, so callers must serialize access.
type Level struct {
	params Params
	enc    wots.Encoding
	master *hash.MasterKey
	alloc  Allocator
	prim   *hash.Primitive
	tree   *merkle.Tree
	next   uint32
	index  int // position in the hyper-tree, 0 signs messages
	opts   *options
}

// GenerateLevel returns a standalone level of the given height seeded with a
// fresh master key read from rand.
func GenerateLevel(p Params, height uint8, rand io.Reader, opts ...Option) (*Level, error) {
	alloc, err := NewAllocator(p, []uint8{height})
	if err != nil {
		return nil, err
	}
	mk, err := hash.GenerateMasterKey(rand)
	if err != nil {
		return nil, err
	}
	return newLevel(p, mk, alloc, 0, newOptions(opts))
}

func newLevel(p Params, mk *hash.MasterKey, alloc Allocator, index int, o *options) (*Level, error) {
	l := &Level{
		params: p,
		enc:    p.encoding(),
		master: mk,
		index:  index,
		opts:   o,
	}
	if err := l.reset(alloc); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Level) reset(alloc Allocator) error {
	n := int(l.params.HashLength)
	salt := l.master.Derive(l.params.Hash, n, alloc.Own())
	prim, err := hash.New(l.params.Hash, n, salt)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	l.alloc = alloc.Cast()
	l.prim = prim
	l.tree = nil
	l.next = 0
	return nil
}

// Refresh discards the level's tree and salt and re-derives them from a new
// allocator position. The level starts again at slot 0.
func (l *Level) Refresh(alloc Allocator) error {
	if alloc.Depth() == 0 {
		return configErrorf("empty allocator")
	}
	if alloc.Height() != l.alloc.Height() {
		return configErrorf("refresh to height %d, level has height %d", alloc.Height(), l.alloc.Height())
	}
	if err := l.reset(alloc); err != nil {
		return err
	}
	l.opts.log.Debug("level refreshed",
		zap.Int("level", l.index),
		zap.Uint64("own", alloc.Own()))
	return nil
}

func (l *Level) privateKey(leaf uint32) *wots.PrivateKey {
	fam, n := l.params.Hash, int(l.params.HashLength)
	return wots.NewPrivateKey(l.prim, l.enc, func(chunk, side int) []byte {
		return l.master.Derive(fam, n, l.alloc.Secret(leaf, chunk, side))
	})
}

func (l *Level) populate() {
	if l.tree != nil {
		return
	}
	start := time.Now()
	l.tree = merkle.Build(int(l.Height()), func(i uint32) []byte {
		return l.privateKey(i).Leaf()
	}, l.prim.Combine, l.opts.workers)
	elapsed := time.Since(start)

	l.opts.metrics.treeBuilt(l.Height(), elapsed)
	l.opts.log.Debug("tree populated",
		zap.Int("level", l.index),
		zap.Uint8("height", l.Height()),
		zap.Duration("elapsed", elapsed),
		zap.String("pubkey", shortHex(l.tree.Root())))
}

// PublicKey returns the root of the level's tree, building it on first use.
func (l *Level) PublicKey() []byte {
	l.populate()
	return append([]byte(nil), l.tree.Root()...)
}

// Salt returns the level's salt.
func (l *Level) Salt() []byte { return l.prim.Salt() }

// Params returns the level's parameters.
func (l *Level) Params() Params { return l.params }

// Height returns the level's tree height.
func (l *Level) Height() uint8 { return l.alloc.Height() }

// Capacity returns the number of one-time slots, 2^height.
func (l *Level) Capacity() uint32 { return uint32(1) << l.Height() }

// NextIndex returns the slot the next signature will use.
func (l *Level) NextIndex() uint32 { return l.next }

// Remaining returns the number of unused slots.
func (l *Level) Remaining() uint32 { return l.Capacity() - l.next }

// Exhausted reports whether every slot has been used.
func (l *Level) Exhausted() bool { return l.next >= l.Capacity() }

// Hash returns the level-salted digest of msg.
func (l *Level) Hash(msg []byte) []byte { return l.prim.Hash(msg) }

// SignDigest signs a HashLength byte digest with the next slot:
//
//	pubkey || salt || uint16 slot || auth path || chunk signatures
func (l *Level) SignDigest(digest []byte) ([]byte, error) {
	if l.Exhausted() {
		return nil, fmt.Errorf("%w: level %d used all %d slots", ErrExhausted, l.index, l.Capacity())
	}
	if len(digest) != int(l.params.HashLength) {
		return nil, fmt.Errorf("spqsigs: digest is %d bytes, want %d", len(digest), l.params.HashLength)
	}
	l.populate()

	slot := l.next
	out := make([]byte, 0, l.params.SignatureSize(l.Height()))
	out = append(out, l.tree.Root()...)
	out = append(out, l.prim.Salt()...)
	out = binary.BigEndian.AppendUint16(out, uint16(slot))
	for _, node := range l.tree.AuthPath(slot) {
		out = append(out, node...)
	}
	out = append(out, l.privateKey(slot).Sign(digest)...)
	l.next++

	l.opts.metrics.signed(l.index)
	return out, nil
}

// SignMessage hashes msg with the level's salt and signs the digest.
func (l *Level) SignMessage(msg []byte) ([]byte, error) {
	return l.SignDigest(l.Hash(msg))
}

func shortHex(b []byte) string {
	if len(b) > 8 {
		b = b[:8]
	}
	return hex.EncodeToString(b)
}
