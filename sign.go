// sign.go - hyper-tree signing key

// Package spqsigs implements stateful hash-based signatures: Winternitz
// one-time signatures on opposing hash chains, collected under Merkle
// trees, stacked into a hyper-tree in which every level certifies the
// public key of the level below it. One master key and one root public key
// cover the product of the capacities of all levels.
package spqsigs

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/bits"

	"go.uber.org/zap"

	"github.com/pibara/spq-sigs/internal/hash"
)

// SigningKey is a hyper-tree of Levels. Level 0 signs messages; every other
// level signs the public key of the level below it; the last level is the
// root. When level 0 runs out of slots it is replaced by its next sibling
// and re-certified, recursing upwards as levels run out in turn.
//
// A SigningKey is not safe for concurrent use.
type SigningKey struct {
	params  Params
	scheme  *Scheme
	master  *hash.MasterKey
	levels  []*Level
	allocs  []Allocator // full allocator of every level
	ordinal []uint32    // slot of the parent that certifies each level
	certs   [][]byte    // certs[j] is level j+1's signature over level j
	opts    *options
}

// NewSigningKey creates a signing key with a fresh master key. Heights are
// listed from the root down and at least two are required.
func NewSigningKey(p Params, heights []uint8, opts ...Option) (*SigningKey, error) {
	mk, err := hash.GenerateMasterKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return newSigningKey(p, mk, heights, newOptions(opts))
}

// NewSigningKeyFromMaster recreates the signing key of an existing master
// key, as returned by MasterKey. The key starts over at its first slot on
// every level, so a master key that has signed before must not be restored
// this way.
func NewSigningKeyFromMaster(p Params, master []byte, heights []uint8, opts ...Option) (*SigningKey, error) {
	mk, err := hash.MasterKeyFromBytes(master)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return newSigningKey(p, mk, heights, newOptions(opts))
}

func newSigningKey(p Params, mk *hash.MasterKey, heights []uint8, o *options) (*SigningKey, error) {
	if len(heights) < 2 {
		return nil, configErrorf("a hyper-tree needs at least two levels, got %d", len(heights))
	}
	top, err := NewAllocator(p, heights)
	if err != nil {
		return nil, err
	}
	scheme := &Scheme{params: p, heights: append([]uint8(nil), heights...), opts: o}

	n := len(heights)
	k := &SigningKey{
		params:  p,
		scheme:  scheme,
		master:  mk,
		levels:  make([]*Level, n),
		allocs:  make([]Allocator, n),
		ordinal: make([]uint32, n),
		certs:   make([][]byte, n-1),
		opts:    o,
	}
	k.allocs[n-1] = top
	if k.levels[n-1], err = newLevel(p, mk, top, n-1, o); err != nil {
		return nil, err
	}
	for j := n - 2; j >= 0; j-- {
		if k.allocs[j], err = k.allocs[j+1].Select(0); err != nil {
			return nil, err
		}
		if k.levels[j], err = newLevel(p, mk, k.allocs[j], j, o); err != nil {
			return nil, err
		}
		if err = k.certify(j); err != nil {
			return nil, err
		}
	}

	o.log.Info("signing key created",
		zap.Stringer("params", p),
		zap.Uint8s("heights", heights),
		zap.Uint64("capacity", k.Remaining()),
		zap.String("pubkey", shortHex(k.levels[n-1].PublicKey())))
	return k, nil
}

// certify has level j+1 sign the public key of level j.
func (k *SigningKey) certify(j int) error {
	parent := k.levels[j+1]
	cert, err := parent.SignDigest(parent.Hash(k.levels[j].PublicKey()))
	if err != nil {
		return err
	}
	k.certs[j] = cert
	return nil
}

// refresh replaces level j by its next sibling under its parent and has
// the parent certify it, refreshing the parent first when it is exhausted.
func (k *SigningKey) refresh(j int) error {
	top := len(k.levels) - 1
	if j == top {
		k.opts.log.Warn("root level exhausted", zap.Uint32("capacity", k.levels[top].Capacity()))
		return fmt.Errorf("%w: the root level cannot be re-certified", ErrExhausted)
	}
	next := k.ordinal[j] + 1
	if k.levels[j+1].Exhausted() {
		if err := k.refresh(j + 1); err != nil {
			return err
		}
		next = 0
	}
	alloc, err := k.allocs[j+1].Select(next)
	if err != nil {
		return err
	}
	if err := k.levels[j].Refresh(alloc); err != nil {
		return err
	}
	k.allocs[j] = alloc
	k.ordinal[j] = next
	if err := k.certify(j); err != nil {
		return err
	}
	k.opts.metrics.refreshed(j)
	return nil
}

// Sign signs msg with the message level, replacing exhausted levels as
// needed. It fails with ErrExhausted once the root has no slots left.
func (k *SigningKey) Sign(msg []byte) (*ChainSignature, error) {
	if k.master == nil {
		return nil, errors.New("spqsigs: signing key is closed")
	}
	sig, err := k.levels[0].SignMessage(msg)
	if errors.Is(err, ErrExhausted) {
		if err = k.refresh(0); err != nil {
			return nil, err
		}
		sig, err = k.levels[0].SignMessage(msg)
	}
	if err != nil {
		return nil, err
	}

	cs := &ChainSignature{
		Message: sig,
		Links:   make([]Link, len(k.certs)),
		Root:    k.PublicKey(),
	}
	for j, cert := range k.certs {
		cs.Links[j] = Link{
			PublicKey:   k.levels[j].PublicKey(),
			Certificate: append([]byte(nil), cert...),
		}
	}
	return cs, nil
}

// PublicKey returns the root public key.
func (k *SigningKey) PublicKey() []byte {
	return k.levels[len(k.levels)-1].PublicKey()
}

// Params returns the key's parameters.
func (k *SigningKey) Params() Params { return k.params }

// Scheme returns the scheme verifiers of this key need.
func (k *SigningKey) Scheme() *Scheme { return k.scheme }

// Levels returns the number of levels.
func (k *SigningKey) Levels() int { return len(k.levels) }

// Remaining returns the number of messages that can still be signed. The
// result saturates at the maximum uint64.
func (k *SigningKey) Remaining() uint64 {
	total := uint64(k.levels[0].Remaining())
	below := uint64(1)
	for j := 1; j < len(k.levels); j++ {
		hi, lo := bits.Mul64(below, uint64(k.levels[j-1].Capacity()))
		if hi != 0 {
			return ^uint64(0)
		}
		below = lo
		hi, add := bits.Mul64(uint64(k.levels[j].Remaining()), below)
		var carry uint64
		total, carry = bits.Add64(total, add, 0)
		if hi != 0 || carry != 0 {
			return ^uint64(0)
		}
	}
	return total
}

// MasterKey returns a copy of the raw master key. Anyone holding it can sign
// as this key, and restoring it with NewSigningKeyFromMaster reuses one-time
// slots that were already spent. It returns nil after Close.
func (k *SigningKey) MasterKey() []byte {
	if k.master == nil {
		return nil
	}
	return k.master.Bytes()
}

// Close wipes the master key. The key cannot sign afterwards.
func (k *SigningKey) Close() {
	if k.master != nil {
		k.master.Wipe()
		k.master = nil
	}
}
