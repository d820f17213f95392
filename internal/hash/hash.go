// hash.go - salted hash primitive used by the chains and trees

// Package hash implements the salted hash functions used by the WOTS chains,
// the Merkle trees and the secret derivation of a hyper-tree signing key.
package hash

import (
	"errors"
	"fmt"
	gohash "hash"

	"github.com/dchest/blake256"
	"github.com/dchest/blake512"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

const (
	// MinSize is the shortest supported digest length in bytes.
	MinSize = 16

	// MaxSize is the longest supported digest length in bytes.
	MaxSize = 64
)

// ErrInvalidLength is returned when a salt, key or size is out of range.
var ErrInvalidLength = errors.New("hash: invalid length")

// Family selects the underlying hash function.
type Family uint8

const (
	// BLAKE2b keys BLAKE2b with the salt.
	BLAKE2b Family = iota
	// SHAKE256 absorbs the salt ahead of the input.
	SHAKE256
	// BLAKE uses BLAKE-256 for digests up to 32 bytes and BLAKE-512 above,
	// with the salt absorbed ahead of the input.
	BLAKE
)

func (f Family) String() string {
	switch f {
	case BLAKE2b:
		return "BLAKE2b"
	case SHAKE256:
		return "SHAKE256"
	case BLAKE:
		return "BLAKE"
	}
	return fmt.Sprintf("Family(%d)", uint8(f))
}

// Valid reports whether f names a supported hash family.
func (f Family) Valid() bool {
	return f <= BLAKE
}

// keyed is a resettable hash instance bound to one key and output size.
// It is not safe for concurrent use; callers create one per goroutine.
type keyed struct {
	fam  Family
	key  []byte
	size int
	h    gohash.Hash
	x    sha3.ShakeHash
	buf  []byte
}

func newKeyed(fam Family, key []byte, size int) *keyed {
	k := &keyed{fam: fam, key: key, size: size}
	switch fam {
	case BLAKE2b:
		h, err := blake2b.New(size, key)
		if err != nil {
			// Sizes are checked by every exported constructor.
			panic("hash: " + err.Error())
		}
		k.h = h
	case SHAKE256:
		k.x = sha3.NewShake256()
	case BLAKE:
		if size <= blake256.Size {
			k.h = blake256.New()
		} else {
			k.h = blake512.New()
		}
	default:
		panic("hash: unsupported family " + fam.String())
	}
	return k
}

// sum writes the keyed digest of parts into out[:size]. out may alias any
// of the parts.
func (k *keyed) sum(out []byte, parts ...[]byte) {
	if k.x != nil {
		k.x.Reset()
		k.x.Write(k.key)
		for _, p := range parts {
			k.x.Write(p)
		}
		k.x.Read(out[:k.size])
		return
	}
	k.h.Reset()
	if k.fam != BLAKE2b {
		k.h.Write(k.key)
	}
	for _, p := range parts {
		k.h.Write(p)
	}
	k.buf = k.h.Sum(k.buf[:0])
	copy(out[:k.size], k.buf)
}

// Primitive is the salted hash of one signing-key level. It is immutable
// and safe for concurrent use.
type Primitive struct {
	fam  Family
	size int
	salt []byte
}

// New returns a Primitive producing size byte digests salted with salt.
// The salt must be exactly size bytes.
func New(fam Family, size int, salt []byte) (*Primitive, error) {
	if !fam.Valid() {
		return nil, fmt.Errorf("hash: unsupported family %d", uint8(fam))
	}
	if size < MinSize || size > MaxSize {
		return nil, fmt.Errorf("%w: digest size %d not in [%d,%d]", ErrInvalidLength, size, MinSize, MaxSize)
	}
	if len(salt) != size {
		return nil, fmt.Errorf("%w: salt is %d bytes, want %d", ErrInvalidLength, len(salt), size)
	}
	return &Primitive{
		fam:  fam,
		size: size,
		salt: append([]byte(nil), salt...),
	}, nil
}

// Family returns the hash family.
func (p *Primitive) Family() Family { return p.fam }

// Size returns the digest length in bytes.
func (p *Primitive) Size() int { return p.size }

// Salt returns a copy of the salt.
func (p *Primitive) Salt() []byte {
	return append([]byte(nil), p.salt...)
}

// Hash returns the salted digest of in.
func (p *Primitive) Hash(in []byte) []byte {
	out := make([]byte, p.size)
	newKeyed(p.fam, p.salt, p.size).sum(out, in)
	return out
}

// Chain applies the salted hash n times to the first Size() bytes of in.
// Chain(in, 0) is a copy of in.
func (p *Primitive) Chain(in []byte, n int) []byte {
	out := make([]byte, p.size)
	copy(out, in)
	if n <= 0 {
		return out
	}
	k := newKeyed(p.fam, p.salt, p.size)
	for i := 0; i < n; i++ {
		k.sum(out, out)
	}
	return out
}

// Combine returns the salted digest of the concatenation of two digests.
func (p *Primitive) Combine(left, right []byte) []byte {
	out := make([]byte, p.size)
	newKeyed(p.fam, p.salt, p.size).sum(out, left[:p.size], right[:p.size])
	return out
}

// Wipe zeroes b.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
