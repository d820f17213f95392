// wots.go - Winternitz one-time signatures over opposing hash chains

// Package wots implements the one-time signature of a single signing slot.
// Every chunk of the digest is signed by a pair of hash chains running in
// opposite directions, so no checksum chunks are needed.
package wots

import (
	"fmt"

	"github.com/pibara/spq-sigs/internal/hash"
)

// Encoding splits digests into fixed width chunks.
type Encoding struct {
	size  int // digest length in bytes
	width int // chunk width in bits
	count int // chunks per digest
	pad   int // zero bits prepended to the digest
}

// NewEncoding returns the encoding of size byte digests into width bit
// chunks.
func NewEncoding(size, width int) Encoding {
	count := (size*8 + width - 1) / width
	return Encoding{
		size:  size,
		width: width,
		count: count,
		pad:   count*width - size*8,
	}
}

// Count returns the number of chunks per digest.
func (e Encoding) Count() int { return e.count }

// Width returns the chunk width in bits.
func (e Encoding) Width() int { return e.width }

// Padding returns the number of zero bits prepended to each digest.
func (e Encoding) Padding() int { return e.pad }

// ChainLength returns the full length of a chain, 2^width.
func (e Encoding) ChainLength() int { return 1 << uint(e.width) }

// SignatureSize returns the length of one encoded one-time signature.
func (e Encoding) SignatureSize() int { return 2 * e.count * e.size }

// Chunks reads digest as a big-endian bit string, left padded with zero
// bits to a whole number of chunks, and returns the chunk values in order.
func (e Encoding) Chunks(digest []byte) []uint32 {
	if len(digest) != e.size {
		panic(fmt.Sprintf("wots: digest is %d bytes, want %d", len(digest), e.size))
	}
	out := make([]uint32, e.count)
	bit := -e.pad
	for i := range out {
		var v uint32
		for j := 0; j < e.width; j++ {
			v <<= 1
			if bit >= 0 {
				v |= uint32(digest[bit>>3]>>(7-uint(bit&7))) & 1
			}
			bit++
		}
		out[i] = v
	}
	return out
}

// SecretFunc returns the secret seeding one side (0 low, 1 high) of the
// chain pair for chunk.
type SecretFunc func(chunk, side int) []byte

// PrivateKey is the one-time key of a single signing slot.
type PrivateKey struct {
	prim   *hash.Primitive
	enc    Encoding
	secret SecretFunc
	public [][]byte
}

// NewPrivateKey returns the one-time key whose chain secrets are produced
// by secret. Secrets are derived on demand and never retained.
func NewPrivateKey(prim *hash.Primitive, enc Encoding, secret SecretFunc) *PrivateKey {
	return &PrivateKey{
		prim:   prim,
		enc:    enc,
		secret: secret,
		public: make([][]byte, enc.count),
	}
}

func (k *PrivateKey) chunkPublic(i int) []byte {
	if k.public[i] == nil {
		full := k.enc.ChainLength()
		low := k.secret(i, 0)
		high := k.secret(i, 1)
		k.public[i] = k.prim.Combine(k.prim.Chain(low, full), k.prim.Chain(high, full))
		hash.Wipe(low)
		hash.Wipe(high)
	}
	return k.public[i]
}

// PublicKey returns the concatenated chunk public values.
func (k *PrivateKey) PublicKey() []byte {
	out := make([]byte, 0, k.enc.count*k.enc.size)
	for i := 0; i < k.enc.count; i++ {
		out = append(out, k.chunkPublic(i)...)
	}
	return out
}

// Leaf returns the Merkle leaf of this key, the hash of its public key.
func (k *PrivateKey) Leaf() []byte {
	return k.prim.Hash(k.PublicKey())
}

// Sign returns the one-time signature of digest: for every chunk value v
// the low chain advanced v steps followed by the high chain advanced
// 2^width-v-1 steps.
func (k *PrivateKey) Sign(digest []byte) []byte {
	chunks := k.enc.Chunks(digest)
	full := k.enc.ChainLength()
	out := make([]byte, 0, k.enc.SignatureSize())
	for i, v := range chunks {
		low := k.secret(i, 0)
		high := k.secret(i, 1)
		out = append(out, k.prim.Chain(low, int(v))...)
		out = append(out, k.prim.Chain(high, full-int(v)-1)...)
		hash.Wipe(low)
		hash.Wipe(high)
	}
	return out
}

// PublicKeyFromSignature completes the chains of sig, a list of
// low/high pairs, for digest and returns the concatenated chunk public
// values the signer must have committed to.
func PublicKeyFromSignature(prim *hash.Primitive, enc Encoding, digest []byte, sig [][]byte) []byte {
	chunks := enc.Chunks(digest)
	if len(sig) != 2*len(chunks) {
		panic(fmt.Sprintf("wots: signature has %d chain values, want %d", len(sig), 2*len(chunks)))
	}
	full := enc.ChainLength()
	out := make([]byte, 0, enc.count*enc.size)
	for i, v := range chunks {
		low := prim.Chain(sig[2*i], full-int(v))
		high := prim.Chain(sig[2*i+1], int(v)+1)
		out = append(out, prim.Combine(low, high)...)
	}
	return out
}
