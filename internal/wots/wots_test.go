package wots

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pibara/spq-sigs/internal/hash"
)

func TestChunks(t *testing.T) {
	enc := NewEncoding(3, 5)
	require.Equal(t, 5, enc.Count())
	require.Equal(t, 1, enc.Padding())
	require.Equal(t, []uint32{15, 30, 0, 7, 31}, enc.Chunks([]byte{0xff, 0x00, 0xff}))

	enc = NewEncoding(24, 12)
	require.Equal(t, 16, enc.Count())
	require.Equal(t, 0, enc.Padding())
	require.Equal(t, 4096, enc.ChainLength())
	digest := make([]byte, 24)
	copy(digest, []byte{0x12, 0x34, 0x56})
	chunks := enc.Chunks(digest)
	require.Equal(t, uint32(0x123), chunks[0])
	require.Equal(t, uint32(0x456), chunks[1])
	for _, v := range chunks[2:] {
		require.Zero(t, v)
	}

	enc = NewEncoding(16, 4)
	require.Equal(t, 32, enc.Count())
	require.Equal(t, []uint32{0xa, 0xb}, enc.Chunks(append([]byte{0xab}, make([]byte, 15)...))[:2])

	require.Panics(t, func() { enc.Chunks(make([]byte, 15)) })
}

func TestChunksCoverEveryBit(t *testing.T) {
	for _, c := range []struct{ size, width int }{{16, 4}, {16, 6}, {24, 12}, {32, 7}, {32, 16}} {
		enc := NewEncoding(c.size, c.width)
		require.Equal(t, enc.Count()*enc.Width(), enc.Padding()+8*c.size)
		for bit := 0; bit < 8*c.size; bit++ {
			digest := make([]byte, c.size)
			digest[bit/8] = 0x80 >> uint(bit%8)
			pos := bit + enc.Padding()
			want := make([]uint32, enc.Count())
			want[pos/c.width] = 1 << uint(c.width-1-pos%c.width)
			require.Equal(t, want, enc.Chunks(digest), "size %d width %d bit %d", c.size, c.width, bit)
		}
	}
}

func newTestKey(t *testing.T, enc Encoding) (*hash.Primitive, *PrivateKey) {
	salt := make([]byte, 16)
	prim, err := hash.New(hash.BLAKE2b, 16, salt)
	require.NoError(t, err)
	mk, err := hash.MasterKeyFromBytes(make([]byte, hash.MasterKeySize))
	require.NoError(t, err)
	return prim, NewPrivateKey(prim, enc, func(chunk, side int) []byte {
		return mk.Derive(hash.BLAKE2b, 16, uint64(2*chunk+side))
	})
}

func TestSignVerify(t *testing.T) {
	enc := NewEncoding(16, 4)
	prim, key := newTestKey(t, enc)
	public := key.PublicKey()
	require.Len(t, public, enc.Count()*16)

	for i := uint64(0); i < 8; i++ {
		var msg [8]byte
		binary.BigEndian.PutUint64(msg[:], i)
		digest := prim.Hash(msg[:])

		raw := key.Sign(digest)
		require.Len(t, raw, enc.SignatureSize())
		sig := make([][]byte, 2*enc.Count())
		for j := range sig {
			sig[j] = raw[j*16 : (j+1)*16]
		}
		require.Equal(t, public, PublicKeyFromSignature(prim, enc, digest, sig))

		other := prim.Hash(digest)
		require.NotEqual(t, public, PublicKeyFromSignature(prim, enc, other, sig))
	}
	require.Equal(t, prim.Hash(public), key.Leaf())
}

func TestExtremeChunkValues(t *testing.T) {
	enc := NewEncoding(16, 4)
	prim, key := newTestKey(t, enc)
	for _, fill := range []byte{0x00, 0xff} {
		digest := make([]byte, 16)
		for i := range digest {
			digest[i] = fill
		}
		raw := key.Sign(digest)
		sig := make([][]byte, 2*enc.Count())
		for j := range sig {
			sig[j] = raw[j*16 : (j+1)*16]
		}
		require.Equal(t, key.PublicKey(), PublicKeyFromSignature(prim, enc, digest, sig))
	}
}
