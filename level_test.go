package spqsigs

import (
	"bytes"
	"crypto/rand"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("no entropy") }

func TestLevelExhaustion(t *testing.T) {
	if testing.Short() {
		t.Skip("full width chains are slow")
	}
	l, err := GenerateLevel(DefaultParams, 4, rand.Reader, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	require.Equal(t, uint32(16), l.Capacity())

	msg := []byte("This is just a test.")
	for i := 0; i < 16; i++ {
		raw, err := l.SignMessage(msg)
		require.NoError(t, err)
		require.Len(t, raw, DefaultParams.SignatureSize(4))

		sig, err := DecodeSignature(DefaultParams, 4, raw)
		require.NoError(t, err)
		require.Equal(t, uint16(i), sig.Index)
		require.Equal(t, l.PublicKey(), sig.PublicKey)
		require.True(t, sig.Validate(msg))
		require.False(t, sig.Validate([]byte("another message")))
	}
	require.True(t, l.Exhausted())
	require.Zero(t, l.Remaining())

	_, err = l.SignMessage(msg)
	require.ErrorIs(t, err, ErrExhausted)
	require.Equal(t, uint32(16), l.NextIndex())
}

func TestLevelLeavesAreDistinct(t *testing.T) {
	l, err := GenerateLevel(testParams, 5, rand.Reader)
	require.NoError(t, err)
	l.populate()

	require.NotEqual(t, l.privateKey(0).PublicKey(), l.privateKey(1).PublicKey())

	seen := make(map[string]uint32)
	for i := uint32(0); i < l.Capacity(); i++ {
		leaf := l.tree.Leaf(i)
		prev, dup := seen[string(leaf)]
		require.False(t, dup, "leaves %d and %d are equal", prev, i)
		seen[string(leaf)] = i
	}
}

func TestLevelParallelism(t *testing.T) {
	raw := bytes.Repeat([]byte{0x5a}, MasterKeySize)
	var roots [][]byte
	for _, workers := range []int{1, 2, 8} {
		l, err := GenerateLevel(testParams, 4, bytes.NewReader(raw), WithParallelism(workers))
		require.NoError(t, err)
		roots = append(roots, l.PublicKey())
	}
	require.Equal(t, roots[0], roots[1])
	require.Equal(t, roots[0], roots[2])
}

func TestLevelRefresh(t *testing.T) {
	top, err := NewAllocator(testParams, []uint8{3, 4})
	require.NoError(t, err)
	child, err := top.Select(0)
	require.NoError(t, err)

	mk := testMasterKey(t)
	l, err := newLevel(testParams, mk, child, 0, newOptions(nil))
	require.NoError(t, err)
	first := l.PublicKey()
	salt := l.Salt()

	_, err = l.SignMessage([]byte("hello"))
	require.NoError(t, err)
	require.Equal(t, uint32(1), l.NextIndex())

	next, err := top.Select(1)
	require.NoError(t, err)
	require.NoError(t, l.Refresh(next))
	require.Zero(t, l.NextIndex())
	require.NotEqual(t, first, l.PublicKey())
	require.NotEqual(t, salt, l.Salt())

	require.ErrorIs(t, l.Refresh(top), ErrConfiguration, "height mismatch")
	require.ErrorIs(t, l.Refresh(Allocator{}), ErrConfiguration)
}

func TestGenerateLevelErrors(t *testing.T) {
	_, err := GenerateLevel(testParams, 2, rand.Reader)
	require.ErrorIs(t, err, ErrConfiguration)

	_, err = GenerateLevel(Params{Hash: BLAKE2b, HashLength: 8, ChunkWidth: 4}, 3, rand.Reader)
	require.ErrorIs(t, err, ErrConfiguration)

	_, err = GenerateLevel(testParams, 3, failingReader{})
	require.Error(t, err)
}

func TestSignDigestLength(t *testing.T) {
	l, err := GenerateLevel(testParams, 3, rand.Reader)
	require.NoError(t, err)
	_, err = l.SignDigest(make([]byte, 15))
	require.Error(t, err)
	require.Zero(t, l.NextIndex())
}
