package spqsigs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllocatorRequiredCount(t *testing.T) {
	a, err := NewAllocator(testParams, []uint8{3})
	require.NoError(t, err)
	require.Equal(t, uint64(1+8*64), a.RequiredCount())

	a, err = NewAllocator(testParams, []uint8{3, 4})
	require.NoError(t, err)
	require.Equal(t, uint64(1+8*(64+1+16*64)), a.RequiredCount())
	require.Equal(t, 2, a.Depth())
	require.Equal(t, uint8(3), a.Height())

	_, err = NewAllocator(testParams, []uint8{16, 16, 16, 16})
	require.ErrorIs(t, err, ErrConfiguration)

	_, err = NewAllocator(testParams, []uint8{3, 2})
	require.ErrorIs(t, err, ErrConfiguration)

	_, err = NewAllocator(testParams, nil)
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestAllocatorSelect(t *testing.T) {
	a, err := NewAllocator(testParams, []uint8{3, 3})
	require.NoError(t, err)

	c0, err := a.Select(0)
	require.NoError(t, err)
	c1, err := a.Select(1)
	require.NoError(t, err)
	require.Equal(t, a.Own()+1+8*64, c0.Own())
	require.Equal(t, c0.Own()+c0.RequiredCount(), c1.Own())
	require.Equal(t, 1, c0.Depth())

	_, err = a.Select(8)
	require.ErrorIs(t, err, ErrOutOfRange)
	_, err = c0.Select(0)
	require.ErrorIs(t, err, ErrOutOfRange)

	cast := a.Cast()
	require.Equal(t, 1, cast.Depth())
	require.Equal(t, a.Own(), cast.Own())
	require.Equal(t, a.Secret(7, 31, 1), cast.Secret(7, 31, 1))
}

// Every index owned by a tree maps to exactly one secret or salt, and maps
// back to itself.
func TestAllocatorLocateIsBijective(t *testing.T) {
	a, err := NewAllocator(testParams, []uint8{3, 3, 3})
	require.NoError(t, err)

	total := a.RequiredCount()
	for index := uint64(0); index < total; index++ {
		loc, err := a.Locate(index)
		require.NoError(t, err, "index %d", index)

		owner := a
		for _, child := range loc.Path {
			owner, err = owner.Select(child)
			require.NoError(t, err)
		}
		if loc.Salt {
			require.Equal(t, index, owner.Own())
			continue
		}
		require.Less(t, loc.Chunk, testParams.ChunkCount())
		require.Equal(t, index, owner.Secret(loc.Leaf, loc.Chunk, loc.Side))
	}

	_, err = a.Locate(total)
	require.ErrorIs(t, err, ErrOutOfRange)

	child, err := a.Select(2)
	require.NoError(t, err)
	_, err = child.Locate(a.Own())
	require.ErrorIs(t, err, ErrOutOfRange)
}
