// allocator.go - derivation index allocation across the hyper-tree

package spqsigs

import (
	"fmt"
	"math/bits"
)

// Allocator partitions the derivation index space of one master key over a
// level and everything below it. The layout of a level at index own is:
//
//	own                      the level's salt
//	own+1 ...                2K secrets for each of the 2^h signing slots
//	own+1+2^h*2K ...         one block per child level, RequiredCount each
//
// where K is the chunk count. No two (level, slot, chunk, side) tuples share
// an index, so nothing but the master key needs to be stored.
type Allocator struct {
	perSlot uint64  // secrets per signing slot, 2K
	heights []uint8 // this level first, then the levels below it
	own     uint64
}

// NewAllocator returns the allocator of the root of a hyper-tree with the
// given heights, listed from the root down.
func NewAllocator(p Params, heights []uint8) (Allocator, error) {
	if err := p.Validate(); err != nil {
		return Allocator{}, err
	}
	if err := validateHeights(heights); err != nil {
		return Allocator{}, err
	}
	a := Allocator{
		perSlot: 2 * uint64(p.ChunkCount()),
		heights: append([]uint8(nil), heights...),
	}
	if _, ok := requiredCount(a.perSlot, a.heights); !ok {
		return Allocator{}, configErrorf("heights %v exhaust the 64-bit derivation index space", heights)
	}
	return a, nil
}

// requiredCount returns the number of indices used by a level with the
// given heights, or false if that does not fit in 64 bits.
func requiredCount(perSlot uint64, heights []uint8) (uint64, bool) {
	per := perSlot
	if len(heights) > 1 {
		sub, ok := requiredCount(perSlot, heights[1:])
		if !ok {
			return 0, false
		}
		var carry uint64
		per, carry = bits.Add64(per, sub, 0)
		if carry != 0 {
			return 0, false
		}
	}
	hi, lo := bits.Mul64(uint64(1)<<heights[0], per)
	if hi != 0 {
		return 0, false
	}
	total, carry := bits.Add64(lo, 1, 0)
	if carry != 0 {
		return 0, false
	}
	return total, true
}

// RequiredCount returns the number of indices owned by this level and all
// levels below it.
func (a Allocator) RequiredCount() uint64 {
	n, _ := requiredCount(a.perSlot, a.heights)
	return n
}

// Own returns the level's own index, from which its salt is derived.
func (a Allocator) Own() uint64 { return a.own }

// Height returns the tree height of the level.
func (a Allocator) Height() uint8 { return a.heights[0] }

// Depth returns the number of levels covered, this one included.
func (a Allocator) Depth() int { return len(a.heights) }

func (a Allocator) slots() uint64 { return uint64(1) << a.heights[0] }

// Secret returns the index of the secret for one side (0 low, 1 high) of
// the chain pair of chunk in signing slot leaf.
func (a Allocator) Secret(leaf uint32, chunk, side int) uint64 {
	return a.own + 1 + uint64(leaf)*a.perSlot + 2*uint64(chunk) + uint64(side)
}

// Select returns the allocator of the child level certified by slot child.
func (a Allocator) Select(child uint32) (Allocator, error) {
	if len(a.heights) < 2 {
		return Allocator{}, fmt.Errorf("%w: level has no children", ErrOutOfRange)
	}
	if uint64(child) >= a.slots() {
		return Allocator{}, fmt.Errorf("%w: child %d of a height %d tree", ErrOutOfRange, child, a.heights[0])
	}
	rest := a.heights[1:]
	sub, _ := requiredCount(a.perSlot, rest)
	return Allocator{
		perSlot: a.perSlot,
		heights: rest,
		own:     a.own + 1 + a.slots()*a.perSlot + uint64(child)*sub,
	}, nil
}

// Cast returns the allocator of this level alone, as used by a standalone
// Level.
func (a Allocator) Cast() Allocator {
	return Allocator{
		perSlot: a.perSlot,
		heights: a.heights[:1],
		own:     a.own,
	}
}

// Location identifies the owner of a derivation index.
type Location struct {
	Path  []uint32 // child ordinals from this allocator down to the owner
	Salt  bool     // the index is the owner's salt
	Leaf  uint32   // signing slot, when not Salt
	Chunk int      // chunk within the slot
	Side  int      // 0 low chain, 1 high chain
}

// Locate maps an index back to the level, slot, chunk and side it was
// allocated to.
func (a Allocator) Locate(index uint64) (Location, error) {
	if index < a.own || index-a.own >= a.RequiredCount() {
		return Location{}, fmt.Errorf("%w: index %d not owned by this allocator", ErrOutOfRange, index)
	}
	rel := index - a.own
	if rel == 0 {
		return Location{Salt: true}, nil
	}
	rel--
	if base := a.slots() * a.perSlot; rel < base {
		r := rel % a.perSlot
		return Location{
			Leaf:  uint32(rel / a.perSlot),
			Chunk: int(r / 2),
			Side:  int(r % 2),
		}, nil
	}
	rel -= a.slots() * a.perSlot
	sub, _ := requiredCount(a.perSlot, a.heights[1:])
	child := uint32(rel / sub)
	next, err := a.Select(child)
	if err != nil {
		return Location{}, err
	}
	loc, err := next.Locate(index)
	if err != nil {
		return Location{}, err
	}
	loc.Path = append([]uint32{child}, loc.Path...)
	return loc, nil
}
