// merkle.go - Merkle trees over one-time public keys

// Package merkle builds the binary hash tree of a signing-key level and
// produces and checks authentication paths.
package merkle

import (
	"fmt"
	"sync"
)

// LeafFunc returns the hash of leaf i.
type LeafFunc func(i uint32) []byte

// CombineFunc hashes two sibling nodes into their parent.
type CombineFunc func(left, right []byte) []byte

// Tree is a fully populated Merkle tree. Nodes are stored in heap order:
// node 1 is the root, the children of node i are 2i and 2i+1, and leaf i is
// node 2^height+i.
type Tree struct {
	height int
	nodes  [][]byte
}

type builder struct {
	height  int
	workers int
	leaf    LeafFunc
	combine CombineFunc
	nodes   [][]byte
}

// Build populates a tree of the given height. With workers > 1 the two
// subtrees of the nodes nearest the root are built concurrently, using at
// most workers goroutines. Each goroutine writes a disjoint set of nodes.
func Build(height int, leaf LeafFunc, combine CombineFunc, workers int) *Tree {
	if height < 1 || height > 31 {
		panic(fmt.Sprintf("merkle: height %d out of range", height))
	}
	b := &builder{
		height:  height,
		workers: workers,
		leaf:    leaf,
		combine: combine,
		nodes:   make([][]byte, 2<<uint(height)),
	}
	b.populate(1, 0)
	return &Tree{height: height, nodes: b.nodes}
}

func (b *builder) populate(node uint32, depth int) []byte {
	if depth == b.height {
		v := b.leaf(node - 1<<uint(b.height))
		b.nodes[node] = v
		return v
	}

	var left, right []byte
	if b.workers > 1 && 2<<uint(depth) <= b.workers {
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			left = b.populate(2*node, depth+1)
		}()
		right = b.populate(2*node+1, depth+1)
		wg.Wait()
	} else {
		left = b.populate(2*node, depth+1)
		right = b.populate(2*node+1, depth+1)
	}

	v := b.combine(left, right)
	b.nodes[node] = v
	return v
}

// Height returns the height of the tree.
func (t *Tree) Height() int { return t.height }

// Leaves returns the number of leaves, 2^height.
func (t *Tree) Leaves() uint32 { return 1 << uint(t.height) }

// Root returns the root node.
func (t *Tree) Root() []byte { return t.nodes[1] }

// Leaf returns the hash of leaf i.
func (t *Tree) Leaf(i uint32) []byte { return t.nodes[t.Leaves()+i] }

// AuthPath returns the siblings of the nodes on the path to leaf i,
// ordered from the level just below the root down to the leaf's own
// sibling. The most significant bit of i selects the first step.
func (t *Tree) AuthPath(i uint32) [][]byte {
	if i >= t.Leaves() {
		panic(fmt.Sprintf("merkle: leaf %d out of range", i))
	}
	path := make([][]byte, t.height)
	for d := 1; d <= t.height; d++ {
		node := uint32(1)<<uint(d) + i>>uint(t.height-d)
		path[d-1] = t.nodes[node^1]
	}
	return path
}

// RootFromPath recomputes the root from leaf, its index and the path
// returned by AuthPath, walking from the leaf up.
func RootFromPath(leaf []byte, i uint32, path [][]byte, combine CombineFunc) []byte {
	cur := leaf
	h := len(path)
	for k := 0; k < h; k++ {
		sibling := path[h-1-k]
		if (i>>uint(k))&1 == 0 {
			cur = combine(cur, sibling)
		} else {
			cur = combine(sibling, cur)
		}
	}
	return cur
}
