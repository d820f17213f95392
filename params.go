// params.go - construction parameters

package spqsigs

import (
	"fmt"
	"sort"

	"github.com/pibara/spq-sigs/internal/hash"
	"github.com/pibara/spq-sigs/internal/wots"
)

// HashFunc selects the hash family of an instantiation.
type HashFunc = hash.Family

const (
	// BLAKE2b keyed with the level salt. This is the default.
	BLAKE2b = hash.BLAKE2b
	// SHAKE256 with the level salt absorbed first.
	SHAKE256 = hash.SHAKE256
	// BLAKE-256/BLAKE-512 with the level salt absorbed first.
	BLAKE = hash.BLAKE
)

const (
	MinHashLength = hash.MinSize
	MaxHashLength = hash.MaxSize
	MinChunkWidth = 4
	MaxChunkWidth = 16
	MinTreeHeight = 3
	MaxTreeHeight = 16

	// MaxChunkCount bounds the number of chunks in one signature.
	MaxChunkCount = 39

	// MasterKeySize is the length of a master key in bytes.
	MasterKeySize = hash.MasterKeySize
)

// Params are the fixed parameters of an instantiation. Signatures carry no
// version tag; signer and verifier must agree on Params and tree heights
// out of band.
type Params struct {
	Hash       HashFunc // hash family
	HashLength uint8    // digest length n in bytes
	ChunkWidth uint8    // Winternitz chunk width w in bits
}

// DefaultParams use 24 byte BLAKE2b digests signed in 12 bit chunks.
var DefaultParams = Params{Hash: BLAKE2b, HashLength: 24, ChunkWidth: 12}

// Validate checks p against the supported ranges.
func (p Params) Validate() error {
	if !p.Hash.Valid() {
		return configErrorf("unsupported hash family %d", uint8(p.Hash))
	}
	if p.HashLength < MinHashLength || p.HashLength > MaxHashLength {
		return configErrorf("hash length %d not in [%d,%d]", p.HashLength, MinHashLength, MaxHashLength)
	}
	if p.ChunkWidth < MinChunkWidth || p.ChunkWidth > MaxChunkWidth {
		return configErrorf("chunk width %d not in [%d,%d]", p.ChunkWidth, MinChunkWidth, MaxChunkWidth)
	}
	if MaxChunkCount*int(p.ChunkWidth) < 8*int(p.HashLength) {
		return configErrorf("chunk width %d too small for %d byte digests", p.ChunkWidth, p.HashLength)
	}
	return nil
}

// ChunkCount returns the number of chunks per signed digest.
func (p Params) ChunkCount() int {
	return (8*int(p.HashLength) + int(p.ChunkWidth) - 1) / int(p.ChunkWidth)
}

// PaddingBits returns the zero bits prepended to a digest before chunking.
func (p Params) PaddingBits() int {
	return p.ChunkCount()*int(p.ChunkWidth) - 8*int(p.HashLength)
}

// SignatureSize returns the length of a single-level signature made by a
// tree of the given height.
func (p Params) SignatureSize(height uint8) int {
	n := int(p.HashLength)
	return 2*n + 2 + int(height)*n + 2*p.ChunkCount()*n
}

func (p Params) String() string {
	return fmt.Sprintf("SPQ-%s_%d_%d", p.Hash, p.HashLength, p.ChunkWidth)
}

func (p Params) encoding() wots.Encoding {
	return wots.NewEncoding(int(p.HashLength), int(p.ChunkWidth))
}

func validateHeight(h uint8) error {
	if h < MinTreeHeight || h > MaxTreeHeight {
		return configErrorf("tree height %d not in [%d,%d]", h, MinTreeHeight, MaxTreeHeight)
	}
	return nil
}

func validateHeights(heights []uint8) error {
	if len(heights) == 0 {
		return configErrorf("no tree heights")
	}
	for _, h := range heights {
		if err := validateHeight(h); err != nil {
			return err
		}
	}
	return nil
}

// Registry of named parameter sets.
var registry = []Params{
	{BLAKE2b, 16, 8},
	{BLAKE2b, 24, 12},
	{BLAKE2b, 32, 8},
	{BLAKE2b, 32, 16},
	{BLAKE2b, 64, 16},
	{SHAKE256, 24, 12},
	{SHAKE256, 32, 8},
	{SHAKE256, 32, 16},
	{BLAKE, 32, 8},
	{BLAKE, 64, 16},
}

// ParamsFromName returns the registered parameter set with the given name,
// as produced by Params.String.
func ParamsFromName(name string) (Params, error) {
	for _, p := range registry {
		if p.String() == name {
			return p, nil
		}
	}
	return Params{}, configErrorf("unknown parameter set %q", name)
}

// ListNames returns the names of all registered parameter sets.
func ListNames() []string {
	names := make([]string, 0, len(registry))
	for _, p := range registry {
		names = append(names, p.String())
	}
	sort.Strings(names)
	return names
}
