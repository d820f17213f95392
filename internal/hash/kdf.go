// kdf.go - master key and index based secret derivation

package hash

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	// MasterKeySize is the length of a master key in bytes.
	MasterKeySize = 32

	kdfContext = "Signatur"
)

// MasterKey is the single root secret of a signing key. Every one-time
// secret and every level salt is derived from it by index.
type MasterKey struct {
	key [MasterKeySize]byte
}

// GenerateMasterKey reads a fresh master key from rand.
func GenerateMasterKey(rand io.Reader) (*MasterKey, error) {
	mk := new(MasterKey)
	if _, err := io.ReadFull(rand, mk.key[:]); err != nil {
		return nil, fmt.Errorf("hash: reading master key: %w", err)
	}
	return mk, nil
}

// MasterKeyFromBytes restores a master key from its raw bytes.
func MasterKeyFromBytes(b []byte) (*MasterKey, error) {
	if len(b) != MasterKeySize {
		return nil, fmt.Errorf("%w: master key is %d bytes, want %d", ErrInvalidLength, len(b), MasterKeySize)
	}
	mk := new(MasterKey)
	copy(mk.key[:], b)
	return mk, nil
}

// Bytes returns a copy of the raw key.
func (mk *MasterKey) Bytes() []byte {
	return append([]byte(nil), mk.key[:]...)
}

// Derive returns the size byte secret at index.
func (mk *MasterKey) Derive(fam Family, size int, index uint64) []byte {
	var ctx [len(kdfContext) + 8]byte
	copy(ctx[:], kdfContext)
	binary.LittleEndian.PutUint64(ctx[len(kdfContext):], index)

	out := make([]byte, size)
	newKeyed(fam, mk.key[:], size).sum(out, ctx[:])
	return out
}

// Wipe zeroes the key. The MasterKey must not be used afterwards.
func (mk *MasterKey) Wipe() {
	Wipe(mk.key[:])
}
