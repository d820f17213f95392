// signature.go - single-level signature encoding and validation

package spqsigs

import (
	"crypto/subtle"
	"encoding/binary"
	"fmt"

	"github.com/pibara/spq-sigs/internal/hash"
	"github.com/pibara/spq-sigs/internal/merkle"
	"github.com/pibara/spq-sigs/internal/wots"
)

// Signature is a parsed single-level signature. It is immutable once
// decoded.
type Signature struct {
	params Params
	height uint8

	PublicKey []byte   // root of the signing tree
	Salt      []byte   // salt of the signing level
	Index     uint16   // one-time slot used
	AuthPath  [][]byte // siblings from below the root down to the leaf
	Chains    [][]byte // low/high chain value pairs, one pair per chunk
}

// DecodeSignature parses a signature made by a level of the given height.
// The length must match exactly.
func DecodeSignature(p Params, height uint8, b []byte) (*Signature, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := validateHeight(height); err != nil {
		return nil, err
	}
	if want := p.SignatureSize(height); len(b) != want {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidSignatureSize, len(b), want)
	}

	n := int(p.HashLength)
	next := func(k int) []byte {
		v := append([]byte(nil), b[:k]...)
		b = b[k:]
		return v
	}
	sig := &Signature{
		params:    p,
		height:    height,
		PublicKey: next(n),
		Salt:      next(n),
	}
	sig.Index = binary.BigEndian.Uint16(next(2))
	sig.AuthPath = make([][]byte, height)
	for i := range sig.AuthPath {
		sig.AuthPath[i] = next(n)
	}
	sig.Chains = make([][]byte, 2*p.ChunkCount())
	for i := range sig.Chains {
		sig.Chains[i] = next(n)
	}
	return sig, nil
}

// Params returns the parameters the signature was decoded with.
func (s *Signature) Params() Params { return s.params }

// Height returns the height of the signing tree.
func (s *Signature) Height() uint8 { return s.height }

// Bytes returns the wire encoding of s.
func (s *Signature) Bytes() []byte {
	out := make([]byte, 0, s.params.SignatureSize(s.height))
	out = append(out, s.PublicKey...)
	out = append(out, s.Salt...)
	out = binary.BigEndian.AppendUint16(out, s.Index)
	for _, node := range s.AuthPath {
		out = append(out, node...)
	}
	for _, v := range s.Chains {
		out = append(out, v...)
	}
	return out
}

// wellFormed guards against hand-built values with mismatched lengths.
func (s *Signature) wellFormed() bool {
	if s.params.Validate() != nil {
		return false
	}
	n := int(s.params.HashLength)
	if len(s.PublicKey) != n || len(s.Salt) != n {
		return false
	}
	if len(s.AuthPath) != int(s.height) || len(s.Chains) != 2*s.params.ChunkCount() {
		return false
	}
	for _, v := range s.AuthPath {
		if len(v) != n {
			return false
		}
	}
	for _, v := range s.Chains {
		if len(v) != n {
			return false
		}
	}
	return true
}

func (s *Signature) primitive() *hash.Primitive {
	prim, err := hash.New(s.params.Hash, int(s.params.HashLength), s.Salt)
	if err != nil {
		// Decoding fixed the salt length and validated the parameters.
		panic("spqsigs: " + err.Error())
	}
	return prim
}

// Digest returns the digest of msg under the signer's salt, or nil if s is
// malformed.
func (s *Signature) Digest(msg []byte) []byte {
	if !s.wellFormed() {
		return nil
	}
	return s.primitive().Hash(msg)
}

// Validate reports whether s is a valid signature of msg by PublicKey.
func (s *Signature) Validate(msg []byte) bool {
	digest := s.Digest(msg)
	if digest == nil {
		return false
	}
	return s.ValidateDigest(digest)
}

// ValidateDigest reports whether s is a valid signature of an already
// hashed digest by PublicKey. Certificates are checked this way.
func (s *Signature) ValidateDigest(digest []byte) bool {
	if len(digest) != int(s.params.HashLength) {
		return false
	}
	if uint32(s.Index) >= uint32(1)<<s.height || !s.wellFormed() {
		return false
	}
	prim := s.primitive()
	public := wots.PublicKeyFromSignature(prim, s.params.encoding(), digest, s.Chains)
	root := merkle.RootFromPath(prim.Hash(public), uint32(s.Index), s.AuthPath, prim.Combine)
	return subtle.ConstantTimeCompare(root, s.PublicKey) == 1
}
