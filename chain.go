// chain.go - multi-level signatures and their wire format

package spqsigs

import (
	"errors"
	"fmt"
)

// Link is one edge of a certificate chain: the public key of a level and
// the certificate its parent issued over it.
type Link struct {
	PublicKey   []byte
	Certificate []byte // nil when omitted by a Reducer
}

// Omitted reports whether the certificate was left out.
func (l Link) Omitted() bool { return l.Certificate == nil }

// ChainSignature is a message signature together with the certificates
// linking its level to the root. Links are ordered bottom-up: Links[0] is
// the message-signing level, certified by Links[1]'s level, and so on; the
// last link is certified by the root.
type ChainSignature struct {
	Message []byte // single-level signature of the message
	Links   []Link
	Root    []byte // root public key, when known
}

func (cs *ChainSignature) clone() *ChainSignature {
	out := &ChainSignature{
		Message: cs.Message,
		Links:   make([]Link, len(cs.Links)),
		Root:    cs.Root,
	}
	copy(out.Links, cs.Links)
	return out
}

var errNonSuffixOmission = errors.New("spqsigs: omitted certificates must be the upper end of the chain")

// Serialize encodes cs followed by the trusted root public key. When r is
// not nil, certificates unchanged since the last call with r are omitted:
// the encoding then stops after the public key of the first omitted link.
//
//	message sig || cert 0 || ... || cert k-1 || [pubkey k] || root
func (cs *ChainSignature) Serialize(root []byte, r *Reducer) ([]byte, error) {
	if len(root) == 0 {
		return nil, fmt.Errorf("spqsigs: serializing without a root public key")
	}
	if r != nil {
		cs = r.Reduce(cs)
	}
	out := append([]byte(nil), cs.Message...)
	for j, link := range cs.Links {
		if link.Omitted() {
			for _, above := range cs.Links[j+1:] {
				if !above.Omitted() {
					return nil, errNonSuffixOmission
				}
			}
			if link.PublicKey == nil {
				return nil, fmt.Errorf("spqsigs: omitted link %d has no public key", j)
			}
			out = append(out, link.PublicKey...)
			break
		}
		out = append(out, link.Certificate...)
	}
	return append(out, root...), nil
}

// Scheme holds what a verifier must know out of band: the parameters and
// the tree heights, listed from the root down.
type Scheme struct {
	params  Params
	heights []uint8
	opts    *options
}

// NewScheme returns the scheme for the given parameters and heights.
func NewScheme(p Params, heights []uint8, opts ...Option) (*Scheme, error) {
	if _, err := NewAllocator(p, heights); err != nil {
		return nil, err
	}
	return &Scheme{
		params:  p,
		heights: append([]uint8(nil), heights...),
		opts:    newOptions(opts),
	}, nil
}

// Params returns the scheme parameters.
func (s *Scheme) Params() Params { return s.params }

// Heights returns the tree heights from the root down.
func (s *Scheme) Heights() []uint8 { return append([]uint8(nil), s.heights...) }

// Levels returns the number of levels.
func (s *Scheme) Levels() int { return len(s.heights) }

// height returns the tree height of level j, 0 being the bottom.
func (s *Scheme) height(j int) uint8 { return s.heights[len(s.heights)-1-j] }

// Deserialize splits b into its per-level parts using the fixed lengths of
// the scheme. A compressed encoding yields omitted links which an Expander
// or the TrustCache must supply.
func (s *Scheme) Deserialize(b []byte) (*ChainSignature, error) {
	n := int(s.params.HashLength)
	msgLen := s.params.SignatureSize(s.height(0))
	if len(b) < msgLen+n {
		return nil, fmt.Errorf("%w: %d bytes is shorter than a message signature", ErrInvalidSignatureSize, len(b))
	}
	cs := &ChainSignature{
		Message: append([]byte(nil), b[:msgLen]...),
		Links:   make([]Link, s.Levels()-1),
	}
	// Every signature starts with the public key of the level that made it.
	child := b[:n]
	rest := b[msgLen:]
	for j := 0; ; j++ {
		if j == len(cs.Links) {
			if len(rest) != n {
				return nil, fmt.Errorf("%w: %d trailing bytes after the last certificate", ErrInvalidSignatureSize, len(rest)-n)
			}
			cs.Root = append([]byte(nil), rest...)
			return cs, nil
		}
		certLen := s.params.SignatureSize(s.height(j + 1))
		switch {
		case len(rest) >= certLen+n:
			cs.Links[j] = Link{
				PublicKey:   append([]byte(nil), child...),
				Certificate: append([]byte(nil), rest[:certLen]...),
			}
			child = rest[:n]
			rest = rest[certLen:]
		case len(rest) == 2*n:
			cs.Links[j].PublicKey = append([]byte(nil), rest[:n]...)
			cs.Root = append([]byte(nil), rest[n:]...)
			return cs, nil
		default:
			return nil, fmt.Errorf("%w: %d bytes left at level %d", ErrInvalidSignatureSize, len(rest), j)
		}
	}
}
