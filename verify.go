// verify.go - certificate chain verification against cached trust

package spqsigs

import (
	"bytes"
	"fmt"

	"go.uber.org/zap"
)

// TrustCache holds the last public key trusted for every level, index 0
// being the message-signing level and the last entry the root. It is owned
// by the caller and updated by Verify only after a successful verification.
type TrustCache struct {
	keys [][]byte
}

// NewTrustCache returns a cache for the scheme that trusts only root.
func (s *Scheme) NewTrustCache(root []byte) (*TrustCache, error) {
	if len(root) != int(s.params.HashLength) {
		return nil, configErrorf("root public key is %d bytes, want %d", len(root), s.params.HashLength)
	}
	keys := make([][]byte, s.Levels())
	keys[len(keys)-1] = append([]byte(nil), root...)
	return &TrustCache{keys: keys}, nil
}

// Len returns the number of levels covered.
func (c *TrustCache) Len() int { return len(c.keys) }

// Root returns the trusted root public key.
func (c *TrustCache) Root() []byte { return c.Key(len(c.keys) - 1) }

// Key returns a copy of the public key last trusted for level j, or nil.
func (c *TrustCache) Key(j int) []byte {
	if c.keys[j] == nil {
		return nil
	}
	return append([]byte(nil), c.keys[j]...)
}

// Verify reports whether cs is a valid signature of msg chaining up to the
// cache's root. The chain is walked from the root down. A level whose
// public key matches the cache is trusted as is; any other level needs a
// certificate, made by the level above it, over its public key. An error is
// returned only for malformed input.
func (s *Scheme) Verify(cs *ChainSignature, msg []byte, cache *TrustCache) (bool, error) {
	ok, err := s.verify(cs, msg, cache)
	if err == nil {
		s.opts.metrics.verified(ok)
	}
	return ok, err
}

func (s *Scheme) verify(cs *ChainSignature, msg []byte, cache *TrustCache) (bool, error) {
	if cs == nil || cache == nil {
		return false, configErrorf("nil chain signature or trust cache")
	}
	levels := s.Levels()
	if cache.Len() != levels {
		return false, configErrorf("trust cache covers %d levels, scheme has %d", cache.Len(), levels)
	}
	if len(cs.Links) != levels-1 {
		return false, fmt.Errorf("%w: %d links for a %d level scheme", ErrInvalidSignatureSize, len(cs.Links), levels)
	}
	root := cache.keys[levels-1]
	if cs.Root != nil && !bytes.Equal(cs.Root, root) {
		s.opts.log.Debug("chain signature names an untrusted root", zap.String("root", shortHex(cs.Root)))
		return false, nil
	}

	observed := make([][]byte, levels)
	observed[levels-1] = root
	for j := levels - 2; j >= 0; j-- {
		link := cs.Links[j]
		pub := link.PublicKey
		cached := cache.keys[j]
		if pub == nil {
			// A compressed link that was never expanded: only the cache
			// can vouch for it.
			if cached == nil || !link.Omitted() {
				return false, nil
			}
			pub = cached
		}
		if cached != nil && bytes.Equal(cached, pub) {
			observed[j] = pub
			continue
		}
		if link.Omitted() {
			return false, nil
		}
		cert, err := DecodeSignature(s.params, s.height(j+1), link.Certificate)
		if err != nil {
			return false, err
		}
		if !bytes.Equal(cert.PublicKey, observed[j+1]) && !bytes.Equal(cert.PublicKey, cache.keys[j+1]) {
			return false, nil
		}
		if !cert.ValidateDigest(cert.Digest(pub)) {
			s.opts.log.Debug("certificate rejected", zap.Int("level", j))
			return false, nil
		}
		observed[j] = pub
	}

	sig, err := DecodeSignature(s.params, s.height(0), cs.Message)
	if err != nil {
		return false, err
	}
	if !bytes.Equal(sig.PublicKey, observed[0]) || !sig.Validate(msg) {
		return false, nil
	}

	for j := 0; j < levels-1; j++ {
		cache.keys[j] = append([]byte(nil), observed[j]...)
	}
	return true, nil
}
