// delta.go - omitting unchanged certificates between transmissions

package spqsigs

import (
	"bytes"
	"fmt"
)

// Reducer is the sender side of delta compression. It remembers the public
// key last sent for every link and drops certificates the receiver already
// has. Use one Reducer per receiver and feed it every signature sent.
type Reducer struct {
	sent [][]byte
}

// NewReducer returns a Reducer with no history.
func NewReducer() *Reducer {
	return &Reducer{}
}

// Reduce returns a copy of cs with unchanged certificates omitted. Only the
// upper end of the chain can be unchanged, since replacing a level also
// replaces every level below it.
func (r *Reducer) Reduce(cs *ChainSignature) *ChainSignature {
	out := cs.clone()
	start := len(out.Links)
	for j := len(out.Links) - 1; j >= 0; j-- {
		if j >= len(r.sent) || !bytes.Equal(r.sent[j], out.Links[j].PublicKey) {
			break
		}
		start = j
	}
	for j := range out.Links {
		if j >= start {
			out.Links[j].Certificate = nil
			continue
		}
		r.remember(j, out.Links[j].PublicKey)
	}
	return out
}

func (r *Reducer) remember(j int, pub []byte) {
	for len(r.sent) <= j {
		r.sent = append(r.sent, nil)
	}
	r.sent[j] = append([]byte(nil), pub...)
}

// Expander is the receiver side of delta compression. It caches the last
// full certificate seen for every link and restores omitted ones.
type Expander struct {
	pubs  [][]byte
	certs [][]byte
}

// NewExpander returns an Expander with no history.
func NewExpander() *Expander {
	return &Expander{}
}

// Expand returns a copy of cs with every omitted link filled in from the
// cache, and caches the links cs carries in full. It fails with
// ErrInsufficientExpandState when a link was never seen, or when the public
// key handed over for it differs from the cached one.
func (e *Expander) Expand(cs *ChainSignature) (*ChainSignature, error) {
	out := cs.clone()
	for j := range out.Links {
		link := &out.Links[j]
		if !link.Omitted() {
			continue
		}
		if j >= len(e.certs) || e.certs[j] == nil {
			return nil, fmt.Errorf("%w: no certificate cached for level %d", ErrInsufficientExpandState, j)
		}
		if link.PublicKey != nil && !bytes.Equal(link.PublicKey, e.pubs[j]) {
			return nil, fmt.Errorf("%w: level %d changed since it was cached", ErrInsufficientExpandState, j)
		}
		link.PublicKey = append([]byte(nil), e.pubs[j]...)
		link.Certificate = append([]byte(nil), e.certs[j]...)
	}
	for j, link := range cs.Links {
		if !link.Omitted() {
			e.store(j, link)
		}
	}
	return out, nil
}

func (e *Expander) store(j int, link Link) {
	for len(e.certs) <= j {
		e.pubs = append(e.pubs, nil)
		e.certs = append(e.certs, nil)
	}
	e.pubs[j] = append([]byte(nil), link.PublicKey...)
	e.certs[j] = append([]byte(nil), link.Certificate...)
}
