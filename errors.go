// errors.go - error values

package spqsigs

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is returned for parameters outside the supported
	// ranges. It is never recoverable.
	ErrConfiguration = errors.New("spqsigs: invalid configuration")

	// ErrExhausted is returned when a level has used all of its one-time
	// slots. Below the root the signing key recovers by re-certifying a
	// fresh level; at the root it is final.
	ErrExhausted = errors.New("spqsigs: signing key exhausted")

	// ErrInvalidSignatureSize is returned when encoded bytes do not match
	// any expected layout.
	ErrInvalidSignatureSize = errors.New("spqsigs: invalid signature size")

	// ErrInsufficientExpandState is returned when a compressed signature
	// omits a level the receiver holds no state for. The sender has to
	// transmit a full signature.
	ErrInsufficientExpandState = errors.New("spqsigs: insufficient state to expand signature")

	// ErrOutOfRange is returned when selecting a child ordinal the tree
	// does not have.
	ErrOutOfRange = errors.New("spqsigs: index out of range")
)

func configErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}
