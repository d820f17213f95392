// options.go - construction options

package spqsigs

import (
	"runtime"

	"go.uber.org/zap"
)

// Option configures a signing key or scheme.
type Option func(*options)

type options struct {
	log     *zap.Logger
	metrics *Metrics
	workers int
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithMetrics records signing and verification counters in m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithParallelism bounds the goroutines used to populate a Merkle tree.
// 1 builds sequentially. The default is GOMAXPROCS.
func WithParallelism(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		log:     zap.NewNop(),
		workers: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
