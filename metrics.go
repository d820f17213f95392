// metrics.go - prometheus counters

package spqsigs

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the prometheus collectors updated by signing keys and
// schemes. A nil *Metrics records nothing.
type Metrics struct {
	Signatures    *prometheus.CounterVec
	Refreshes     *prometheus.CounterVec
	Verifications *prometheus.CounterVec
	TreeBuild     *prometheus.HistogramVec
}

// NewMetrics returns unregistered collectors.
func NewMetrics() *Metrics {
	return &Metrics{
		Signatures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spq_signatures_total",
				Help: "One-time signatures issued, by tree level (0 signs messages)",
			},
			[]string{"level"},
		),
		Refreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spq_level_refresh_total",
				Help: "Levels replaced and re-certified after exhaustion",
			},
			[]string{"level"},
		),
		Verifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spq_verifications_total",
				Help: "Chain signature verifications, by result",
			},
			[]string{"result"},
		),
		TreeBuild: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "spq_tree_build_seconds",
				Help:    "Time spent populating a level's Merkle tree",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
			},
			[]string{"height"},
		),
	}
}

// Register registers all collectors with reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.Signatures, m.Refreshes, m.Verifications, m.TreeBuild} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) signed(level int) {
	if m != nil {
		m.Signatures.WithLabelValues(strconv.Itoa(level)).Inc()
	}
}

func (m *Metrics) refreshed(level int) {
	if m != nil {
		m.Refreshes.WithLabelValues(strconv.Itoa(level)).Inc()
	}
}

func (m *Metrics) verified(ok bool) {
	if m == nil {
		return
	}
	result := "invalid"
	if ok {
		result = "valid"
	}
	m.Verifications.WithLabelValues(result).Inc()
}

func (m *Metrics) treeBuilt(height uint8, d time.Duration) {
	if m != nil {
		m.TreeBuild.WithLabelValues(strconv.Itoa(int(height))).Observe(d.Seconds())
	}
}
