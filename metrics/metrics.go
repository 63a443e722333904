// Package metrics exposes the B+Tree index's operational counters and
// gauges via github.com/prometheus/client_golang, registered against a
// private prometheus.Registry owned by the caller (see
// btreeidx.WithMetrics). NoOp() returns a collector backed by unregistered
// counters so the index core never requires a registry; the zero value of
// Metrics is not usable.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics groups the counters and gauges tracked per BTreeIndex instance.
type Metrics struct {
	inserts         prometheus.Counter
	splits          prometheus.Counter
	pagesAllocated  prometheus.Counter
	height          prometheus.Gauge
}

// New registers a fresh set of collectors against reg and returns them.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		inserts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "btreeidx_inserts_total",
			Help: "Total number of Insert calls that completed successfully.",
		}),
		splits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "btreeidx_splits_total",
			Help: "Total number of node splits (leaf or internal).",
		}),
		pagesAllocated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "btreeidx_pages_allocated_total",
			Help: "Total number of pages allocated via EndPageCount.",
		}),
		height: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "btreeidx_height",
			Help: "Current tree height (0 when empty).",
		}),
	}
	reg.MustRegister(m.inserts, m.splits, m.pagesAllocated, m.height)
	return m
}

// NoOp returns a Metrics whose methods are safe to call but record
// nothing, for callers that don't want Prometheus wiring.
func NoOp() *Metrics {
	return &Metrics{
		inserts:        prometheus.NewCounter(prometheus.CounterOpts{Name: "noop_inserts"}),
		splits:         prometheus.NewCounter(prometheus.CounterOpts{Name: "noop_splits"}),
		pagesAllocated: prometheus.NewCounter(prometheus.CounterOpts{Name: "noop_pages"}),
		height:         prometheus.NewGauge(prometheus.GaugeOpts{Name: "noop_height"}),
	}
}

func (m *Metrics) IncInserts()        { m.inserts.Inc() }
func (m *Metrics) IncSplits()         { m.splits.Inc() }
func (m *Metrics) IncPagesAllocated() { m.pagesAllocated.Inc() }
func (m *Metrics) SetHeight(h float64) { m.height.Set(h) }
