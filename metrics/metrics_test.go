package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestMetrics_IncrementsRegisterCorrectly(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.IncInserts()
	m.IncInserts()
	m.IncSplits()
	m.SetHeight(3)

	families, err := reg.Gather()
	require.NoError(t, err)

	counts := map[string]float64{}
	for _, f := range families {
		for _, metric := range f.GetMetric() {
			switch f.GetName() {
			case "btreeidx_inserts_total":
				counts["inserts"] = metric.GetCounter().GetValue()
			case "btreeidx_splits_total":
				counts["splits"] = metric.GetCounter().GetValue()
			case "btreeidx_height":
				counts["height"] = metric.GetGauge().GetValue()
			}
		}
	}

	require.Equal(t, 2.0, counts["inserts"])
	require.Equal(t, 1.0, counts["splits"])
	require.Equal(t, 3.0, counts["height"])
}

func TestMetrics_NoOpDoesNotPanic(t *testing.T) {
	m := NoOp()
	require.NotPanics(t, func() {
		m.IncInserts()
		m.IncSplits()
		m.IncPagesAllocated()
		m.SetHeight(1)
	})
}
