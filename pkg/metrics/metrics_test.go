package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.RecordAdd("users")
	m.RecordAdd("users")
	m.RecordQuery("users", true)
	m.RecordQuery("users", false)
	m.RecordQuery("users", false)
	m.RecordClear("users")
	m.SetFiltersOpen(3)

	require.Equal(t, 2.0, testutil.ToFloat64(m.AddsTotal.WithLabelValues("users")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.QueriesTotal.WithLabelValues("users", "positive")))
	require.Equal(t, 2.0, testutil.ToFloat64(m.QueriesTotal.WithLabelValues("users", "negative")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.ClearsTotal.WithLabelValues("users")))
	require.Equal(t, 3.0, testutil.ToFloat64(m.FiltersOpen))
}

func TestGetMetricsSingleton(t *testing.T) {
	require.Same(t, GetMetrics(), GetMetrics())
}
