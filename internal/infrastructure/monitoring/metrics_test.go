package monitoring

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordCall(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordCall("sig", StatusOK, 10*time.Millisecond, 120)
	m.RecordCall("sig", StatusOK, 20*time.Millisecond, 80)
	m.RecordCall("sig", StatusError, time.Millisecond, 5)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CallsTotal.WithLabelValues("sig", StatusOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CallsTotal.WithLabelValues("sig", StatusError)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.CallDuration))

	snap := m.GetSnapshot()
	assert.Equal(t, int64(3), snap.TotalCalls)
	assert.Equal(t, int64(1), snap.TotalErrors)
	assert.Equal(t, int64(205), snap.TotalSteps)
	assert.InDelta(t, 0.031, snap.TotalDuration, 1e-9)
}

func TestRecordParseAndCache(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordParse(StatusOK)
	m.RecordParse(StatusError)
	m.RecordCacheRequest(CacheHit)
	m.RecordCacheRequest(CacheMiss)
	m.RecordCacheRequest(CacheMiss)
	m.RecordCacheRequest(CacheError)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ParseTotal.WithLabelValues(StatusError)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheRequests.WithLabelValues(CacheMiss)))

	snap := m.GetSnapshot()
	assert.Equal(t, int64(2), snap.TotalParses)
	assert.Equal(t, int64(1), snap.ParseErrors)
	assert.Equal(t, int64(1), snap.CacheHits)
	assert.Equal(t, int64(2), snap.CacheMisses)
}

func TestSharedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := NewMetrics(reg)
	b := NewMetrics(reg)

	a.RecordCall("f", StatusOK, 0, 1)
	b.RecordCall("f", StatusOK, 0, 1)

	assert.Equal(t, 2.0, testutil.ToFloat64(a.CallsTotal.WithLabelValues("f", StatusOK)))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "cipherjs_calls_total")
	assert.Contains(t, names, "cipherjs_call_steps")
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordCall("f", StatusOK, time.Second, 1)
		m.RecordParse(StatusOK)
		m.RecordCacheRequest(CacheHit)
		NewTimer(m, "f").Stop(StatusOK, 1)
	})
	assert.Equal(t, MetricsSnapshot{}, m.GetSnapshot())
}

func TestUnregistered(t *testing.T) {
	m := NewMetrics(nil)
	m.RecordCall("f", StatusOK, 0, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CallsTotal.WithLabelValues("f", StatusOK)))
}

func TestTimer(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	d := NewTimer(m, "g").Stop(StatusError, 3)
	assert.GreaterOrEqual(t, d, time.Duration(0))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CallsTotal.WithLabelValues("g", StatusError)))
}
