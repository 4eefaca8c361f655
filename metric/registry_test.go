package metric

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistryHasCoreMetrics(t *testing.T) {
	registry := NewRegistry()
	require.NotNil(t, registry.CoreMetrics())
	require.NotNil(t, registry.PrometheusRegistry())

	// Core metrics are pre-registered and gatherable
	registry.Metrics.RecordLinkStatus("ais", 2)
	registry.Metrics.RecordSentenceReceived("ais", "udp")
	registry.Metrics.RecordStreamClients(3)

	families, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["marlink_link_status"])
	assert.True(t, names["marlink_sentences_received_total"])
	assert.True(t, names["marlink_stream_clients"])
}

func TestRegisterCounterDuplicateRejected(t *testing.T) {
	registry := NewRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "test_counter_total",
		Help: "test",
	})
	require.NoError(t, registry.RegisterCounter("ais", "lines", counter))

	other := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "other_counter_total",
		Help: "test",
	})
	err := registry.RegisterCounter("ais", "lines", other)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestSameNameDifferentComponent(t *testing.T) {
	registry := NewRegistry()

	a := prometheus.NewCounter(prometheus.CounterOpts{Name: "a_total", Help: "test"})
	b := prometheus.NewCounter(prometheus.CounterOpts{Name: "b_total", Help: "test"})

	require.NoError(t, registry.RegisterCounter("ais", "lines", a))
	require.NoError(t, registry.RegisterCounter("gps", "lines", b))
}

func TestUnregister(t *testing.T) {
	registry := NewRegistry()

	gauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: "test_gauge", Help: "test"})
	require.NoError(t, registry.RegisterGauge("radar", "sweep", gauge))

	assert.True(t, registry.Unregister("radar", "sweep"))
	assert.False(t, registry.Unregister("radar", "sweep"))

	// Re-registration after unregister succeeds
	require.NoError(t, registry.RegisterGauge("radar", "sweep", gauge))
}

func TestRegisterVecs(t *testing.T) {
	registry := NewRegistry()

	cv := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "vec_total", Help: "test"}, []string{"kind"})
	require.NoError(t, registry.RegisterCounterVec("datalink", "parsed", cv))

	gv := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: "vec_gauge", Help: "test"}, []string{"kind"})
	require.NoError(t, registry.RegisterGaugeVec("datalink", "depth", gv))
}
