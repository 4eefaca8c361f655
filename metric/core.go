package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains platform-level metrics shared by all components
type Metrics struct {
	// Data link metrics
	LinkStatus        *prometheus.GaugeVec
	SentencesReceived *prometheus.CounterVec
	SentencesParsed   *prometheus.CounterVec
	SentencesDropped  *prometheus.CounterVec
	ReportsPublished  *prometheus.CounterVec
	ErrorsTotal       *prometheus.CounterVec
	HealthStatus      *prometheus.GaugeVec

	// Upstream stream metrics
	StreamClients    prometheus.Gauge
	StreamReconnects prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all platform metrics
func NewMetrics() *Metrics {
	return &Metrics{
		LinkStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "marlink",
				Subsystem: "link",
				Name:      "status",
				Help:      "Data link status (0=disconnected, 1=connecting, 2=connected, 3=failed)",
			},
			[]string{"link"},
		),

		SentencesReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "marlink",
				Subsystem: "sentences",
				Name:      "received_total",
				Help:      "Total number of raw sentences received",
			},
			[]string{"link", "transport"},
		),

		SentencesParsed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "marlink",
				Subsystem: "sentences",
				Name:      "parsed_total",
				Help:      "Total number of sentences parsed into messages",
			},
			[]string{"link", "kind"},
		),

		SentencesDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "marlink",
				Subsystem: "sentences",
				Name:      "dropped_total",
				Help:      "Total number of malformed sentences dropped",
			},
			[]string{"link"},
		),

		ReportsPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "marlink",
				Subsystem: "reports",
				Name:      "published_total",
				Help:      "Total number of vessel reports published downstream",
			},
			[]string{"component", "destination"},
		),

		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "marlink",
				Subsystem: "errors",
				Name:      "total",
				Help:      "Total number of errors",
			},
			[]string{"component", "type"},
		),

		HealthStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "marlink",
				Subsystem: "health",
				Name:      "status",
				Help:      "Health check status (0=unhealthy, 1=healthy)",
			},
			[]string{"component"},
		),

		StreamClients: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "marlink",
				Subsystem: "stream",
				Name:      "clients",
				Help:      "Current number of consumers holding the upstream stream",
			},
		),

		StreamReconnects: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "marlink",
				Subsystem: "stream",
				Name:      "reconnects_total",
				Help:      "Total number of upstream stream reconnections",
			},
		),
	}
}

// RecordLinkStatus updates a data link status gauge
func (c *Metrics) RecordLinkStatus(link string, status int) {
	c.LinkStatus.WithLabelValues(link).Set(float64(status))
}

// RecordSentenceReceived increments the received sentence counter
func (c *Metrics) RecordSentenceReceived(link, transport string) {
	c.SentencesReceived.WithLabelValues(link, transport).Inc()
}

// RecordSentenceParsed increments the parsed sentence counter
func (c *Metrics) RecordSentenceParsed(link, kind string) {
	c.SentencesParsed.WithLabelValues(link, kind).Inc()
}

// RecordSentenceDropped increments the dropped sentence counter
func (c *Metrics) RecordSentenceDropped(link string) {
	c.SentencesDropped.WithLabelValues(link).Inc()
}

// RecordReportPublished increments the published report counter
func (c *Metrics) RecordReportPublished(component, destination string) {
	c.ReportsPublished.WithLabelValues(component, destination).Inc()
}

// RecordError increments the error counter
func (c *Metrics) RecordError(component, errorType string) {
	c.ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

// RecordHealthStatus updates the health check status gauge
func (c *Metrics) RecordHealthStatus(component string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	c.HealthStatus.WithLabelValues(component).Set(value)
}

// RecordStreamClients updates the consumer count gauge
func (c *Metrics) RecordStreamClients(n int) {
	c.StreamClients.Set(float64(n))
}

// RecordStreamReconnect increments the reconnection counter
func (c *Metrics) RecordStreamReconnect() {
	c.StreamReconnects.Inc()
}
