package datalink

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/c360/marlink/component"
	"github.com/c360/marlink/errors"
	"github.com/c360/marlink/metric"
	"github.com/c360/marlink/message"
	"github.com/c360/marlink/pkg/buffer"
	"github.com/c360/marlink/sentence"
)

const (
	// DefaultBufferCapacity bounds the message ring per provider.
	DefaultBufferCapacity = 1000

	// DefaultDisconnectTimeout bounds the wait for a receiver to exit.
	DefaultDisconnectTimeout = 5 * time.Second
)

// Provider is a receive-only data link for one sentence domain. It is
// generic over the parser: the AIS, position, and radar links are the same
// machinery with different ParseFuncs and serial defaults.
type Provider struct {
	name     string
	parse    sentence.ParseFunc
	defaults TransportDefaults

	mu     sync.Mutex
	status Status
	cfg    *ConnectionConfig
	recv   *receiver

	ring    buffer.Ring[message.Message]
	logger  *slog.Logger
	reg     *metric.Registry
	logSink component.LogSink
	events  *component.Logger

	capacity          int
	disconnectTimeout time.Duration

	startTime  time.Time
	errorCount int
	lastError  string
}

// Option configures a Provider.
type Option func(*Provider)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithLogMirror mirrors lifecycle logs onto the sink under
// marlink.logs.<name> for remote consumption.
func WithLogMirror(sink component.LogSink) Option {
	return func(p *Provider) {
		p.logSink = sink
	}
}

// WithMetrics enables Prometheus metrics through the shared registry.
func WithMetrics(reg *metric.Registry) Option {
	return func(p *Provider) {
		p.reg = reg
	}
}

// WithBufferCapacity overrides the message ring capacity.
func WithBufferCapacity(capacity int) Option {
	return func(p *Provider) {
		if capacity > 0 {
			p.capacity = capacity
		}
	}
}

// WithDisconnectTimeout overrides the bounded wait for receiver shutdown.
func WithDisconnectTimeout(timeout time.Duration) Option {
	return func(p *Provider) {
		if timeout > 0 {
			p.disconnectTimeout = timeout
		}
	}
}

// NewProvider creates a provider for an arbitrary parser and defaults.
// Most callers want NewAISProvider, NewGPSProvider, or NewRadarProvider.
func NewProvider(name string, parse sentence.ParseFunc, defaults TransportDefaults, opts ...Option) (*Provider, error) {
	if name == "" {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Provider", "NewProvider", "provider name")
	}
	if parse == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Provider", "NewProvider", "parse function")
	}

	p := &Provider{
		name:              name,
		parse:             parse,
		defaults:          defaults,
		status:            Status{State: StateDisconnected},
		logger:            slog.Default(),
		capacity:          DefaultBufferCapacity,
		disconnectTimeout: DefaultDisconnectTimeout,
		startTime:         time.Now(),
	}
	for _, opt := range opts {
		opt(p)
	}

	// Local output stays on p.logger; the mirror is sink-only
	if p.logSink != nil {
		p.events = component.NewLogger(name, p.logSink, nil)
	}

	ringOpts := []buffer.Option[message.Message]{
		buffer.WithOverflowPolicy[message.Message](buffer.DropOldest),
	}
	if p.reg != nil {
		ringOpts = append(ringOpts, buffer.WithMetrics[message.Message](p.reg, name))
	}
	ring, err := buffer.NewRing[message.Message](p.capacity, ringOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "Provider", "NewProvider", "ring creation")
	}
	p.ring = ring

	return p, nil
}

// NewAISProvider creates a data link for AIS VDM/VDO sentences.
// Serial links default to 4800 baud per the AIS transponder standard.
func NewAISProvider(opts ...Option) (*Provider, error) {
	return NewProvider("ais", sentence.ParseAIS, TransportDefaults{SerialBaud: "4800"}, opts...)
}

// NewGPSProvider creates a data link for NMEA position sentences.
// Serial links default to 9600 baud.
func NewGPSProvider(opts ...Option) (*Provider, error) {
	return NewProvider("gps", sentence.ParseGPS, TransportDefaults{SerialBaud: "9600"}, opts...)
}

// NewRadarProvider creates a data link for RAD* radar sentences.
// Radar installations vary, so serial links require an explicit baud_rate.
func NewRadarProvider(opts ...Option) (*Provider, error) {
	return NewProvider("radar", sentence.ParseRadar, TransportDefaults{}, opts...)
}

// Connect validates the config and starts the receiver. Validation errors
// are synchronous and leave the provider disconnected with no partial
// state. Transport failures after this point starve the buffer but do not
// change the status.
func (p *Provider) Connect(cfg ConnectionConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.status.State == StateConnected || p.status.State == StateConnecting {
		return errors.WrapInvalid(errors.ErrAlreadyConnected, p.name, "Connect", "state check")
	}

	src, err := ParseSource(cfg, p.defaults)
	if err != nil {
		p.recordError(err)
		return err
	}

	p.setStatus(Status{State: StateConnecting})

	recv := newReceiver(p.name, p.sourceID(cfg.Kind), p.parse, p.ring, p.logger, p.coreMetrics())
	go recv.run(src)

	p.recv = recv
	p.cfg = &cfg
	p.setStatus(Status{State: StateConnected})
	p.logger.Info("data link connected", "link", p.name, "transport", cfg.Kind)
	if p.events != nil {
		p.events.Info(fmt.Sprintf("data link connected via %s", cfg.Kind))
	}

	return nil
}

// Disconnect stops the receiver, waiting up to the disconnect timeout, and
// clears the stored config. Safe to call when already disconnected.
func (p *Provider) Disconnect() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.recv != nil {
		if !p.recv.stop(p.disconnectTimeout) {
			p.logger.Warn("receiver did not stop in time", "link", p.name, "timeout", p.disconnectTimeout)
		}
		p.recv = nil
	}

	p.cfg = nil
	p.setStatus(Status{State: StateDisconnected})
	p.logger.Info("data link disconnected", "link", p.name)
	if p.events != nil {
		p.events.Info("data link disconnected")
	}

	return nil
}

// Status returns the current connection status.
func (p *Provider) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// ReceiveMessage pops the oldest buffered message without blocking.
func (p *Provider) ReceiveMessage() (message.Message, bool) {
	return p.ring.Read()
}

// ReceiveAllMessages drains every buffered message without blocking.
func (p *Provider) ReceiveAllMessages() []message.Message {
	return p.ring.ReadBatch(p.ring.Capacity())
}

// SendMessage always fails: data links are receive-only.
func (p *Provider) SendMessage(_ message.Message) error {
	return errors.WrapInvalid(errors.ErrSendUnsupported, p.name, "SendMessage",
		fmt.Sprintf("%s transmission", p.name))
}

// Meta implements component.Discoverable.
func (p *Provider) Meta() component.Metadata {
	return component.Metadata{
		Name:        p.name,
		Type:        "input",
		Description: fmt.Sprintf("%s data link provider", p.name),
		Version:     "1.0.0",
	}
}

// Health implements component.Discoverable.
func (p *Provider) Health() component.HealthStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	return component.HealthStatus{
		Healthy:    p.status.State != StateFailed,
		LastCheck:  time.Now(),
		ErrorCount: p.errorCount,
		LastError:  p.lastError,
		Uptime:     time.Since(p.startTime),
	}
}

// DataFlow implements component.Discoverable.
func (p *Provider) DataFlow() component.FlowMetrics {
	stats := p.ring.Stats()
	uptime := stats.Uptime().Seconds()

	var rate, errRate float64
	if uptime > 0 {
		rate = float64(stats.Writes()) / uptime
	}
	if w := stats.Writes(); w > 0 {
		errRate = float64(stats.Drops()) / float64(w)
	}

	return component.FlowMetrics{
		MessagesPerSecond: rate,
		ErrorRate:         errRate,
		LastActivity:      time.Now(),
	}
}

// BufferStats exposes the ring statistics for observability.
func (p *Provider) BufferStats() buffer.StatsSummary {
	return p.ring.Stats().Summary()
}

func (p *Provider) sourceID(kind string) string {
	return fmt.Sprintf("%s-%s", p.name, kind)
}

func (p *Provider) coreMetrics() *metric.Metrics {
	if p.reg == nil {
		return nil
	}
	return p.reg.CoreMetrics()
}

// setStatus updates status and mirrors it to metrics. Caller holds mu.
func (p *Provider) setStatus(status Status) {
	p.status = status
	if p.reg != nil {
		p.reg.CoreMetrics().RecordLinkStatus(p.name, int(status.State))
	}
}

// recordError tracks the error for Health(). Caller holds mu.
func (p *Provider) recordError(err error) {
	p.errorCount++
	p.lastError = err.Error()
	if p.reg != nil {
		p.reg.CoreMetrics().RecordError(p.name, errors.Classify(err).String())
	}
	if p.events != nil {
		p.events.Error("data link error", err)
	}
}
