// Package natspub publishes vessel reports from the shared upstream
// stream to a NATS subject for downstream services.
package natspub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/c360/marlink/aisstream"
	"github.com/c360/marlink/component"
	"github.com/c360/marlink/errors"
	"github.com/c360/marlink/metric"
	"github.com/c360/marlink/natsclient"
)

// DefaultSubject is the NATS subject reports are published to.
const DefaultSubject = "marlink.reports"

// Sink is the publish surface natspub needs from a NATS client.
type Sink interface {
	Publish(subject string, data []byte) error
}

var _ Sink = (*natsclient.Client)(nil)

// Config holds configuration for the report publisher.
type Config struct {
	Name     string // Component name (empty = auto-generate)
	Subject  string // NATS subject, defaults to DefaultSubject
	Manager  *aisstream.Manager
	Sink     Sink
	Logger   *slog.Logger
	Registry *metric.Registry
}

// Publisher consumes the shared vessel stream and forwards every report
// to NATS as JSON.
type Publisher struct {
	name    string
	subject string
	manager *aisstream.Manager
	sink    Sink
	logger  *slog.Logger
	core    *metric.Metrics

	sub    *aisstream.Subscription
	cancel context.CancelFunc
	done   chan struct{}

	running     bool
	startTime   time.Time
	mu          sync.RWMutex
	lifecycleMu sync.Mutex

	published    int64
	bytesOut     int64
	errorCount   int64
	lastActivity atomic.Value // stores time.Time
}

var _ component.Discoverable = (*Publisher)(nil)
var _ component.LifecycleComponent = (*Publisher)(nil)

// NewPublisherWithClient creates a report publisher backed by a managed
// NATS client connection.
func NewPublisherWithClient(cfg Config, client *natsclient.Client) *Publisher {
	cfg.Sink = client
	return NewPublisher(cfg)
}

// NewPublisher creates a report publisher.
func NewPublisher(cfg Config) *Publisher {
	if cfg.Subject == "" {
		cfg.Subject = DefaultSubject
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	p := &Publisher{
		name:      cfg.Name,
		subject:   cfg.Subject,
		manager:   cfg.Manager,
		sink:      cfg.Sink,
		logger:    cfg.Logger.With("component", "natspub"),
		startTime: time.Now(),
	}
	if cfg.Registry != nil {
		p.core = cfg.Registry.CoreMetrics()
	}
	p.lastActivity.Store(time.Time{})
	return p
}

// Meta returns the component metadata.
func (p *Publisher) Meta() component.Metadata {
	name := p.name
	if name == "" {
		name = "natspub-output"
	}
	return component.Metadata{
		Name:        name,
		Type:        "output",
		Description: fmt.Sprintf("Publishes vessel reports to NATS subject %s", p.subject),
		Version:     "1.0.0",
	}
}

// Health returns the current health status.
func (p *Publisher) Health() component.HealthStatus {
	p.mu.RLock()
	running := p.running
	p.mu.RUnlock()

	return component.HealthStatus{
		Healthy:    running,
		LastCheck:  time.Now(),
		ErrorCount: int(atomic.LoadInt64(&p.errorCount)),
		Uptime:     time.Since(p.startTime),
	}
}

// DataFlow returns throughput metrics.
func (p *Publisher) DataFlow() component.FlowMetrics {
	published := atomic.LoadInt64(&p.published)
	bytes := atomic.LoadInt64(&p.bytesOut)
	errCount := atomic.LoadInt64(&p.errorCount)

	var perSecond, bytesPerSecond, errorRate float64
	if uptime := time.Since(p.startTime).Seconds(); uptime > 0 {
		perSecond = float64(published) / uptime
		bytesPerSecond = float64(bytes) / uptime
	}
	if published > 0 {
		errorRate = float64(errCount) / float64(published)
	}

	return component.FlowMetrics{
		MessagesPerSecond: perSecond,
		BytesPerSecond:    bytesPerSecond,
		ErrorRate:         errorRate,
		LastActivity:      p.lastActivity.Load().(time.Time),
	}
}

// Initialize validates configuration without starting the pump.
func (p *Publisher) Initialize() error {
	if p.manager == nil {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Publisher", "Initialize", "stream manager required")
	}
	if p.sink == nil {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Publisher", "Initialize", "publish sink required")
	}
	if p.subject == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Publisher", "Initialize", "subject required")
	}
	return nil
}

// Start acquires the stream and begins forwarding reports.
func (p *Publisher) Start(ctx context.Context) error {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "Publisher", "Start", "state check")
	}
	if ctx == nil {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Publisher", "Start", "context cannot be nil")
	}

	sub, err := p.manager.Acquire()
	if err != nil {
		return errors.Wrap(err, "Publisher", "Start", "stream acquisition")
	}
	p.sub = sub

	pumpCtx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true
	p.startTime = time.Now()

	go p.pump(pumpCtx, sub, p.done)

	p.logger.Info("report publisher started", "subject", p.subject)
	return nil
}

// Stop halts forwarding and releases the stream.
func (p *Publisher) Stop(timeout time.Duration) error {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()

	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	cancel := p.cancel
	done := p.done
	sub := p.sub
	p.cancel = nil
	p.done = nil
	p.sub = nil
	p.mu.Unlock()

	cancel()
	select {
	case <-done:
	case <-time.After(timeout):
		p.logger.Warn("pump did not exit before timeout")
	}

	p.manager.Release(sub)
	p.logger.Info("report publisher stopped")
	return nil
}

// pump forwards reports until the context is cancelled or the
// subscription ends.
func (p *Publisher) pump(ctx context.Context, sub *aisstream.Subscription, done chan struct{}) {
	defer close(done)

	for {
		report, skipped, err := sub.Recv(ctx)
		if err != nil {
			return
		}
		if skipped > 0 {
			p.logger.Warn("publisher lagged behind stream", "skipped", skipped)
		}

		data, err := json.Marshal(report)
		if err != nil {
			atomic.AddInt64(&p.errorCount, 1)
			continue
		}

		if err := p.sink.Publish(p.subject, data); err != nil {
			atomic.AddInt64(&p.errorCount, 1)
			if p.core != nil {
				p.core.RecordError("natspub", errors.Classify(err).String())
			}
			p.logger.Warn("publish failed", "subject", p.subject, "error", err)
			continue
		}

		atomic.AddInt64(&p.published, 1)
		atomic.AddInt64(&p.bytesOut, int64(len(data)))
		p.lastActivity.Store(time.Now())
		if p.core != nil {
			p.core.RecordReportPublished("natspub", p.subject)
		}
	}
}
