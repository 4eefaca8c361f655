package aisstream

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/c360/marlink/errors"
	"github.com/c360/marlink/metric"
	"github.com/c360/marlink/pkg/snapshot"
)

const (
	// DefaultUpstreamURL is the public aisstream.io endpoint.
	DefaultUpstreamURL = "wss://stream.aisstream.io/v0/stream"

	// DefaultReconnectDelay is the pause between upstream connection attempts.
	DefaultReconnectDelay = 5 * time.Second

	// DefaultReleaseTimeout bounds the wait for the relay to exit when the
	// last consumer releases.
	DefaultReleaseTimeout = 10 * time.Second
)

// Config holds upstream connection settings.
type Config struct {
	// URL of the upstream stream. Defaults to DefaultUpstreamURL.
	URL string

	// APIKey authenticates against the upstream. When empty, the
	// AISSTREAM_API_KEY environment variable is consulted.
	APIKey string

	// ReconnectDelay between connection attempts. Defaults to
	// DefaultReconnectDelay.
	ReconnectDelay time.Duration

	// ReleaseTimeout bounds the final relay shutdown wait. Defaults to
	// DefaultReleaseTimeout.
	ReleaseTimeout time.Duration

	// BoundingBoxes restrict the upstream subscription. Defaults to the
	// whole globe.
	BoundingBoxes [][][]float64

	// Snapshots, when set, receives the latest report per vessel.
	Snapshots snapshot.Store[Report]

	Logger   *slog.Logger
	Registry *metric.Registry
}

func (c Config) withDefaults() Config {
	if c.URL == "" {
		c.URL = DefaultUpstreamURL
	}
	if c.APIKey == "" {
		c.APIKey = os.Getenv("AISSTREAM_API_KEY")
	}
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = DefaultReconnectDelay
	}
	if c.ReleaseTimeout <= 0 {
		c.ReleaseTimeout = DefaultReleaseTimeout
	}
	if len(c.BoundingBoxes) == 0 {
		c.BoundingBoxes = [][][]float64{{{-90, -180}, {90, 180}}}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Manager refcounts access to the upstream stream. The relay runs while
// at least one consumer holds a subscription and is torn down when the
// last one releases, so an idle process keeps no upstream connection.
type Manager struct {
	cfg    Config
	logger *slog.Logger
	core   *metric.Metrics

	mu      sync.Mutex
	clients int
	hub     *Hub
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewManager creates a manager. The upstream connection is not opened
// until the first Acquire.
func NewManager(cfg Config) (*Manager, error) {
	cfg = cfg.withDefaults()
	if cfg.APIKey == "" {
		return nil, errors.WrapFatal(errors.ErrNoCredentials, "Manager", "New", "API key lookup")
	}

	m := &Manager{
		cfg:    cfg,
		logger: cfg.Logger.With("component", "aisstream"),
	}
	if cfg.Registry != nil {
		m.core = cfg.Registry.CoreMetrics()
	}
	return m, nil
}

// Acquire subscribes a new consumer, starting the upstream relay if
// this is the first one.
func (m *Manager) Acquire() (*Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.clients == 0 {
		m.hub = NewHub()
		ctx, cancel := context.WithCancel(context.Background())
		m.cancel = cancel
		m.done = make(chan struct{})
		go m.relay(ctx, m.hub, m.done)
	}

	sub, err := m.hub.Subscribe()
	if err != nil {
		if m.clients == 0 {
			m.stopRelayLocked()
		}
		return nil, err
	}

	m.clients++
	m.recordClients()
	m.logger.Debug("consumer acquired stream", "clients", m.clients)
	return sub, nil
}

// Release drops a consumer's subscription. When the last consumer
// releases, the upstream relay is stopped with a bounded wait.
func (m *Manager) Release(sub *Subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.clients == 0 {
		return
	}

	m.hub.unsubscribe(sub)
	m.clients--
	m.recordClients()
	m.logger.Debug("consumer released stream", "clients", m.clients)

	if m.clients == 0 {
		m.stopRelayLocked()
	}
}

// Clients returns the number of active consumers.
func (m *Manager) Clients() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clients
}

func (m *Manager) stopRelayLocked() {
	m.cancel()
	select {
	case <-m.done:
	case <-time.After(m.cfg.ReleaseTimeout):
		m.logger.Warn("relay did not exit before release timeout")
	}
	m.hub.Close()
	m.hub = nil
	m.cancel = nil
	m.done = nil
}

func (m *Manager) recordClients() {
	if m.core != nil {
		m.core.RecordStreamClients(m.clients)
	}
}
