package aisstream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/c360/marlink/component"
	"github.com/c360/marlink/errors"
	"github.com/c360/marlink/metric"
)

// Greeting sent to every downstream client on connect.
const Greeting = "Connected to AIS stream"

// DefaultWriteTimeout bounds each downstream write.
const DefaultWriteTimeout = 10 * time.Second

// ServerConfig holds configuration for the downstream WebSocket server.
type ServerConfig struct {
	Name         string // Component name (empty = auto-generate)
	Port         int    // Listen port
	Path         string // WebSocket endpoint path
	WriteTimeout time.Duration
	Manager      *Manager
	Logger       *slog.Logger
	Registry     *metric.Registry
}

// DefaultServerConfig returns sensible defaults for Server construction.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:         8081,
		Path:         "/ws",
		WriteTimeout: DefaultWriteTimeout,
	}
}

// clientConn holds per-connection state for a downstream client.
type clientConn struct {
	id          string
	conn        *websocket.Conn
	connectedAt time.Time
	closed      atomic.Bool
	closeOnce   sync.Once
	writeMutex  sync.Mutex // gorilla/websocket panics on concurrent writes

	filterMu sync.Mutex
	filter   *BoundingBox // nil means no geo filter
}

func (c *clientConn) setFilter(box *BoundingBox) {
	c.filterMu.Lock()
	c.filter = box
	c.filterMu.Unlock()
}

func (c *clientConn) wants(report Report) bool {
	c.filterMu.Lock()
	defer c.filterMu.Unlock()
	if c.filter == nil {
		return true
	}
	return c.filter.Contains(report)
}

// controlMessage is the downstream client control protocol. A
// set_bounding_box without a box clears the filter; anything else is
// echoed back.
type controlMessage struct {
	Type        string       `json:"type"`
	BoundingBox *BoundingBox `json:"bounding_box,omitempty"`
}

// Server exposes the shared upstream stream to downstream WebSocket
// clients. Each connection acquires the manager once, holds its own
// subscription, and releases it exactly once on disconnect.
type Server struct {
	name         string
	port         int
	path         string
	writeTimeout time.Duration
	manager      *Manager
	logger       *slog.Logger
	core         *metric.Metrics

	server    *http.Server
	upgrader  websocket.Upgrader
	clients   map[string]*clientConn
	clientsMu sync.RWMutex

	shutdown    chan struct{}
	running     bool
	startTime   time.Time
	mu          sync.RWMutex
	lifecycleMu sync.Mutex
	wg          *sync.WaitGroup

	messagesSent int64
	bytesSent    int64
	errorCount   int64
	lastActivity time.Time
}

var _ component.Discoverable = (*Server)(nil)
var _ component.LifecycleComponent = (*Server)(nil)

// NewServer creates a downstream WebSocket server.
func NewServer(cfg ServerConfig) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}

	s := &Server{
		name:         cfg.Name,
		port:         cfg.Port,
		path:         cfg.Path,
		writeTimeout: cfg.WriteTimeout,
		manager:      cfg.Manager,
		logger:       cfg.Logger.With("component", "aisstream-server"),
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(_ *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients:   make(map[string]*clientConn),
		startTime: time.Now(),
	}
	if cfg.Registry != nil {
		s.core = cfg.Registry.CoreMetrics()
	}
	return s
}

// Meta returns the component metadata.
func (s *Server) Meta() component.Metadata {
	name := s.name
	if name == "" {
		name = fmt.Sprintf("aisstream-server-%d", s.port)
	}
	return component.Metadata{
		Name:        name,
		Type:        "output",
		Description: fmt.Sprintf("WebSocket server on %s:%d relaying vessel reports", s.path, s.port),
		Version:     "1.0.0",
	}
}

// Health returns the current health status.
func (s *Server) Health() component.HealthStatus {
	s.mu.RLock()
	running := s.running
	serverUp := s.server != nil
	s.mu.RUnlock()

	return component.HealthStatus{
		Healthy:    running && serverUp,
		LastCheck:  time.Now(),
		ErrorCount: int(atomic.LoadInt64(&s.errorCount)),
		Uptime:     time.Since(s.startTime),
	}
}

// DataFlow returns throughput metrics.
func (s *Server) DataFlow() component.FlowMetrics {
	messages := atomic.LoadInt64(&s.messagesSent)
	bytes := atomic.LoadInt64(&s.bytesSent)
	errCount := atomic.LoadInt64(&s.errorCount)

	s.mu.RLock()
	lastActivity := s.lastActivity
	s.mu.RUnlock()

	var perSecond, bytesPerSecond, errorRate float64
	if uptime := time.Since(s.startTime).Seconds(); uptime > 0 {
		perSecond = float64(messages) / uptime
		bytesPerSecond = float64(bytes) / uptime
	}
	if messages > 0 {
		errorRate = float64(errCount) / float64(messages)
	}

	return component.FlowMetrics{
		MessagesPerSecond: perSecond,
		BytesPerSecond:    bytesPerSecond,
		ErrorRate:         errorRate,
		LastActivity:      lastActivity,
	}
}

// Initialize validates configuration without starting the server.
func (s *Server) Initialize() error {
	if s.port < 1024 || s.port > 65535 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Server", "Initialize",
			fmt.Sprintf("port %d out of range 1024-65535", s.port))
	}
	if s.path == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Server", "Initialize", "endpoint path required")
	}
	if s.manager == nil {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Server", "Initialize", "stream manager required")
	}
	return nil
}

// Start begins serving downstream clients.
func (s *Server) Start(ctx context.Context) error {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "Server", "Start", "state check")
	}
	if ctx == nil {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Server", "Start", "context cannot be nil")
	}
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "Server", "Start", "context check")
	}

	mux := http.NewServeMux()
	mux.HandleFunc(s.path, s.handleWebSocket)
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.shutdown = make(chan struct{})
	s.wg = &sync.WaitGroup{}
	s.running = true
	s.startTime = time.Now()

	s.wg.Add(1)
	go s.runServer()

	s.logger.Info("downstream server started", "port", s.port, "path", s.path)
	return nil
}

// Stop shuts down the server and closes every client connection.
func (s *Server) Stop(timeout time.Duration) error {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.shutdown)
	server := s.server
	wg := s.wg
	s.mu.Unlock()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("server shutdown error", "error", err)
	}

	s.closeAllClients()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		s.logger.Warn("client goroutines did not exit before timeout")
	}

	s.mu.Lock()
	s.server = nil
	s.wg = nil
	s.mu.Unlock()

	s.logger.Info("downstream server stopped")
	return nil
}

func (s *Server) runServer() {
	defer s.wg.Done()

	err := s.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		s.logger.Error("server failed", "error", err)
		atomic.AddInt64(&s.errorCount, 1)
	}
}

// ClientCount returns the number of connected downstream clients.
func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

func (s *Server) closeAllClients() {
	s.clientsMu.Lock()
	clients := make([]*clientConn, 0, len(s.clients))
	for _, client := range s.clients {
		clients = append(clients, client)
	}
	s.clients = make(map[string]*clientConn)
	s.clientsMu.Unlock()

	for _, client := range clients {
		client.closeOnce.Do(func() {
			client.closed.Store(true)
			_ = client.conn.Close()
		})
	}
}

func (s *Server) removeClient(client *clientConn) {
	client.closeOnce.Do(func() {
		client.closed.Store(true)

		s.clientsMu.Lock()
		delete(s.clients, client.id)
		s.clientsMu.Unlock()

		_ = client.conn.Close()
		s.logger.Debug("client disconnected", "client", client.id,
			"duration", time.Since(client.connectedAt))
	})
}

// handleWebSocket upgrades a connection and runs its read and write
// loops. The manager is acquired once per connection and released
// exactly once when both loops are finished.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		atomic.AddInt64(&s.errorCount, 1)
		return
	}

	sub, err := s.manager.Acquire()
	if err != nil {
		s.logger.Warn("stream acquisition failed", "error", err)
		atomic.AddInt64(&s.errorCount, 1)
		_ = conn.Close()
		return
	}

	client := &clientConn{
		id:          uuid.New().String(),
		conn:        conn,
		connectedAt: time.Now(),
	}

	s.clientsMu.Lock()
	s.clients[client.id] = client
	s.clientsMu.Unlock()

	s.logger.Debug("client connected", "client", client.id, "remote", r.RemoteAddr)

	if err := s.writeText(client, []byte(Greeting)); err != nil {
		s.removeClient(client)
		s.manager.Release(sub)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	s.mu.RLock()
	wg := s.wg
	s.mu.RUnlock()

	wg.Add(2)
	go func() {
		defer wg.Done()
		s.pumpReports(ctx, client, sub)
		cancel()
		// Closing the connection unblocks readControl's pending read, so
		// a write failure cannot leave the subscription held forever
		s.removeClient(client)
	}()
	go func() {
		defer wg.Done()
		defer func() {
			cancel()
			s.removeClient(client)
			s.manager.Release(sub)
		}()
		s.readControl(ctx, client)
	}()
}

// pumpReports forwards subscription reports that pass the client's
// filter until the subscription or the connection ends.
func (s *Server) pumpReports(ctx context.Context, client *clientConn, sub *Subscription) {
	for {
		report, skipped, err := sub.Recv(ctx)
		if err != nil {
			return
		}
		if skipped > 0 {
			s.logger.Debug("client lagged", "client", client.id, "skipped", skipped)
		}
		if !client.wants(report) {
			continue
		}

		data, err := json.Marshal(report)
		if err != nil {
			atomic.AddInt64(&s.errorCount, 1)
			continue
		}
		if err := s.writeText(client, data); err != nil {
			return
		}

		atomic.AddInt64(&s.messagesSent, 1)
		atomic.AddInt64(&s.bytesSent, int64(len(data)))
		if s.core != nil {
			s.core.RecordReportPublished("aisstream-server", "websocket")
		}
		s.mu.Lock()
		s.lastActivity = time.Now()
		s.mu.Unlock()
	}
}

// readControl processes client control messages until the connection
// closes or the server shuts down.
func (s *Server) readControl(ctx context.Context, client *clientConn) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.shutdown:
			return
		default:
		}

		_, data, err := client.conn.ReadMessage()
		if err != nil {
			return
		}

		var ctrl controlMessage
		if err := json.Unmarshal(data, &ctrl); err == nil && ctrl.Type == "set_bounding_box" {
			client.setFilter(ctrl.BoundingBox)
			if ctrl.BoundingBox == nil {
				s.logger.Debug("client cleared filter", "client", client.id)
			} else {
				s.logger.Debug("client set filter", "client", client.id,
					"sw_lat", ctrl.BoundingBox.SwLat, "sw_lon", ctrl.BoundingBox.SwLon,
					"ne_lat", ctrl.BoundingBox.NeLat, "ne_lon", ctrl.BoundingBox.NeLon)
			}
			continue
		}

		if err := s.writeText(client, []byte("Echo: "+string(data))); err != nil {
			return
		}
	}
}

func (s *Server) writeText(client *clientConn, data []byte) error {
	client.writeMutex.Lock()
	defer client.writeMutex.Unlock()

	_ = client.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	return client.conn.WriteMessage(websocket.TextMessage, data)
}
