package datalink

import (
	"bufio"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
	"time"

	"go.bug.st/serial"

	"github.com/c360/marlink/metric"
	"github.com/c360/marlink/message"
	"github.com/c360/marlink/pkg/buffer"
	"github.com/c360/marlink/sentence"
)

// udpReadTimeout bounds each UDP read so the loop can observe shutdown.
const udpReadTimeout = 100 * time.Millisecond

// receiver owns one transport connection and pushes parsed messages into
// the provider's ring until the transport ends or shutdown is signaled.
type receiver struct {
	link     string
	sourceID string
	parse    sentence.ParseFunc
	ring     buffer.Ring[message.Message]
	logger   *slog.Logger
	core     *metric.Metrics // nil when metrics are disabled

	shutdown chan struct{}
	done     chan struct{}
}

func newReceiver(link, sourceID string, parse sentence.ParseFunc,
	ring buffer.Ring[message.Message], logger *slog.Logger, core *metric.Metrics) *receiver {
	return &receiver{
		link:     link,
		sourceID: sourceID,
		parse:    parse,
		ring:     ring,
		logger:   logger,
		core:     core,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// stop signals shutdown and waits for the receiver up to timeout.
func (r *receiver) stop(timeout time.Duration) bool {
	close(r.shutdown)
	select {
	case <-r.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// run dispatches to the transport loop. Always closes done on exit.
func (r *receiver) run(src Source) {
	defer close(r.done)

	switch s := src.(type) {
	case SerialSource:
		r.runSerial(s)
	case TCPSource:
		r.runTCP(s)
	case UDPSource:
		r.runUDP(s)
	case FileSource:
		r.runFile(s)
	}
}

// handleLine parses one raw sentence and buffers the result. Malformed
// lines are counted and dropped silently.
func (r *receiver) handleLine(transport, line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}

	if r.core != nil {
		r.core.RecordSentenceReceived(r.link, transport)
	}

	msg := r.parse(r.sourceID, line)
	if msg == nil {
		if r.core != nil {
			r.core.RecordSentenceDropped(r.link)
		}
		return
	}

	if r.core != nil {
		r.core.RecordSentenceParsed(r.link, string(msg.Kind))
	}
	if err := r.ring.Write(*msg); err != nil {
		r.logger.Debug("ring write rejected", "link", r.link, "error", err)
	}
}

// closeOnShutdown closes c when shutdown fires, unblocking a pending read.
// The returned stop func must be called when the read loop exits.
func (r *receiver) closeOnShutdown(c interface{ Close() error }) func() {
	exited := make(chan struct{})
	go func() {
		select {
		case <-r.shutdown:
			_ = c.Close()
		case <-exited:
		}
	}()
	return func() { close(exited) }
}

func (r *receiver) runSerial(src SerialSource) {
	port, err := serial.Open(src.Port, &serial.Mode{BaudRate: src.BaudRate})
	if err != nil {
		r.logger.Error("serial open failed", "link", r.link, "port", src.Port, "error", err)
		return
	}
	stop := r.closeOnShutdown(port)
	defer stop()
	defer func() { _ = port.Close() }()

	scanner := bufio.NewScanner(port)
	for scanner.Scan() {
		select {
		case <-r.shutdown:
			return
		default:
		}
		r.handleLine(KindSerial, scanner.Text())
	}

	if err := scanner.Err(); err != nil && !r.shuttingDown() {
		r.logger.Error("serial read failed", "link", r.link, "port", src.Port, "error", err)
	}
}

func (r *receiver) runTCP(src TCPSource) {
	addr := net.JoinHostPort(src.Host, fmt.Sprintf("%d", src.Port))
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		r.logger.Error("tcp connect failed", "link", r.link, "addr", addr, "error", err)
		return
	}
	stop := r.closeOnShutdown(conn)
	defer stop()
	defer func() { _ = conn.Close() }()

	r.logger.Info("tcp stream connected", "link", r.link, "addr", addr)

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		select {
		case <-r.shutdown:
			return
		default:
		}
		r.handleLine(KindTCP, scanner.Text())
	}

	// Scanner stops on EOF (remote close) or a read error
	if err := scanner.Err(); err != nil && !r.shuttingDown() {
		r.logger.Error("tcp read failed", "link", r.link, "addr", addr, "error", err)
	}
}

func (r *receiver) runUDP(src UDPSource) {
	addr := &net.UDPAddr{IP: net.ParseIP(src.BindAddr), Port: src.Port}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		r.logger.Error("udp listen failed", "link", r.link, "addr", addr.String(), "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	r.logger.Info("udp listener started", "link", r.link, "addr", conn.LocalAddr().String())

	buf := make([]byte, 2048)
	for {
		select {
		case <-r.shutdown:
			return
		default:
		}

		// Short deadline keeps the loop responsive to shutdown
		if err := conn.SetReadDeadline(time.Now().Add(udpReadTimeout)); err != nil {
			r.logger.Error("udp set deadline failed", "link", r.link, "error", err)
			return
		}

		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			if !r.shuttingDown() {
				r.logger.Error("udp read failed", "link", r.link, "error", err)
			}
			return
		}

		// A datagram may carry several newline-separated sentences
		for _, line := range strings.Split(string(buf[:n]), "\n") {
			r.handleLine(KindUDP, line)
		}
	}
}

func (r *receiver) runFile(src FileSource) {
	f, err := os.Open(src.Path)
	if err != nil {
		r.logger.Error("file open failed", "link", r.link, "path", src.Path, "error", err)
		return
	}
	defer func() { _ = f.Close() }()

	// 1x replay is one sentence per second
	delay := time.Duration(float64(time.Second) / src.ReplaySpeed)
	timer := time.NewTimer(delay)
	defer timer.Stop()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		r.handleLine(KindFile, scanner.Text())

		select {
		case <-r.shutdown:
			return
		case <-timer.C:
		}
		timer.Reset(delay)
	}

	if err := scanner.Err(); err != nil {
		r.logger.Error("file read failed", "link", r.link, "path", src.Path, "error", err)
		return
	}
	r.logger.Info("file replay complete", "link", r.link, "path", src.Path)
}

func (r *receiver) shuttingDown() bool {
	select {
	case <-r.shutdown:
		return true
	default:
		return false
	}
}
