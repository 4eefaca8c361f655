package datalink

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/marlink/component"
	"github.com/c360/marlink/errors"
	"github.com/c360/marlink/message"
)

func TestConnectInvalidConfigFailsSynchronously(t *testing.T) {
	p, err := NewAISProvider()
	require.NoError(t, err)

	err = p.Connect(NewConnectionConfig(KindTCP)) // missing host and port
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))

	// No partial state: still disconnected, nothing buffered
	assert.Equal(t, StateDisconnected, p.Status().State)
	_, ok := p.ReceiveMessage()
	assert.False(t, ok)
}

func TestConnectTwiceRejected(t *testing.T) {
	p, err := NewGPSProvider()
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "positions.nmea")
	require.NoError(t, os.WriteFile(path, []byte("$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47\n"), 0o600))

	cfg := NewConnectionConfig(KindFile).
		WithParameter("path", path).
		WithParameter("replay_speed", "100.0")
	require.NoError(t, p.Connect(cfg))
	defer func() { _ = p.Disconnect() }()

	err = p.Connect(cfg)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrAlreadyConnected))
}

func TestFileReplayDeliversMessages(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "replay.nmea")
	content := "$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47\n" +
		"$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A\n" +
		"not a sentence\n" +
		"$GPVTG,084.4,T,077.8,M,022.4,N,041.1,K*43\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	p, err := NewGPSProvider()
	require.NoError(t, err)

	cfg := NewConnectionConfig(KindFile).
		WithParameter("path", path).
		WithParameter("replay_speed", "100.0")
	require.NoError(t, p.Connect(cfg))
	defer func() { _ = p.Disconnect() }()

	assert.Equal(t, StateConnected, p.Status().State)

	var received []message.Message
	require.Eventually(t, func() bool {
		received = append(received, p.ReceiveAllMessages()...)
		return len(received) >= 3
	}, 3*time.Second, 10*time.Millisecond)

	// The malformed line was dropped silently
	assert.Len(t, received, 3)
	assert.Equal(t, message.KindGPSPosition, received[0].Kind)
	assert.Equal(t, message.KindGPSVelocity, received[1].Kind)
	assert.Equal(t, message.KindGPSTrack, received[2].Kind)
}

func TestTCPReceiver(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = ln.Close() }()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer func() { _ = conn.Close() }()
		_, _ = conn.Write([]byte("!AIVDM,1,1,,A,15M67FC000G?WopE`beasVk@0E5:,0*5B\n"))
		_, _ = conn.Write([]byte("!AIVDO,1,1,,B,13u?etPv2;0n:dDPwUM1U1Cb069D,0*24\n"))
	}()

	p, err := NewAISProvider()
	require.NoError(t, err)

	host, port, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)

	cfg := NewConnectionConfig(KindTCP).
		WithParameter("host", host).
		WithParameter("port", port)
	require.NoError(t, p.Connect(cfg))
	defer func() { _ = p.Disconnect() }()

	var received []message.Message
	require.Eventually(t, func() bool {
		received = append(received, p.ReceiveAllMessages()...)
		return len(received) >= 2
	}, 3*time.Second, 10*time.Millisecond)

	v, ok := received[0].Field("sentence_type")
	require.True(t, ok)
	assert.Equal(t, "AIVDM", v)
}

func TestUDPReceiver(t *testing.T) {
	// Reserve a free port, then hand it to the provider
	probe, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	port := probe.LocalAddr().(*net.UDPAddr).Port
	require.NoError(t, probe.Close())

	p, err := NewRadarProvider()
	require.NoError(t, err)

	cfg := NewConnectionConfig(KindUDP).
		WithParameter("bind_addr", "127.0.0.1").
		WithParameter("port", fmt.Sprintf("%d", port))
	require.NoError(t, p.Connect(cfg))
	defer func() { _ = p.Disconnect() }()

	conn, err := net.Dial("udp", fmt.Sprintf("127.0.0.1:%d", port))
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	var msg message.Message
	require.Eventually(t, func() bool {
		// Keep sending; the listener may not be up for the first datagram
		_, _ = conn.Write([]byte("$RADTG,2.5,120.0,15.2,085.0,1.8*4A\n"))
		m, ok := p.ReceiveMessage()
		if ok {
			msg = m
		}
		return ok
	}, 3*time.Second, 20*time.Millisecond)

	assert.Equal(t, message.KindRadarTarget, msg.Kind)
}

func TestDisconnectStopsReplayMidDelay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "slow.nmea")
	content := "$RADST,TRANSMIT,OK*3E\n$RADST,STANDBY,OK*2F\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	p, err := NewRadarProvider()
	require.NoError(t, err)

	// 0.1x replay means 10 seconds between lines
	cfg := NewConnectionConfig(KindFile).
		WithParameter("path", path).
		WithParameter("replay_speed", "0.1")
	require.NoError(t, p.Connect(cfg))

	require.Eventually(t, func() bool {
		_, ok := p.ReceiveMessage()
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	start := time.Now()
	require.NoError(t, p.Disconnect())
	assert.Less(t, time.Since(start), 2*time.Second, "disconnect should interrupt the replay delay")
	assert.Equal(t, StateDisconnected, p.Status().State)
}

func TestSendMessageUnsupported(t *testing.T) {
	p, err := NewAISProvider()
	require.NoError(t, err)

	err = p.SendMessage(message.New(message.KindAISSentence, "test", nil))
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrSendUnsupported))
	assert.Contains(t, err.Error(), "transmission")
}

func TestDisconnectWhenNotConnected(t *testing.T) {
	p, err := NewGPSProvider()
	require.NoError(t, err)
	require.NoError(t, p.Disconnect())
	assert.Equal(t, StateDisconnected, p.Status().State)
}

type recordedLog struct {
	subject string
	data    []byte
}

type recordingLogSink struct {
	mu      sync.Mutex
	entries []recordedLog
}

func (r *recordingLogSink) Publish(subject string, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, recordedLog{subject: subject, data: data})
	return nil
}

func (r *recordingLogSink) all() []recordedLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedLog(nil), r.entries...)
}

func TestLogMirrorPublishesLifecycle(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "positions.nmea")
	require.NoError(t, os.WriteFile(path, []byte("$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47\n"), 0o600))

	sink := &recordingLogSink{}
	p, err := NewGPSProvider(WithLogMirror(sink))
	require.NoError(t, err)

	cfg := NewConnectionConfig(KindFile).
		WithParameter("path", path).
		WithParameter("replay_speed", "100.0")
	require.NoError(t, p.Connect(cfg))
	require.NoError(t, p.Disconnect())

	entries := sink.all()
	require.Len(t, entries, 2)

	for _, e := range entries {
		assert.Equal(t, "marlink.logs.gps", e.subject)
	}

	var connected, disconnected component.LogEntry
	require.NoError(t, json.Unmarshal(entries[0].data, &connected))
	require.NoError(t, json.Unmarshal(entries[1].data, &disconnected))
	assert.Equal(t, component.LogLevelInfo, connected.Level)
	assert.Contains(t, connected.Message, "connected")
	assert.Contains(t, disconnected.Message, "disconnected")
}

func TestLogMirrorPublishesErrors(t *testing.T) {
	sink := &recordingLogSink{}
	p, err := NewAISProvider(WithLogMirror(sink))
	require.NoError(t, err)

	require.Error(t, p.Connect(NewConnectionConfig("bogus")))

	entries := sink.all()
	require.Len(t, entries, 1)

	var entry component.LogEntry
	require.NoError(t, json.Unmarshal(entries[0].data, &entry))
	assert.Equal(t, component.LogLevelError, entry.Level)
	assert.NotEmpty(t, entry.Detail)
}

func TestProviderDiscoverable(t *testing.T) {
	p, err := NewAISProvider()
	require.NoError(t, err)

	meta := p.Meta()
	assert.Equal(t, "ais", meta.Name)
	assert.Equal(t, "input", meta.Type)

	health := p.Health()
	assert.True(t, health.Healthy)
	assert.Zero(t, health.ErrorCount)

	// A rejected connect is visible in health
	_ = p.Connect(NewConnectionConfig("bogus"))
	health = p.Health()
	assert.Equal(t, 1, health.ErrorCount)
	assert.NotEmpty(t, health.LastError)
}
