// Package datalink provides receive-only data link providers for marine
// telemetry. A provider owns one transport connection (serial, TCP, UDP,
// or file replay), runs a receiver goroutine that parses incoming
// sentences, and buffers the resulting messages in a bounded drop-oldest
// ring for the consumer to drain.
package datalink

import (
	"time"
)

// Transport kinds accepted by ConnectionConfig.Kind.
const (
	KindSerial = "serial"
	KindTCP    = "tcp"
	KindUDP    = "udp"
	KindFile   = "file"
)

// ConnectionConfig describes how a provider should connect.
type ConnectionConfig struct {
	Kind          string            `json:"kind"`
	Parameters    map[string]string `json:"parameters"`
	Timeout       time.Duration     `json:"timeout"`
	AutoReconnect bool              `json:"auto_reconnect"`
}

// NewConnectionConfig creates a config for the given transport kind.
func NewConnectionConfig(kind string) ConnectionConfig {
	return ConnectionConfig{
		Kind:       kind,
		Parameters: make(map[string]string),
		Timeout:    10 * time.Second,
	}
}

// WithParameter returns a copy of the config with the parameter set.
func (c ConnectionConfig) WithParameter(key, value string) ConnectionConfig {
	out := c
	out.Parameters = make(map[string]string, len(c.Parameters)+1)
	for k, v := range c.Parameters {
		out.Parameters[k] = v
	}
	out.Parameters[key] = value
	return out
}

// WithTimeout returns a copy of the config with the timeout set.
func (c ConnectionConfig) WithTimeout(timeout time.Duration) ConnectionConfig {
	out := c
	out.Timeout = timeout
	return out
}

// WithAutoReconnect returns a copy of the config with auto reconnect set.
func (c ConnectionConfig) WithAutoReconnect(enabled bool) ConnectionConfig {
	out := c
	out.AutoReconnect = enabled
	return out
}

// State is the connection state of a data link.
type State int

const (
	// StateDisconnected is the initial and post-Disconnect state.
	StateDisconnected State = iota
	// StateConnecting covers config validation and receiver startup.
	StateConnecting
	// StateConnected means the receiver goroutine is running.
	StateConnected
	// StateFailed means a connect attempt was rejected.
	StateFailed
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Status is the observable connection status of a provider.
type Status struct {
	State  State  `json:"state"`
	Reason string `json:"reason,omitempty"`
}
