package datalink

import (
	"fmt"
	"strconv"

	"github.com/c360/marlink/errors"
)

// Source is the validated, transport-specific form of a ConnectionConfig.
// Exactly one of the concrete types below is produced by ParseSource.
type Source interface {
	transport() string
}

// SerialSource reads sentences from a serial port.
type SerialSource struct {
	Port     string
	BaudRate int
}

func (SerialSource) transport() string { return KindSerial }

// TCPSource connects to a remote sentence feed as a client.
type TCPSource struct {
	Host string
	Port int
}

func (TCPSource) transport() string { return KindTCP }

// UDPSource listens for sentence datagrams.
type UDPSource struct {
	BindAddr string
	Port     int
}

func (UDPSource) transport() string { return KindUDP }

// FileSource replays sentences from a file at a paced rate.
type FileSource struct {
	Path        string
	ReplaySpeed float64
}

func (FileSource) transport() string { return KindFile }

// TransportDefaults carries the per-domain parameter defaults applied
// during config parsing. An empty SerialBaud makes baud_rate required.
type TransportDefaults struct {
	SerialBaud string
}

// ParseSource validates a ConnectionConfig and resolves it into a Source.
// All validation happens here, before any connection state changes, so a
// bad config fails synchronously and leaves no partial state.
func ParseSource(cfg ConnectionConfig, defaults TransportDefaults) (Source, error) {
	switch cfg.Kind {
	case KindSerial:
		port, ok := cfg.Parameters["port"]
		if !ok || port == "" {
			return nil, errors.WrapInvalid(errors.ErrMissingConfig,
				"ConnectionConfig", "ParseSource", "serial port parameter")
		}
		baudStr, ok := cfg.Parameters["baud_rate"]
		if !ok || baudStr == "" {
			if defaults.SerialBaud == "" {
				return nil, errors.WrapInvalid(errors.ErrMissingConfig,
					"ConnectionConfig", "ParseSource", "serial baud_rate parameter")
			}
			baudStr = defaults.SerialBaud
		}
		baud, err := strconv.Atoi(baudStr)
		if err != nil || baud <= 0 {
			return nil, errors.WrapInvalid(errors.ErrInvalidConfig,
				"ConnectionConfig", "ParseSource", fmt.Sprintf("baud_rate %q", baudStr))
		}
		return SerialSource{Port: port, BaudRate: baud}, nil

	case KindTCP:
		host, ok := cfg.Parameters["host"]
		if !ok || host == "" {
			return nil, errors.WrapInvalid(errors.ErrMissingConfig,
				"ConnectionConfig", "ParseSource", "tcp host parameter")
		}
		port, err := parsePort(cfg.Parameters["port"])
		if err != nil {
			return nil, err
		}
		return TCPSource{Host: host, Port: port}, nil

	case KindUDP:
		bindAddr := cfg.Parameters["bind_addr"]
		if bindAddr == "" {
			bindAddr = "0.0.0.0"
		}
		port, err := parsePort(cfg.Parameters["port"])
		if err != nil {
			return nil, err
		}
		return UDPSource{BindAddr: bindAddr, Port: port}, nil

	case KindFile:
		path, ok := cfg.Parameters["path"]
		if !ok || path == "" {
			return nil, errors.WrapInvalid(errors.ErrMissingConfig,
				"ConnectionConfig", "ParseSource", "file path parameter")
		}
		speedStr := cfg.Parameters["replay_speed"]
		if speedStr == "" {
			speedStr = "1.0"
		}
		speed, err := strconv.ParseFloat(speedStr, 64)
		if err != nil || speed <= 0 {
			return nil, errors.WrapInvalid(errors.ErrInvalidConfig,
				"ConnectionConfig", "ParseSource", fmt.Sprintf("replay_speed %q", speedStr))
		}
		return FileSource{Path: path, ReplaySpeed: speed}, nil

	default:
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig,
			"ConnectionConfig", "ParseSource", fmt.Sprintf("unsupported kind %q", cfg.Kind))
	}
}

func parsePort(raw string) (int, error) {
	if raw == "" {
		return 0, errors.WrapInvalid(errors.ErrMissingConfig,
			"ConnectionConfig", "ParseSource", "port parameter")
	}
	port, err := strconv.Atoi(raw)
	if err != nil || port <= 0 || port > 65535 {
		return 0, errors.WrapInvalid(errors.ErrInvalidConfig,
			"ConnectionConfig", "ParseSource", fmt.Sprintf("port %q", raw))
	}
	return port, nil
}
