package component

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// LogLevel represents the severity level of a log entry
type LogLevel string

const (
	// LogLevelDebug represents debug-level logs
	LogLevelDebug LogLevel = "DEBUG"
	// LogLevelInfo represents informational logs
	LogLevelInfo LogLevel = "INFO"
	// LogLevelWarn represents warning logs
	LogLevelWarn LogLevel = "WARN"
	// LogLevelError represents error logs
	LogLevelError LogLevel = "ERROR"
)

// LogEntry is a structured log entry published to NATS for remote
// consumption alongside local slog output.
type LogEntry struct {
	Timestamp string   `json:"timestamp"` // RFC3339 format
	Level     LogLevel `json:"level"`
	Component string   `json:"component"`
	Message   string   `json:"message"`
	Detail    string   `json:"detail,omitempty"` // error details
}

// LogSink receives serialized log entries on a subject. *nats.Conn and
// *natsclient.Client both satisfy it.
type LogSink interface {
	Publish(subject string, data []byte) error
}

// Logger wraps a slog.Logger for local logging and optionally mirrors
// entries onto a sink under marlink.logs.<component>.
type Logger struct {
	componentName string
	sink          LogSink
	logger        *slog.Logger
	enabled       bool // whether sink publishing is enabled
}

// NewLogger creates a component logger. sink may be nil to disable
// mirroring; logger may be nil to disable local output.
func NewLogger(componentName string, sink LogSink, logger *slog.Logger) *Logger {
	return &Logger{
		componentName: componentName,
		sink:          sink,
		logger:        logger,
		enabled:       sink != nil,
	}
}

// Debug logs a debug-level message
func (cl *Logger) Debug(msg string) {
	cl.publish(context.Background(), LogLevelDebug, msg, "")
	if cl.logger != nil {
		cl.logger.Debug(msg, "component", cl.componentName)
	}
}

// Info logs an info-level message
func (cl *Logger) Info(msg string) {
	cl.publish(context.Background(), LogLevelInfo, msg, "")
	if cl.logger != nil {
		cl.logger.Info(msg, "component", cl.componentName)
	}
}

// Warn logs a warning-level message
func (cl *Logger) Warn(msg string) {
	cl.publish(context.Background(), LogLevelWarn, msg, "")
	if cl.logger != nil {
		cl.logger.Warn(msg, "component", cl.componentName)
	}
}

// Error logs an error-level message with optional error details
func (cl *Logger) Error(msg string, err error) {
	detail := ""
	if err != nil {
		detail = fmt.Sprintf("%+v", err)
	}
	cl.publish(context.Background(), LogLevelError, msg, detail)
	if cl.logger != nil {
		cl.logger.Error(msg, "component", cl.componentName, "error", err)
	}
}

func (cl *Logger) publish(ctx context.Context, level LogLevel, message, detail string) {
	if !cl.enabled {
		return
	}

	select {
	case <-ctx.Done():
		return
	default:
	}

	entry := LogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     level,
		Component: cl.componentName,
		Message:   message,
		Detail:    detail,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		if cl.logger != nil {
			cl.logger.Error("Failed to marshal log entry", "error", err)
		}
		return
	}

	subject := fmt.Sprintf("marlink.logs.%s", cl.componentName)
	if err := cl.sink.Publish(subject, data); err != nil {
		if cl.logger != nil {
			cl.logger.Error("Failed to publish log entry", "error", err, "subject", subject)
		}
	}
}
