package aisstream

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/c360/marlink/errors"
	"github.com/c360/marlink/pkg/retry"
)

// subscribeRequest is the upstream subscription payload. An empty MMSI
// filter means all vessels.
type subscribeRequest struct {
	APIKey        string        `json:"Apikey"`
	BoundingBoxes [][][]float64 `json:"BoundingBoxes"`
	FilterMMSI    []string      `json:"FiltersShipMMSI"`
}

// relay keeps one upstream connection alive, reconnecting on failure
// until ctx is cancelled. Each received frame is parsed and fanned out
// through the hub.
func (m *Manager) relay(ctx context.Context, hub *Hub, done chan struct{}) {
	defer close(done)

	first := true
	_ = retry.Forever(ctx, m.cfg.ReconnectDelay, func() error {
		if !first {
			if m.core != nil {
				m.core.RecordStreamReconnect()
			}
			m.logger.Info("reconnecting to upstream stream", "url", m.cfg.URL)
		}
		first = false

		err := m.connectAndStream(ctx, hub)
		if err != nil && ctx.Err() == nil {
			m.logger.Warn("upstream stream interrupted", "error", err)
			if m.core != nil {
				m.core.RecordError("aisstream", errors.Classify(err).String())
			}
		}
		return err
	})
}

// connectAndStream runs one connection attempt: dial, subscribe, then
// pump frames until the connection drops or ctx is cancelled.
func (m *Manager) connectAndStream(ctx context.Context, hub *Hub) error {
	dialer := websocket.Dialer{}
	conn, resp, err := dialer.DialContext(ctx, m.cfg.URL, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == 401 {
			return retry.NonRetryable(errors.WrapFatal(err, "aisstream", "connect", "authentication"))
		}
		return errors.WrapTransient(err, "aisstream", "connect", "dial")
	}

	// Unblock ReadMessage when the last consumer releases
	closed := make(chan struct{})
	defer close(closed)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-closed:
			_ = conn.Close()
		}
	}()

	sub := subscribeRequest{
		APIKey:        m.cfg.APIKey,
		BoundingBoxes: m.cfg.BoundingBoxes,
		FilterMMSI:    []string{},
	}
	payload, err := json.Marshal(sub)
	if err != nil {
		return retry.NonRetryable(errors.WrapFatal(err, "aisstream", "subscribe", "payload encoding"))
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return errors.WrapTransient(errors.ErrSubscriptionFailed, "aisstream", "subscribe", "send")
	}

	m.logger.Info("connected to upstream stream", "url", m.cfg.URL)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return retry.NonRetryable(ctx.Err())
			}
			return errors.WrapTransient(errors.ErrConnectionLost, "aisstream", "read", "frame read")
		}

		// The upstream signals subscription problems as plain text
		if rejected, reason := subscriptionError(data); rejected {
			return retry.NonRetryable(errors.WrapFatal(
				fmt.Errorf("%w: %s", errors.ErrSubscriptionFailed, reason),
				"aisstream", "subscribe", "upstream rejection"))
		}

		report := ParseReport(data)
		if report == nil {
			continue
		}

		hub.Publish(*report)

		if m.cfg.Snapshots != nil && report.MMSI != 0 {
			key := fmt.Sprintf("%d", report.MMSI)
			if err := m.cfg.Snapshots.Put(ctx, key, *report); err != nil {
				m.logger.Debug("snapshot store rejected report", "mmsi", report.MMSI, "error", err)
			}
		}
	}
}

// subscriptionError detects upstream error frames, which arrive as
// JSON with an "error" field instead of a vessel message.
func subscriptionError(data []byte) (bool, string) {
	var frame struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &frame); err != nil {
		return false, ""
	}
	if frame.Error == "" {
		return false, ""
	}
	return true, strings.TrimSpace(frame.Error)
}
