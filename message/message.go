// Package message defines the normalized telemetry message produced by
// sentence parsers and carried through data link buffers. Messages are
// value types built with a chainable builder and treated as immutable once
// handed off.
package message

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Kind identifies the semantic type of a telemetry message.
type Kind string

// Message kinds produced by the sentence parsers.
const (
	KindAISSentence Kind = "AIS_SENTENCE"
	KindGPSPosition Kind = "GPS_GGA"
	KindGPSVelocity Kind = "GPS_RMC"
	KindGPSGeo      Kind = "GPS_GLL"
	KindGPSTrack    Kind = "GPS_VTG"
	KindRadarTarget Kind = "RADAR_TARGET"
	KindRadarScan   Kind = "RADAR_SCAN"
	KindRadarConfig Kind = "RADAR_CONFIG"
	KindRadarStatus Kind = "RADAR_STATUS"
)

// Message is one normalized telemetry item. Fields preserve their insertion
// order so serialized output is stable. Quality, when present, is a signal
// quality indicator clamped to [0, 100].
type Message struct {
	ID        string
	Kind      Kind
	SourceID  string
	CreatedAt time.Time
	Payload   []byte

	keys    []string
	fields  map[string]string
	quality *int
}

// New creates a message of the given kind with the raw payload attached.
func New(kind Kind, sourceID string, payload []byte) Message {
	return Message{
		ID:        uuid.NewString(),
		Kind:      kind,
		SourceID:  sourceID,
		CreatedAt: time.Now().UTC(),
		Payload:   payload,
		fields:    make(map[string]string),
	}
}

// WithField returns a copy of the message with the field set. Setting an
// existing key overwrites the value but keeps the key's original position.
func (m Message) WithField(key, value string) Message {
	out := m.clone()
	if _, exists := out.fields[key]; !exists {
		out.keys = append(out.keys, key)
	}
	out.fields[key] = value
	return out
}

// WithQuality returns a copy of the message with the signal quality set,
// clamped to [0, 100].
func (m Message) WithQuality(quality int) Message {
	if quality < 0 {
		quality = 0
	}
	if quality > 100 {
		quality = 100
	}
	out := m.clone()
	out.quality = &quality
	return out
}

func (m Message) clone() Message {
	out := m
	out.keys = make([]string, len(m.keys))
	copy(out.keys, m.keys)
	out.fields = make(map[string]string, len(m.fields))
	for k, v := range m.fields {
		out.fields[k] = v
	}
	return out
}

// Field returns the value for key and whether it is present.
func (m Message) Field(key string) (string, bool) {
	v, ok := m.fields[key]
	return v, ok
}

// Keys returns the field keys in insertion order.
func (m Message) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Fields returns a copy of all fields.
func (m Message) Fields() map[string]string {
	out := make(map[string]string, len(m.fields))
	for k, v := range m.fields {
		out[k] = v
	}
	return out
}

// Quality returns the signal quality and whether it was set.
func (m Message) Quality() (int, bool) {
	if m.quality == nil {
		return 0, false
	}
	return *m.quality, true
}

// jsonMessage is the wire shape for Message serialization.
type jsonMessage struct {
	ID        string            `json:"id"`
	Kind      Kind              `json:"kind"`
	SourceID  string            `json:"source_id"`
	CreatedAt time.Time         `json:"created_at"`
	Payload   string            `json:"payload,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	Order     []string          `json:"field_order,omitempty"`
	Quality   *int              `json:"quality,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (m Message) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonMessage{
		ID:        m.ID,
		Kind:      m.Kind,
		SourceID:  m.SourceID,
		CreatedAt: m.CreatedAt,
		Payload:   string(m.Payload),
		Fields:    m.fields,
		Order:     m.keys,
		Quality:   m.quality,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Message) UnmarshalJSON(data []byte) error {
	var jm jsonMessage
	if err := json.Unmarshal(data, &jm); err != nil {
		return err
	}

	m.ID = jm.ID
	m.Kind = jm.Kind
	m.SourceID = jm.SourceID
	m.CreatedAt = jm.CreatedAt
	m.Payload = []byte(jm.Payload)
	m.quality = jm.Quality
	m.fields = jm.Fields
	if m.fields == nil {
		m.fields = make(map[string]string)
	}

	// Rebuild ordering; unknown keys in Order are ignored, keys missing
	// from Order are appended after it.
	m.keys = m.keys[:0]
	seen := make(map[string]bool, len(m.fields))
	for _, k := range jm.Order {
		if _, ok := m.fields[k]; ok && !seen[k] {
			m.keys = append(m.keys, k)
			seen[k] = true
		}
	}
	for k := range m.fields {
		if !seen[k] {
			m.keys = append(m.keys, k)
		}
	}

	return nil
}
