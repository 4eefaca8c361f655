// Package buffer provides a generic, thread-safe bounded ring buffer for
// telemetry fan-in. Producers never block: when the ring is full the
// overflow policy decides which item is dropped. Statistics are always
// collected; Prometheus metrics are optional via WithMetrics().
package buffer

// Ring is a bounded FIFO buffer parameterized by item type T.
type Ring[T any] interface {
	// Write adds an item to the ring. When the ring is full the overflow
	// policy decides which item is dropped; Write itself never blocks.
	Write(item T) error

	// Read retrieves and removes the oldest item.
	// Returns the zero value and false when the ring is empty.
	Read() (T, bool)

	// ReadBatch retrieves and removes up to max items in FIFO order.
	// The returned slice may be shorter than max, or nil when empty.
	ReadBatch(max int) []T

	// Peek returns the oldest item without removing it.
	Peek() (T, bool)

	// Size returns the current number of items.
	Size() int

	// Capacity returns the maximum number of items the ring can hold.
	Capacity() int

	// IsFull reports whether the ring is at capacity.
	IsFull() bool

	// IsEmpty reports whether the ring holds no items.
	IsEmpty() bool

	// Clear removes all items.
	Clear()

	// Stats returns ring statistics (always available).
	Stats() *Statistics

	// Close shuts down the ring. Writes after Close fail.
	Close() error
}

// OverflowPolicy defines behavior when a write hits a full ring.
type OverflowPolicy int

const (
	// DropOldest evicts the oldest item to make room for the new one.
	DropOldest OverflowPolicy = iota

	// DropNewest discards the incoming item.
	DropNewest
)

// String returns a human-readable representation of the overflow policy.
func (p OverflowPolicy) String() string {
	switch p {
	case DropOldest:
		return "DropOldest"
	case DropNewest:
		return "DropNewest"
	default:
		return "Unknown"
	}
}

// DropCallback is called with each item dropped by the overflow policy.
type DropCallback[T any] func(item T)

// NewRing creates a ring with the given capacity. DropOldest is the default
// overflow policy. Returns an error if metrics registration fails when
// metrics are requested.
func NewRing[T any](capacity int, options ...Option[T]) (Ring[T], error) {
	opts := applyOptions(options...)
	return newRingBuffer(capacity, opts)
}
