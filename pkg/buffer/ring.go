package buffer

import (
	"sync"

	"github.com/c360/marlink/errors"
)

// ringBuffer is the thread-safe circular implementation behind Ring.
type ringBuffer[T any] struct {
	mu       sync.RWMutex
	items    []T
	capacity int
	size     int
	head     int // next write position
	tail     int // next read position
	stats    *Statistics
	metrics  *ringMetrics // optional Prometheus export
	opts     *ringOptions[T]
	closed   bool
}

func newRingBuffer[T any](capacity int, opts *ringOptions[T]) (*ringBuffer[T], error) {
	if capacity <= 0 {
		capacity = 1
	}

	var metrics *ringMetrics
	if opts.metricsReg != nil && opts.metricsPrefix != "" {
		var err error
		metrics, err = newRingMetrics(opts.metricsReg, opts.metricsPrefix)
		if err != nil {
			return nil, errors.WrapTransient(err, "Ring", "NewRing", "metrics registration")
		}
	}

	return &ringBuffer[T]{
		items:    make([]T, capacity),
		capacity: capacity,
		stats:    NewStatistics(),
		metrics:  metrics,
		opts:     opts,
	}, nil
}

// Write adds an item according to the overflow policy. Never blocks.
func (rb *ringBuffer[T]) Write(item T) error {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.closed {
		return errors.WrapInvalid(errors.ErrAlreadyStopped, "Ring", "Write", "ring closed")
	}

	if rb.size == rb.capacity {
		rb.stats.Overflow()
		rb.stats.Drop()
		if rb.metrics != nil {
			rb.metrics.recordOverflow()
			rb.metrics.recordDrop()
		}

		switch rb.opts.overflowPolicy {
		case DropOldest:
			dropped := rb.items[rb.tail]
			rb.tail = (rb.tail + 1) % rb.capacity
			rb.size--
			if rb.opts.dropCallback != nil {
				// Invoked after the lock is released to avoid deadlock
				defer rb.opts.dropCallback(dropped)
			}

		case DropNewest:
			if rb.opts.dropCallback != nil {
				defer rb.opts.dropCallback(item)
			}
			return nil
		}
	}

	rb.items[rb.head] = item
	rb.head = (rb.head + 1) % rb.capacity
	rb.size++

	rb.stats.Write()
	rb.stats.UpdateSize(int64(rb.size))
	if rb.metrics != nil {
		rb.metrics.recordWrite(rb.size, rb.capacity)
	}

	return nil
}

// Read retrieves and removes the oldest item.
func (rb *ringBuffer[T]) Read() (T, bool) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	var zero T
	if rb.size == 0 {
		return zero, false
	}

	item := rb.items[rb.tail]
	rb.items[rb.tail] = zero // release for GC
	rb.tail = (rb.tail + 1) % rb.capacity
	rb.size--

	rb.stats.Read()
	rb.stats.UpdateSize(int64(rb.size))
	if rb.metrics != nil {
		rb.metrics.recordRead(rb.size, rb.capacity)
	}

	return item, true
}

// ReadBatch retrieves and removes up to max items in FIFO order.
func (rb *ringBuffer[T]) ReadBatch(max int) []T {
	if max <= 0 {
		return nil
	}

	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.size == 0 {
		return nil
	}

	readCount := max
	if readCount > rb.size {
		readCount = rb.size
	}

	result := make([]T, readCount)
	var zero T

	for i := 0; i < readCount; i++ {
		result[i] = rb.items[rb.tail]
		rb.items[rb.tail] = zero
		rb.tail = (rb.tail + 1) % rb.capacity
		rb.size--
		rb.stats.Read()
	}

	rb.stats.UpdateSize(int64(rb.size))
	if rb.metrics != nil {
		rb.metrics.updateSize(rb.size, rb.capacity)
	}

	return result
}

// Peek returns the oldest item without removing it.
func (rb *ringBuffer[T]) Peek() (T, bool) {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	var zero T
	if rb.size == 0 {
		return zero, false
	}

	return rb.items[rb.tail], true
}

// Size returns the current number of items.
func (rb *ringBuffer[T]) Size() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.size
}

// Capacity returns the maximum number of items. Immutable, no lock needed.
func (rb *ringBuffer[T]) Capacity() int {
	return rb.capacity
}

// IsFull reports whether the ring is at capacity.
func (rb *ringBuffer[T]) IsFull() bool {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.size == rb.capacity
}

// IsEmpty reports whether the ring holds no items.
func (rb *ringBuffer[T]) IsEmpty() bool {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.size == 0
}

// Clear removes all items. The drop callback sees every cleared item.
func (rb *ringBuffer[T]) Clear() {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	var zero T

	if rb.opts.dropCallback != nil && rb.size > 0 {
		cleared := make([]T, rb.size)
		for i := 0; i < rb.size; i++ {
			cleared[i] = rb.items[(rb.tail+i)%rb.capacity]
		}
		defer func() {
			for _, item := range cleared {
				rb.opts.dropCallback(item)
			}
		}()
	}

	for i := 0; i < rb.capacity; i++ {
		rb.items[i] = zero
	}

	rb.head = 0
	rb.tail = 0
	rb.size = 0

	rb.stats.UpdateSize(0)
	if rb.metrics != nil {
		rb.metrics.updateSize(0, rb.capacity)
	}
}

// Stats returns ring statistics.
func (rb *ringBuffer[T]) Stats() *Statistics {
	return rb.stats
}

// Close shuts down the ring. Reads continue to drain; writes fail.
func (rb *ringBuffer[T]) Close() error {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.closed = true
	return nil
}
