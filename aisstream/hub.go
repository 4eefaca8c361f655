package aisstream

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/c360/marlink/errors"
	"github.com/c360/marlink/pkg/buffer"
)

// subscriptionCapacity bounds each consumer's backlog. A consumer that
// falls further behind loses the oldest reports and learns how many.
const subscriptionCapacity = 1000

// Hub fans reports from the relay out to subscribers. Publishing is
// lossy per subscriber: each has its own drop-oldest ring, so one slow
// consumer never blocks the relay or its peers.
type Hub struct {
	mu          sync.Mutex
	subscribers map[*Subscription]struct{}
	closed      bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[*Subscription]struct{}),
	}
}

// Subscribe registers a new consumer.
func (h *Hub) Subscribe() (*Subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, errors.WrapInvalid(errors.ErrStreamClosed, "Hub", "Subscribe", "state check")
	}

	sub := &Subscription{
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	ring, err := buffer.NewRing[Report](subscriptionCapacity,
		buffer.WithDropCallback[Report](func(Report) {
			atomic.AddInt64(&sub.skipped, 1)
		}))
	if err != nil {
		return nil, errors.Wrap(err, "Hub", "Subscribe", "ring creation")
	}
	sub.ring = ring

	h.subscribers[sub] = struct{}{}
	return sub, nil
}

// unsubscribe removes a consumer. Idempotent.
func (h *Hub) unsubscribe(sub *Subscription) {
	h.mu.Lock()
	if _, ok := h.subscribers[sub]; ok {
		delete(h.subscribers, sub)
	}
	h.mu.Unlock()
	sub.closeOnce.Do(func() { close(sub.done) })
}

// Publish delivers a report to every subscriber's ring.
func (h *Hub) Publish(report Report) {
	h.mu.Lock()
	subs := make([]*Subscription, 0, len(h.subscribers))
	for sub := range h.subscribers {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		_ = sub.ring.Write(report)
		select {
		case sub.notify <- struct{}{}:
		default:
		}
	}
}

// SubscriberCount returns the number of active subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// Close ends every subscription. Further Subscribe calls fail.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	subs := make([]*Subscription, 0, len(h.subscribers))
	for sub := range h.subscribers {
		subs = append(subs, sub)
	}
	h.subscribers = make(map[*Subscription]struct{})
	h.mu.Unlock()

	for _, sub := range subs {
		sub.closeOnce.Do(func() { close(sub.done) })
	}
}

// Subscription is one consumer's view of the stream.
type Subscription struct {
	ring      buffer.Ring[Report]
	notify    chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	skipped   int64
}

// Recv returns the next report and the number of reports skipped since
// the previous Recv because this consumer lagged. Blocks until a report
// arrives, the context is cancelled, or the subscription ends.
func (s *Subscription) Recv(ctx context.Context) (Report, int64, error) {
	for {
		if report, ok := s.ring.Read(); ok {
			return report, atomic.SwapInt64(&s.skipped, 0), nil
		}

		select {
		case <-ctx.Done():
			return Report{}, 0, ctx.Err()
		case <-s.done:
			// Drain anything published before the close
			if report, ok := s.ring.Read(); ok {
				return report, atomic.SwapInt64(&s.skipped, 0), nil
			}
			return Report{}, 0, errors.ErrStreamClosed
		case <-s.notify:
		}
	}
}

// Skipped returns the reports dropped since the last Recv without
// resetting the counter.
func (s *Subscription) Skipped() int64 {
	return atomic.LoadInt64(&s.skipped)
}
