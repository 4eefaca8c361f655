package snapshot

import (
	"context"
	"sync"
	"time"

	"github.com/c360/marlink/errors"
)

type memoryEntry[T any] struct {
	value     T
	expiresAt time.Time
}

func (e memoryEntry[T]) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// memoryStore is a thread-safe in-process snapshot store. A background
// goroutine sweeps expired entries; reads also skip anything expired so
// staleness never depends on sweep timing.
type memoryStore[T any] struct {
	mu    sync.RWMutex
	ttl   time.Duration
	items map[string]memoryEntry[T]

	shutdown chan struct{}
	done     chan struct{}
	once     sync.Once
}

// NewMemory creates an in-process store. A non-positive ttl falls back
// to DefaultTTL. cleanupInterval controls the expiry sweep cadence; a
// non-positive value defaults to one tenth of the TTL.
func NewMemory[T any](ttl, cleanupInterval time.Duration) Store[T] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if cleanupInterval <= 0 {
		cleanupInterval = ttl / 10
	}

	s := &memoryStore[T]{
		ttl:      ttl,
		items:    make(map[string]memoryEntry[T]),
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	go s.cleanupLoop(cleanupInterval)
	return s
}

func (s *memoryStore[T]) Put(_ context.Context, key string, value T) error {
	if key == "" {
		return errors.WrapInvalid(errors.ErrInvalidData, "snapshot", "Put", "key validation")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = memoryEntry[T]{
		value:     value,
		expiresAt: time.Now().Add(s.ttl),
	}
	return nil
}

func (s *memoryStore[T]) Get(_ context.Context, key string) (T, bool, error) {
	s.mu.RLock()
	entry, ok := s.items[key]
	s.mu.RUnlock()

	var zero T
	if !ok || entry.expired(time.Now()) {
		return zero, false, nil
	}
	return entry.value, true, nil
}

func (s *memoryStore[T]) All(_ context.Context) ([]T, error) {
	now := time.Now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	values := make([]T, 0, len(s.items))
	for _, entry := range s.items {
		if !entry.expired(now) {
			values = append(values, entry.value)
		}
	}
	return values, nil
}

func (s *memoryStore[T]) Delete(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[key]; !ok {
		return false, nil
	}
	delete(s.items, key)
	return true, nil
}

func (s *memoryStore[T]) Len(_ context.Context) (int, error) {
	now := time.Now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, entry := range s.items {
		if !entry.expired(now) {
			n++
		}
	}
	return n, nil
}

func (s *memoryStore[T]) Close() error {
	s.once.Do(func() {
		close(s.shutdown)
		<-s.done
	})
	return nil
}

func (s *memoryStore[T]) cleanupLoop(interval time.Duration) {
	defer close(s.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.shutdown:
			return
		case <-ticker.C:
			s.removeExpired()
		}
	}
}

func (s *memoryStore[T]) removeExpired() {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, entry := range s.items {
		if entry.expired(now) {
			delete(s.items, key)
		}
	}
}
