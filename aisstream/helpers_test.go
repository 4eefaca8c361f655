package aisstream

import (
	"context"
	"sync"
)

// recordingStore is an in-memory snapshot.Store[Report] for tests.
type recordingStore struct {
	mu    sync.Mutex
	items map[string]Report
}

func newRecordingStore() *recordingStore {
	return &recordingStore{items: make(map[string]Report)}
}

func (s *recordingStore) Put(_ context.Context, key string, value Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = value
	return nil
}

func (s *recordingStore) Get(_ context.Context, key string) (Report, bool, error) {
	value, ok := s.get(key)
	return value, ok, nil
}

func (s *recordingStore) All(_ context.Context) ([]Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	values := make([]Report, 0, len(s.items))
	for _, value := range s.items {
		values = append(values, value)
	}
	return values, nil
}

func (s *recordingStore) Delete(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.items[key]
	delete(s.items, key)
	return ok, nil
}

func (s *recordingStore) Len(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items), nil
}

func (s *recordingStore) Close() error { return nil }

func (s *recordingStore) get(key string) (Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.items[key]
	return value, ok
}
