// Package dedup provides the time-windowed alert deduplication store.
//
// A store maps an alert key to the time that key last produced an alert and
// answers "should this alert proceed?" atomically, so that concurrent
// evaluations for the same key cannot both decide to dispatch.
package dedup

import (
	"context"
	"sync"
	"time"
)

// Store manages last-alert timestamps per alert key.
type Store interface {
	// CheckAndMark atomically checks whether key alerted within window and,
	// if it did not, records "now" as its last-alert time. It returns true
	// when the alert should proceed.
	CheckAndMark(ctx context.Context, key string, window time.Duration) (bool, error)

	// IsRecentlyAlerted reports whether key has an entry within window of now.
	IsRecentlyAlerted(ctx context.Context, key string, window time.Duration) (bool, error)

	// MarkAlerted inserts or refreshes the entry for key with the current time.
	MarkAlerted(ctx context.Context, key string) error

	// CleanupExpired removes entries older than window. Not required for
	// correctness, only for bounded memory.
	CleanupExpired(ctx context.Context, window time.Duration) error

	Close() error
}

type memoryStore struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time

	janitorStop chan struct{}
	janitorDone chan struct{}
}

var _ Store = &memoryStore{}

// MemoryStoreOption configures a memory store.
type MemoryStoreOption func(s *memoryStore)

// WithClock overrides the store's time source. Intended for tests.
func WithClock(now func() time.Time) MemoryStoreOption {
	return func(s *memoryStore) {
		s.now = now
	}
}

// WithCleanupInterval starts a background janitor that evicts entries older
// than window every interval. The janitor stops when the store is closed.
func WithCleanupInterval(interval, window time.Duration) MemoryStoreOption {
	return func(s *memoryStore) {
		s.janitorStop = make(chan struct{})
		s.janitorDone = make(chan struct{})
		go s.runJanitor(interval, window)
	}
}

// NewMemoryStore creates a process-local, in-memory deduplication store.
// Entries do not survive process restarts.
func NewMemoryStore(opts ...MemoryStoreOption) Store {
	s := &memoryStore{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *memoryStore) CheckAndMark(_ context.Context, key string, window time.Duration) (bool, error) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	if last, ok := s.entries[key]; ok && now.Sub(last) < window {
		return false, nil
	}
	s.entries[key] = now
	return true, nil
}

func (s *memoryStore) IsRecentlyAlerted(_ context.Context, key string, window time.Duration) (bool, error) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	last, ok := s.entries[key]
	return ok && now.Sub(last) < window, nil
}

func (s *memoryStore) MarkAlerted(_ context.Context, key string) error {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = now
	return nil
}

func (s *memoryStore) CleanupExpired(_ context.Context, window time.Duration) error {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, last := range s.entries {
		if now.Sub(last) >= window {
			delete(s.entries, key)
		}
	}
	return nil
}

func (s *memoryStore) Close() error {
	if s.janitorStop != nil {
		close(s.janitorStop)
		<-s.janitorDone
		s.janitorStop = nil
	}
	return nil
}

func (s *memoryStore) runJanitor(interval, window time.Duration) {
	defer close(s.janitorDone)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.CleanupExpired(context.Background(), window)
		case <-s.janitorStop:
			return
		}
	}
}
