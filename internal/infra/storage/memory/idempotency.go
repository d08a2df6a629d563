package memory

import (
	"context"
	"sync"
	"time"

	"rentalpricing/internal/app/middleware"
)

// IdempotencyStore keeps replayable results in memory. Entries older than ttl
// are dropped on write; a zero ttl keeps everything.
type IdempotencyStore struct {
	mu    sync.RWMutex
	ttl   time.Duration
	items map[string]middleware.IdempotencyRecord
}

func NewIdempotencyStore(ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{ttl: ttl, items: make(map[string]middleware.IdempotencyRecord)}
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.items[key]
	return rec, ok, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ttl > 0 {
		cutoff := rec.OccurredAt.Add(-s.ttl)
		for k, existing := range s.items {
			if existing.OccurredAt.Before(cutoff) {
				delete(s.items, k)
			}
		}
	}
	s.items[rec.Key] = rec
	return nil
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
