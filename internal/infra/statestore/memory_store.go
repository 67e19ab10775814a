package statestore

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryStore keeps values in a bounded process-local LRU. Evicted or expired
// entries read as missing.
type MemoryStore[T any] struct {
	cache *expirable.LRU[string, T]
}

// NewMemoryStore constructs a store holding at most capacity entries.
// A non-positive ttl disables expiry.
func NewMemoryStore[T any](capacity int, ttl time.Duration) *MemoryStore[T] {
	if capacity <= 0 {
		capacity = 1024
	}
	return &MemoryStore[T]{cache: expirable.NewLRU[string, T](capacity, nil, ttl)}
}

func (s *MemoryStore[T]) Get(_ context.Context, id string) (T, bool, error) {
	value, ok := s.cache.Get(id)
	return value, ok, nil
}

func (s *MemoryStore[T]) Put(_ context.Context, id string, value T) error {
	s.cache.Add(id, value)
	return nil
}

func (s *MemoryStore[T]) Delete(_ context.Context, id string) error {
	s.cache.Remove(id)
	return nil
}

// Len reports the number of live entries.
func (s *MemoryStore[T]) Len() int {
	return s.cache.Len()
}
