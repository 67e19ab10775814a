package statestore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"
)

// ValkeyStore persists JSON encoded values in a Valkey-compatible database.
type ValkeyStore[T any] struct {
	client valkey.Client
	prefix string
	ttl    time.Duration
}

// NewValkeyStore constructs a store whose keys live under prefix:namespace.
func NewValkeyStore[T any](client valkey.Client, prefix, namespace string, ttl time.Duration) *ValkeyStore[T] {
	if prefix == "" {
		prefix = "fortune"
	}
	return &ValkeyStore[T]{client: client, prefix: prefix + ":" + namespace, ttl: ttl}
}

func (s *ValkeyStore[T]) Get(ctx context.Context, id string) (T, bool, error) {
	var value T
	payload, err := s.client.Do(ctx, s.client.B().Get().Key(s.key(id)).Build()).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return value, false, nil
		}
		return value, false, err
	}
	if err := json.Unmarshal([]byte(payload), &value); err != nil {
		return value, false, fmt.Errorf("decode %s: %w", s.key(id), err)
	}
	return value, true, nil
}

func (s *ValkeyStore[T]) Put(ctx context.Context, id string, value T) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	key := s.key(id)
	if s.ttl > 0 {
		return s.client.Do(ctx, s.client.B().Set().Key(key).Value(string(payload)).Ex(s.ttl).Build()).Error()
	}
	return s.client.Do(ctx, s.client.B().Set().Key(key).Value(string(payload)).Build()).Error()
}

func (s *ValkeyStore[T]) Delete(ctx context.Context, id string) error {
	return s.client.Do(ctx, s.client.B().Del().Key(s.key(id)).Build()).Error()
}

func (s *ValkeyStore[T]) key(id string) string {
	return fmt.Sprintf("%s:%s", s.prefix, id)
}
