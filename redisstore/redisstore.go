// Package redisstore keeps cache entries in Redis, so that they survive a
// restart and are shared between instances.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/etnz/folio"
	"github.com/redis/go-redis/v9"
)

// Store is a folio.Store of JSON encoded entries.
//
// Freshness is decided by the caches from the entry timestamp. Redis only
// expires keys after a retention period, to keep it from growing forever.
type Store[V any] struct {
	client    redis.Cmdable
	prefix    string
	retention time.Duration
}

// New returns a Store whose keys are prefix + ":" + key. A zero retention
// never expires keys.
func New[V any](client redis.Cmdable, prefix string, retention time.Duration) *Store[V] {
	return &Store[V]{client: client, prefix: prefix, retention: retention}
}

func (s *Store[V]) key(k string) string { return s.prefix + ":" + k }

func (s *Store[V]) Get(ctx context.Context, key string) (folio.Entry[V], bool, error) {
	var e folio.Entry[V]
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return e, false, nil
	}
	if err != nil {
		return e, false, fmt.Errorf("failed to get %q: %w", key, err)
	}
	if err := json.Unmarshal(data, &e); err != nil {
		return e, false, fmt.Errorf("failed to unmarshal %q: %w", key, err)
	}
	return e, true, nil
}

func (s *Store[V]) Put(ctx context.Context, key string, e folio.Entry[V]) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal %q: %w", key, err)
	}
	if err := s.client.Set(ctx, s.key(key), data, s.retention).Err(); err != nil {
		return fmt.Errorf("failed to set %q: %w", key, err)
	}
	return nil
}

// Connect returns a client to the Redis server at addr, once it answered a ping.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return client, nil
}
