// Package redis persists playback state in Redis: session cursors, learner state,
// progress and completions, plus a distributed session locker.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/pathway/pkg/domain"
)

const (
	defaultPrefix = "pathway:"
	// farFuture scores index entries of sessions that never expire (2100-01-01).
	farFuture  = 4102444800
	maxRetries = 10
)

// Store implements ports.CursorStore, ports.LearnerStateStore, ports.ProgressStore
// and ports.CompletionStore using Redis.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithTTL sets the expiration of session cursors.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the prefix of every key the store writes.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithClock overrides time.Now for timestamps and index scores.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates a Redis store with its own client.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: defaultPrefix,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Client exposes the underlying client, e.g. to build a Locker on it.
func (s *Store) Client() *backend.Client {
	return s.client
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) sessionKey(key string) string { return s.prefix + "session:" + key }
func (s *Store) indexKey() string             { return s.prefix + "session:index" }

// Save persists the cursor and indexes its key by expiry.
func (s *Store) Save(ctx context.Context, key string, cur *domain.Cursor) error {
	data, err := json.Marshal(cur)
	if err != nil {
		return fmt.Errorf("failed to marshal cursor: %w", err)
	}

	score := float64(s.now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = farFuture
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.sessionKey(key), data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: score, Member: key})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load retrieves the cursor.
func (s *Store) Load(ctx context.Context, key string) (*domain.Cursor, error) {
	val, err := s.client.Get(ctx, s.sessionKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var cur domain.Cursor
	if err := json.Unmarshal(val, &cur); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cursor: %w", err)
	}
	return &cur, nil
}

// Delete removes the cursor and its index entry.
func (s *Store) Delete(ctx context.Context, key string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.sessionKey(key))
	pipe.ZRem(ctx, s.indexKey(), key)
	_, err := pipe.Exec(ctx)
	return err
}

// List returns live session keys. Expired entries are pruned from the index first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := float64(s.now().Unix())
	err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired sessions: %w", err)
	}

	keys, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return keys, nil
}

// optimistic runs fn inside WATCH on key, retrying when another client wrote the
// key concurrently.
func (s *Store) optimistic(ctx context.Context, key string, fn func(tx *backend.Tx) error) error {
	for i := 0; i < maxRetries; i++ {
		err := s.client.Watch(ctx, fn, key)
		if err == nil {
			return nil
		}
		if errors.Is(err, backend.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("redis transaction on %s: too much contention", key)
}
