package session_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/pathway/pkg/adapters/memory"
	"github.com/aretw0/pathway/pkg/domain"
	"github.com/aretw0/pathway/pkg/ports"
	"github.com/aretw0/pathway/pkg/session"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	mu    sync.Mutex
	data  map[string]*domain.Cursor
	saves int32
}

func (s *SlowStore) Save(_ context.Context, key string, cur *domain.Cursor) error {
	time.Sleep(5 * time.Millisecond)
	atomic.AddInt32(&s.saves, 1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		s.data = make(map[string]*domain.Cursor)
	}
	s.data[key] = cur.Clone()
	return nil
}

func (s *SlowStore) Load(_ context.Context, key string) (*domain.Cursor, error) {
	time.Sleep(5 * time.Millisecond)
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.data[key]; ok {
		return cur.Clone(), nil
	}
	return nil, domain.ErrSessionNotFound
}

func (s *SlowStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *SlowStore) List(context.Context) ([]string, error) { return nil, nil }

func TestManager_UpdateIsSerialized(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()
	key := domain.SessionKey("m", "u")

	require.NoError(t, manager.Save(ctx, key, &domain.Cursor{History: []string{}}))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := manager.Update(ctx, key, func(c *domain.Cursor) (*domain.Cursor, error) {
				c.History = append(c.History, "x")
				return c, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	cur, err := manager.Load(ctx, key)
	require.NoError(t, err)
	assert.Len(t, cur.History, 10, "no read-modify-write cycle may be lost")
}

func TestManager_LoadOrStart(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()
	key := domain.SessionKey("m", "u")

	var started int32
	start := func() *domain.Cursor {
		atomic.AddInt32(&started, 1)
		return &domain.Cursor{ModuleID: "m", UserID: "u", CurrentNodeID: "first", History: []string{"first"}}
	}

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cur, err := manager.LoadOrStart(ctx, key, start)
			assert.NoError(t, err)
			assert.Equal(t, "first", cur.CurrentNodeID)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, started, "only one caller may initialize the session")
}

func TestManager_UpdateErrors(t *testing.T) {
	manager := session.NewManager(memory.NewCursorStore())
	ctx := context.Background()

	_, err := manager.Update(ctx, "missing", func(c *domain.Cursor) (*domain.Cursor, error) { return c, nil })
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	require.NoError(t, manager.Save(ctx, "k", &domain.Cursor{CurrentNodeID: "a"}))
	boom := errors.New("boom")
	_, err = manager.Update(ctx, "k", func(c *domain.Cursor) (*domain.Cursor, error) {
		c.CurrentNodeID = "b"
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	cur, err := manager.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "a", cur.CurrentNodeID)
}

type failingLocker struct{}

func (failingLocker) Lock(context.Context, string, time.Duration) (ports.UnlockFunc, error) {
	return nil, errors.New("redis down")
}

type recordingLocker struct {
	ttl      time.Duration
	released int
}

func (l *recordingLocker) Lock(_ context.Context, _ string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.ttl = ttl
	return func(context.Context) error {
		l.released++
		return nil
	}, nil
}

func TestManager_DistributedLocker(t *testing.T) {
	ctx := context.Background()

	manager := session.NewManager(memory.NewCursorStore(), session.WithLocker(failingLocker{}))
	err := manager.Save(ctx, "k", &domain.Cursor{})
	assert.ErrorContains(t, err, "distributed lock")

	locker := &recordingLocker{}
	manager = session.NewManager(memory.NewCursorStore(), session.WithLocker(locker), session.WithLockTTL(time.Second))
	require.NoError(t, manager.Save(ctx, "k", &domain.Cursor{}))
	assert.Equal(t, time.Second, locker.ttl)
	assert.Equal(t, 1, locker.released)
}
