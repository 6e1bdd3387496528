package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/pathway/internal/logging"
	"github.com/aretw0/pathway/pkg/domain"
	"github.com/aretw0/pathway/pkg/ports"
)

// DefaultLockTTL bounds how long a crashed replica can hold a distributed session lock.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// Locks are reference counted and dropped once no caller holds or waits on them.
type Manager struct {
	store ports.CursorStore

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a Manager over the given cursor store.
func NewManager(store ports.CursorStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller must lock entry.mu and call release(key) after unlocking.
func (m *Manager) acquire(key string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[key]
	if !exists {
		entry = &lockEntry{}
		m.locks[key] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry at zero.
func (m *Manager) release(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[key]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, key)
	}
}

// Load retrieves an existing cursor.
func (m *Manager) Load(ctx context.Context, key string) (*domain.Cursor, error) {
	var cur *domain.Cursor
	err := m.WithLock(ctx, key, func(ctx context.Context) error {
		var err error
		cur, err = m.store.Load(ctx, key)
		return err
	})
	return cur, err
}

// LoadOrStart loads the cursor for key or persists the one built by start.
func (m *Manager) LoadOrStart(ctx context.Context, key string, start func() *domain.Cursor) (*domain.Cursor, error) {
	var cur *domain.Cursor
	err := m.WithLock(ctx, key, func(ctx context.Context) error {
		var err error
		cur, err = m.loadOrStart(ctx, key, start)
		return err
	})
	return cur, err
}

func (m *Manager) loadOrStart(ctx context.Context, key string, start func() *domain.Cursor) (*domain.Cursor, error) {
	cur, err := m.store.Load(ctx, key)
	if err == nil {
		return cur, nil
	}
	if !errors.Is(err, domain.ErrSessionNotFound) {
		return nil, fmt.Errorf("failed to check session existence: %w", err)
	}

	cur = start()
	if err := m.store.Save(ctx, key, cur); err != nil {
		return nil, fmt.Errorf("failed to initialize session: %w", err)
	}
	m.logger.DebugContext(ctx, "session started", "session_id", key, "node_id", cur.CurrentNodeID)
	return cur, nil
}

// Update runs a read-modify-write cycle on the cursor under the session lock.
// fn receives the stored cursor and returns the one to save.
func (m *Manager) Update(ctx context.Context, key string, fn func(*domain.Cursor) (*domain.Cursor, error)) (*domain.Cursor, error) {
	var out *domain.Cursor
	err := m.WithLock(ctx, key, func(ctx context.Context) error {
		cur, err := m.store.Load(ctx, key)
		if err != nil {
			return err
		}
		next, err := fn(cur)
		if err != nil {
			return err
		}
		if err := m.store.Save(ctx, key, next); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		out = next
		return nil
	})
	return out, err
}

// Save persists the cursor.
func (m *Manager) Save(ctx context.Context, key string, cur *domain.Cursor) error {
	return m.WithLock(ctx, key, func(ctx context.Context) error {
		return m.store.Save(ctx, key, cur)
	})
}

// Delete removes the cursor.
func (m *Manager) Delete(ctx context.Context, key string) error {
	return m.WithLock(ctx, key, func(ctx context.Context) error {
		return m.store.Delete(ctx, key)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying cursor store. Use it inside WithLock, where the
// Manager's own methods would deadlock.
func (m *Manager) Store() ports.CursorStore {
	return m.store
}

// WithLock executes fn while holding the lock for the session key.
func (m *Manager) WithLock(ctx context.Context, key string, fn func(context.Context) error) error {
	entry := m.acquire(key)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(key)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, key, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("failed to release distributed lock (will expire via TTL)",
					"session_id", key,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
