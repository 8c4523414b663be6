package runs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/espalier/internal/logging"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed lock outlives a crashed holder.
const DefaultLockTTL = 5 * time.Minute

var (
	// ErrRunCompleted is returned when resuming a run that already finished.
	ErrRunCompleted = errors.New("run already completed")
	// ErrSealed is returned when a snapshot is still encrypted on load.
	ErrSealed = errors.New("run snapshot is encrypted")
)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates run access, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store ports.SnapshotStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
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

// WithLockTTL sets the lease of distributed locks.
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
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a new run Manager over the given store.
func NewManager(store ports.SnapshotStore, opts ...Option) *Manager {
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
// The caller MUST Lock the entry.mu, and then call release(requestID) after unlocking.
func (m *Manager) acquire(requestID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[requestID]
	if !exists {
		entry = &lockEntry{}
		m.locks[requestID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(requestID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[requestID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, requestID)
	}
}

// Load retrieves a run snapshot.
func (m *Manager) Load(ctx context.Context, requestID string) (domain.Snapshot, error) {
	var snap domain.Snapshot
	err := m.WithLock(ctx, requestID, func(ctx context.Context) error {
		var err error
		snap, err = m.load(ctx, requestID)
		return err
	})
	return snap, err
}

func (m *Manager) load(ctx context.Context, requestID string) (domain.Snapshot, error) {
	snap, err := m.store.Load(ctx, requestID)
	if err != nil {
		return domain.Snapshot{}, err
	}
	if len(snap.Sealed) > 0 {
		return domain.Snapshot{}, fmt.Errorf("%s: %w", requestID, ErrSealed)
	}
	return snap, nil
}

// Save persists a run snapshot.
func (m *Manager) Save(ctx context.Context, snap domain.Snapshot) error {
	return m.WithLock(ctx, snap.RequestID, func(ctx context.Context) error {
		return m.store.Save(ctx, snap)
	})
}

// Delete removes a run.
func (m *Manager) Delete(ctx context.Context, requestID string) error {
	return m.WithLock(ctx, requestID, func(ctx context.Context) error {
		return m.store.Delete(ctx, requestID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Resume continues a failed run through svc and persists the outcome before
// releasing the lock. Completed runs are rejected with ErrRunCompleted.
func (m *Manager) Resume(ctx context.Context, requestID string, svc ports.Service) (*domain.Report, error) {
	var report *domain.Report
	err := m.WithLock(ctx, requestID, func(ctx context.Context) error {
		snap, err := m.load(ctx, requestID)
		if err != nil {
			return err
		}
		if snap.Status == domain.StatusCompleted {
			return fmt.Errorf("%s: %w", requestID, ErrRunCompleted)
		}

		var runErr error
		report, runErr = svc.Resume(ctx, requestID, snap.State)
		if report != nil {
			final := domain.NewSnapshot(requestID, report.State, time.Now())
			if err := m.store.Save(ctx, final); err != nil {
				m.logger.Warn("failed to persist resumed run", "request_id", requestID, "err", err)
			}
		}
		return runErr
	})
	return report, err
}

// WithLock executes a function while holding the lock for the run.
func (m *Manager) WithLock(ctx context.Context, requestID string, fn func(context.Context) error) error {
	entry := m.acquire(requestID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(requestID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, requestID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			// Release even if ctx was cancelled; the lease would otherwise block resumption.
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"request_id", requestID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
