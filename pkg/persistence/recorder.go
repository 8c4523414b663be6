package persistence

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
)

// DefaultSaveTimeout bounds a single background save.
const DefaultSaveTimeout = 10 * time.Second

// Recorder saves snapshots asynchronously. It implements ports.Recorder.
type Recorder struct {
	store   ports.SnapshotStore
	logger  *slog.Logger
	timeout time.Duration
	onError func(domain.Snapshot, error)

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithLogger sets the logger used to report failed saves.
func WithLogger(logger *slog.Logger) RecorderOption {
	return func(r *Recorder) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithSaveTimeout bounds each background save.
func WithSaveTimeout(d time.Duration) RecorderOption {
	return func(r *Recorder) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithErrorHandler registers a callback for failed saves (e.g. a metric).
func WithErrorHandler(fn func(domain.Snapshot, error)) RecorderOption {
	return func(r *Recorder) {
		r.onError = fn
	}
}

// NewRecorder creates a recorder writing to store.
func NewRecorder(store ports.SnapshotStore, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		store:   store,
		logger:  slog.New(slog.NewJSONHandler(io.Discard, nil)),
		timeout: DefaultSaveTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record schedules a save and returns immediately. The save outlives the
// cancellation of ctx but keeps its values.
func (r *Recorder) Record(ctx context.Context, snapshot domain.Snapshot) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		r.logger.Warn("recorder closed, snapshot dropped", "request_id", snapshot.RequestID)
		return
	}
	r.wg.Add(1)
	r.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	go func() {
		defer r.wg.Done()

		ctx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()

		if err := r.store.Save(ctx, snapshot); err != nil {
			r.logger.Warn("failed to persist snapshot", "request_id", snapshot.RequestID, "err", err)
			if r.onError != nil {
				r.onError(snapshot, err)
			}
			return
		}
		r.logger.Debug("snapshot persisted", "request_id", snapshot.RequestID, "status", snapshot.Status)
	}()
}

// Close stops accepting snapshots and waits for in-flight saves until ctx is done.
func (r *Recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
