// Package postgres stores run snapshots in a PostgreSQL table with a JSONB
// column, using a pgx connection pool.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultTable is the table used when none is configured.
const DefaultTable = "espalier_runs"

var tableName = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// DB is the subset of *pgxpool.Pool used by the store.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Store implements ports.SnapshotStore on PostgreSQL.
type Store struct {
	db    DB
	table string
}

type Option func(*Store)

// WithTable overrides the table name.
func WithTable(name string) Option {
	return func(s *Store) {
		s.table = name
	}
}

// Connect opens a pool for url and returns a store with its schema ensured.
// The caller owns the pool and must Close it.
func Connect(ctx context.Context, url string, opts ...Option) (*Store, *pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	store, err := New(pool, opts...)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return store, pool, nil
}

// New creates a store over db. The table name is validated because it is
// interpolated into SQL.
func New(db DB, opts ...Option) (*Store, error) {
	s := &Store{db: db, table: DefaultTable}
	for _, opt := range opts {
		opt(s)
	}
	if !tableName.MatchString(s.table) {
		return nil, fmt.Errorf("invalid table name %q", s.table)
	}
	return s, nil
}

// Migrate creates the snapshot table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.Exec(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	request_id TEXT PRIMARY KEY,
	status     TEXT NOT NULL,
	saved_at   TIMESTAMPTZ NOT NULL,
	snapshot   JSONB NOT NULL
)`, s.table))
	if err != nil {
		return fmt.Errorf("failed to migrate %s: %w", s.table, err)
	}
	return nil
}

// Save upserts the snapshot.
func (s *Store) Save(ctx context.Context, snap domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	_, err = s.db.Exec(ctx, fmt.Sprintf(`INSERT INTO %s (request_id, status, saved_at, snapshot)
VALUES ($1, $2, $3, $4)
ON CONFLICT (request_id) DO UPDATE
SET status = EXCLUDED.status, saved_at = EXCLUDED.saved_at, snapshot = EXCLUDED.snapshot`, s.table),
		snap.RequestID, string(snap.Status), snap.Timestamp, data)
	if err != nil {
		return fmt.Errorf("failed to save snapshot %s: %w", snap.RequestID, err)
	}
	return nil
}

// Load reads a snapshot by request id.
func (s *Store) Load(ctx context.Context, requestID string) (domain.Snapshot, error) {
	var data []byte
	err := s.db.QueryRow(ctx, fmt.Sprintf(`SELECT snapshot FROM %s WHERE request_id = $1`, s.table), requestID).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Snapshot{}, domain.ErrRunNotFound
		}
		return domain.Snapshot{}, fmt.Errorf("failed to load snapshot %s: %w", requestID, err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return snap, nil
}

// Delete removes a snapshot.
func (s *Store) Delete(ctx context.Context, requestID string) error {
	if _, err := s.db.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE request_id = $1`, s.table), requestID); err != nil {
		return fmt.Errorf("failed to delete snapshot %s: %w", requestID, err)
	}
	return nil
}

// List returns request ids, most recently saved first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, fmt.Sprintf(`SELECT request_id FROM %s ORDER BY saved_at DESC, request_id`, s.table))
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan snapshots: %w", err)
	}
	return ids, nil
}
