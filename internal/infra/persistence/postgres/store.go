// Package postgres provides a Postgres-backed snapshot store that mirrors the
// in-memory semantics and writes every change through to the database.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"boardcore/internal/infra/persistence/memory"
	"boardcore/pkg/domain"
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.SnapshotStore = (*Store)(nil)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/boardcore?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store persists snapshots to Postgres while serving reads from memory.
type Store struct {
	*memory.Store
	db *sql.DB
	mu sync.Mutex
}

// NewStore opens a Postgres-backed store using dsn (falls back to defaultDSN),
// ensures the snapshot table exists and hydrates the cache from it.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := ensureSnapshotTable(ctx, db); err != nil {
		return nil, err
	}
	state, err := loadState(ctx, db)
	if err != nil {
		return nil, err
	}
	mem := memory.NewStore()
	if err := mem.ImportState(state); err != nil {
		return nil, err
	}
	return &Store{Store: mem, db: db}, nil
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

func ensureSnapshotTable(ctx context.Context, db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS board_snapshots (
		board_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		payload BYTEA NOT NULL,
		saved_at TIMESTAMPTZ NOT NULL
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure snapshot table: %w", err)
	}
	return nil
}

func loadState(ctx context.Context, db *sql.DB) (memory.State, error) {
	rows, err := db.QueryContext(ctx, `SELECT board_id, name, payload, saved_at FROM board_snapshots`)
	if err != nil {
		return memory.State{}, fmt.Errorf("select snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var state memory.State
	for rows.Next() {
		var snap domain.BoardSnapshot
		var savedAt time.Time
		if err := rows.Scan(&snap.BoardID, &snap.Name, &snap.Payload, &savedAt); err != nil {
			return memory.State{}, fmt.Errorf("scan snapshot: %w", err)
		}
		snap.SavedAt = savedAt.UTC()
		state.Snapshots = append(state.Snapshots, snap)
	}
	if err := rows.Err(); err != nil {
		return memory.State{}, fmt.Errorf("iterate snapshots: %w", err)
	}
	return state, nil
}

// Save upserts the snapshot in one transaction, then updates the cache.
func (s *Store) Save(ctx context.Context, snapshot domain.BoardSnapshot) error {
	if err := memory.Validate(snapshot); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO board_snapshots(board_id,name,payload,saved_at) VALUES($1,$2,$3,$4) ON CONFLICT(board_id) DO UPDATE SET name=EXCLUDED.name, payload=EXCLUDED.payload, saved_at=EXCLUDED.saved_at`,
		snapshot.BoardID, snapshot.Name, snapshot.Payload, snapshot.SavedAt.UTC()); err != nil {
		return fmt.Errorf("upsert %s: %w", snapshot.BoardID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return s.Store.Save(ctx, snapshot)
}

// Delete removes the snapshot row and reports whether the board was stored.
func (s *Store) Delete(ctx context.Context, boardID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM board_snapshots WHERE board_id=$1`, boardID); err != nil {
		return false, fmt.Errorf("delete %s: %w", boardID, err)
	}
	return s.Store.Delete(ctx, boardID)
}

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
