// Package sqlite persists board snapshots in an embedded SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"boardcore/internal/infra/persistence/memory"
	"boardcore/pkg/domain"
)

var _ domain.SnapshotStore = (*Store)(nil)

// DefaultPath is used when NewStore receives an empty path.
const DefaultPath = "boardcore.db"

// Store keeps one row per board and serves reads from an in-memory copy
// hydrated on open. Writes reach SQLite before the copy is updated.
type Store struct {
	*memory.Store
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore opens or creates the database at path.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS board_snapshots (
		board_id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		payload BLOB NOT NULL,
		saved_at TEXT NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create snapshot table: %w", err)
	}
	s := &Store{Store: memory.NewStore(), db: db, path: path}
	if err := s.load(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) load(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT board_id, name, payload, saved_at FROM board_snapshots`)
	if err != nil {
		return fmt.Errorf("select snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var state memory.State
	for rows.Next() {
		var snap domain.BoardSnapshot
		var savedAt string
		if err := rows.Scan(&snap.BoardID, &snap.Name, &snap.Payload, &savedAt); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		if snap.SavedAt, err = time.Parse(time.RFC3339Nano, savedAt); err != nil {
			return fmt.Errorf("decode saved_at of %s: %w", snap.BoardID, err)
		}
		state.Snapshots = append(state.Snapshots, snap)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate snapshots: %w", err)
	}
	return s.ImportState(state)
}

// Save upserts the snapshot row, then updates the cache.
func (s *Store) Save(ctx context.Context, snapshot domain.BoardSnapshot) (retErr error) {
	if err := memory.Validate(snapshot); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO board_snapshots(board_id,name,payload,saved_at) VALUES(?,?,?,?)
		ON CONFLICT(board_id) DO UPDATE SET name=excluded.name, payload=excluded.payload, saved_at=excluded.saved_at`,
		snapshot.BoardID, snapshot.Name, snapshot.Payload, snapshot.SavedAt.UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("upsert %s: %w", snapshot.BoardID, err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	return s.Store.Save(ctx, snapshot)
}

// Delete removes the row of boardID and reports whether it existed.
func (s *Store) Delete(ctx context.Context, boardID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `DELETE FROM board_snapshots WHERE board_id=?`, boardID)
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", boardID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return false, nil
	}
	return s.Store.Delete(ctx, boardID)
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }
