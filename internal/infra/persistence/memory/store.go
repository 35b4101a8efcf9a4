// Package memory provides an in-memory snapshot store used for tests and
// ephemeral environments. The sqlite and postgres stores reuse it as their
// read cache.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"boardcore/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.SnapshotStore = (*Store)(nil)

// State is the exported form of the store contents.
type State struct {
	Snapshots []domain.BoardSnapshot `json:"snapshots"`
}

// Store keeps the latest snapshot per board.
type Store struct {
	mu        sync.RWMutex
	snapshots map[string]domain.BoardSnapshot
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{snapshots: make(map[string]domain.BoardSnapshot)}
}

func validate(s domain.BoardSnapshot) error {
	if s.BoardID == "" {
		return domain.Invariant("snapshot.save", "board id required")
	}
	if len(s.Payload) == 0 {
		return domain.Invariant("snapshot.save", "empty payload for board %s", s.BoardID)
	}
	return nil
}

// Validate reports whether s can be stored. Backends call it before their
// own write so a rejected snapshot never reaches durable storage.
func Validate(s domain.BoardSnapshot) error { return validate(s) }

// Save replaces the snapshot of s.BoardID.
func (s *Store) Save(ctx context.Context, snapshot domain.BoardSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validate(snapshot); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snapshot.BoardID] = snapshot.Clone()
	return nil
}

// Load returns the snapshot of boardID.
func (s *Store) Load(ctx context.Context, boardID string) (domain.BoardSnapshot, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.BoardSnapshot{}, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[boardID]
	if !ok {
		return domain.BoardSnapshot{}, false, nil
	}
	return snap.Clone(), true, nil
}

// List returns all snapshots ordered by board id.
func (s *Store) List(ctx context.Context) ([]domain.SnapshotInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.SnapshotInfo, 0, len(s.snapshots))
	for _, snap := range s.snapshots {
		out = append(out, snap.Info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BoardID < out[j].BoardID })
	return out, nil
}

// Delete removes the snapshot of boardID and reports whether it existed.
func (s *Store) Delete(ctx context.Context, boardID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.snapshots[boardID]; !ok {
		return false, nil
	}
	delete(s.snapshots, boardID)
	return true, nil
}

// ExportState returns a deep copy of every snapshot ordered by board id.
func (s *Store) ExportState() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state := State{Snapshots: make([]domain.BoardSnapshot, 0, len(s.snapshots))}
	for _, snap := range s.snapshots {
		state.Snapshots = append(state.Snapshots, snap.Clone())
	}
	sort.Slice(state.Snapshots, func(i, j int) bool { return state.Snapshots[i].BoardID < state.Snapshots[j].BoardID })
	return state
}

// ImportState replaces the store contents. Invalid snapshots are rejected
// before anything changes.
func (s *Store) ImportState(state State) error {
	next := make(map[string]domain.BoardSnapshot, len(state.Snapshots))
	for _, snap := range state.Snapshots {
		if err := validate(snap); err != nil {
			return fmt.Errorf("import state: %w", err)
		}
		next[snap.BoardID] = snap.Clone()
	}
	s.mu.Lock()
	s.snapshots = next
	s.mu.Unlock()
	return nil
}
