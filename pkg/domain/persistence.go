package domain

import "context"

// SnapshotStore persists serialized board records. Implementations must make
// Save atomic per board: a failed Save leaves the previous snapshot intact.
type SnapshotStore interface {
	Save(ctx context.Context, snapshot BoardSnapshot) error
	Load(ctx context.Context, boardID string) (BoardSnapshot, bool, error)
	List(ctx context.Context) ([]SnapshotInfo, error)
	Delete(ctx context.Context, boardID string) (bool, error)
}
