// Package blob is the only entry point to the blob backends under
// internal/infra/blob. It re-exports the storage contract, opens a backend
// from the environment and provides Directory, the prefix-scoped view a board
// uses as its backing storage.
package blob

import (
	"context"
	"fmt"
	"os"

	"boardcore/internal/blob/core"
	fsstore "boardcore/internal/infra/blob/fs"
	memorystore "boardcore/internal/infra/blob/memory"
	s3store "boardcore/internal/infra/blob/s3"
)

type (
	// Driver identifies a blob backend driver.
	Driver = core.Driver
	// PutOptions configures a blob write.
	PutOptions = core.PutOptions
	// SignedURLOptions configures URL pre-signing.
	SignedURLOptions = core.SignedURLOptions
	// Info describes stored blob metadata.
	Info = core.Info
	// Store is the interface for blob storage backends.
	Store = core.Store
	// S3Config configures the S3 backend.
	S3Config = s3store.Config
)

const (
	DriverFilesystem = core.DriverFilesystem
	DriverS3         = core.DriverS3
	DriverMemory     = core.DriverMemory
)

var (
	ErrUnsupported = core.ErrUnsupported
	ErrExists      = core.ErrExists
	ErrNotExist    = core.ErrNotExist
)

// Open selects a Store using environment variables.
//
//	BOARDCORE_BLOB_DRIVER: fs|s3|memory (default fs)
//	BOARDCORE_BLOB_FS_ROOT: directory root when driver=fs (default ./boarddata)
//	BOARDCORE_BLOB_S3_*: see internal/infra/blob/s3
func Open(ctx context.Context) (Store, error) {
	driver := Driver(os.Getenv("BOARDCORE_BLOB_DRIVER"))
	if driver == "" {
		driver = DriverFilesystem
	}
	switch driver {
	case DriverFilesystem:
		return NewFilesystem(os.Getenv("BOARDCORE_BLOB_FS_ROOT"))
	case DriverS3:
		return s3store.OpenFromEnv(ctx)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %q", driver)
	}
}

// NewMemory returns an in-memory Store.
func NewMemory() Store { return memorystore.New() }

// NewFilesystem returns a Store rooted at root.
func NewFilesystem(root string) (Store, error) { return fsstore.New(root) }

// NewS3 returns an S3-backed Store.
func NewS3(ctx context.Context, cfg S3Config) (Store, error) { return s3store.New(ctx, cfg) }

// NewFakeS3 returns an S3 Store backed by an in-memory fake transport.
func NewFakeS3() Store { return s3store.NewFake() }
