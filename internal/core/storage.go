package core

import (
	"context"
	"fmt"
	"os"

	"boardcore/internal/infra/persistence/memory"
	"boardcore/internal/infra/persistence/postgres"
	"boardcore/internal/infra/persistence/sqlite"
	"boardcore/pkg/domain"
)

// StorageDriver identifies a snapshot store backend.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// Environment variables read by OpenSnapshotStore.
const (
	EnvStorageDriver = "BOARDCORE_STORAGE_DRIVER"
	EnvSQLitePath    = "BOARDCORE_SQLITE_PATH"
	EnvPostgresDSN   = "BOARDCORE_POSTGRES_DSN"
)

// OpenSnapshotStore selects a backend using environment variables.
// Defaults to sqlite when unset.
//
//	BOARDCORE_STORAGE_DRIVER: memory|sqlite|postgres (default sqlite)
//	BOARDCORE_SQLITE_PATH: path to sqlite file (default ./boardcore.db)
//	BOARDCORE_POSTGRES_DSN: postgres DSN when driver=postgres
func OpenSnapshotStore(ctx context.Context) (domain.SnapshotStore, error) {
	driver := StorageDriver(os.Getenv(EnvStorageDriver))
	if driver == "" {
		driver = StorageSQLite
	}
	switch driver {
	case StorageMemory:
		return memory.NewStore(), nil
	case StorageSQLite:
		return sqlite.NewStore(os.Getenv(EnvSQLitePath))
	case StoragePostgres:
		return postgres.NewStore(ctx, os.Getenv(EnvPostgresDSN))
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
