package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"boardcore/internal/infra/persistence/postgres/testutil"
	"boardcore/pkg/domain"
)

func openStub(t *testing.T) (*Store, *testutil.StubConn, *sql.DB) {
	t.Helper()
	db, conn := testutil.NewStubDB()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	t.Cleanup(restore)
	store, err := NewStore(context.Background(), "")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store, conn, db
}

func snapshot(id, payload string) domain.BoardSnapshot {
	return domain.BoardSnapshot{BoardID: id, Name: "Main", Payload: []byte(payload), SavedAt: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)}
}

func TestNewStoreCreatesTableAndLoadsSnapshots(t *testing.T) {
	db, conn := testutil.NewStubDB()
	conn.Tables["board_snapshots"] = []testutil.Row{{
		"board_id": "b1", "name": "Main", "payload": []byte(`{"v":1}`),
		"saved_at": time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
	}}
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()

	store, err := NewStore(context.Background(), "postgres://ignored")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	got, ok, err := store.Load(context.Background(), "b1")
	if err != nil || !ok || string(got.Payload) != `{"v":1}` {
		t.Fatalf("expected hydrated snapshot, got %+v %v %v", got.Info(), ok, err)
	}
	if len(conn.Execs) == 0 || !strings.Contains(strings.ToUpper(conn.Execs[0]), "CREATE TABLE IF NOT EXISTS BOARD_SNAPSHOTS") {
		t.Fatalf("expected table DDL first, got %v", conn.Execs)
	}
}

func TestSaveWritesThroughAndDeleteRemoves(t *testing.T) {
	ctx := context.Background()
	store, conn, _ := openStub(t)
	if err := store.Save(ctx, snapshot("b1", `{"v":1}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Save(ctx, snapshot("b1", `{"v":2}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	rows := conn.Tables["board_snapshots"]
	if len(rows) != 1 || string(rows[0]["payload"].([]byte)) != `{"v":2}` {
		t.Fatalf("expected one upserted row, got %v", rows)
	}
	if ok, err := store.Delete(ctx, "b1"); err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	if len(conn.Tables["board_snapshots"]) != 0 {
		t.Fatalf("row not deleted")
	}
	if ok, _ := store.Delete(ctx, "b1"); ok {
		t.Fatalf("second delete must report missing")
	}
}

func TestFailedSaveKeepsPreviousSnapshot(t *testing.T) {
	ctx := context.Background()
	store, conn, _ := openStub(t)
	if err := store.Save(ctx, snapshot("b1", `{"v":1}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	conn.FailCommit = true
	if err := store.Save(ctx, snapshot("b1", `{"v":2}`)); err == nil {
		t.Fatalf("expected commit failure")
	}
	got, _, _ := store.Load(ctx, "b1")
	if string(got.Payload) != `{"v":1}` {
		t.Fatalf("failed save replaced the cached snapshot: %s", got.Payload)
	}
	conn.FailCommit = false
	conn.FailTables = map[string]bool{"board_snapshots": true}
	if err := store.Save(ctx, snapshot("b1", `{"v":3}`)); err == nil {
		t.Fatalf("expected insert failure")
	}
	if err := store.Save(ctx, domain.BoardSnapshot{BoardID: "b2"}); !errors.Is(err, domain.ErrInvariantViolation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestNewStoreErrors(t *testing.T) {
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return nil, errors.New("boom") })
	if _, err := NewStore(context.Background(), ""); err == nil {
		t.Fatalf("expected open failure")
	}
	restore()

	db, conn := testutil.NewStubDB()
	conn.FailPing = true
	restore = OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()
	if _, err := NewStore(context.Background(), ""); err == nil {
		t.Fatalf("expected ping failure")
	}
	conn.FailPing = false
	conn.FailTables = map[string]bool{"board_snapshots": true}
	if _, err := NewStore(context.Background(), ""); err == nil {
		t.Fatalf("expected select failure")
	}
}
