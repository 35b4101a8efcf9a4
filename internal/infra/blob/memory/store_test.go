package memory

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"boardcore/internal/blob/core"
)

func TestStore_MissingKeys(t *testing.T) {
	store := New()
	ctx := context.Background()
	if _, err := store.Head(ctx, "boards/main/board.json"); !errors.Is(err, core.ErrNotExist) {
		t.Fatalf("expected ErrNotExist from head, got %v", err)
	}
	if _, _, err := store.Get(ctx, "boards/main/board.json"); !errors.Is(err, core.ErrNotExist) {
		t.Fatalf("expected ErrNotExist from get, got %v", err)
	}
	if ok, err := store.Delete(ctx, "boards/main/board.json"); err != nil || ok {
		t.Fatalf("expected delete false, got %v %v", ok, err)
	}
}

func TestStore_PutGetListDelete(t *testing.T) {
	store := New()
	ctx := context.Background()
	md := map[string]string{"board": "b1"}
	info, err := store.Put(ctx, "boards/main/board.json", bytes.NewReader([]byte(`{"uuid":"b1"}`)), core.PutOptions{ContentType: "application/json", Metadata: md})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != 13 || info.ETag == "" {
		t.Fatalf("unexpected info %+v", info)
	}
	md["board"] = "mutated"
	if _, err := store.Put(ctx, "boards/main/board.json", bytes.NewReader(nil), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	got, rc, err := store.Get(ctx, "boards/main/board.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	b, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(b) != `{"uuid":"b1"}` || got.Metadata["board"] != "b1" {
		t.Fatalf("unexpected content %q metadata %v", b, got.Metadata)
	}
	if _, err := store.Put(ctx, "boards/other/board.json", bytes.NewReader([]byte("{}")), core.PutOptions{}); err != nil {
		t.Fatalf("put other: %v", err)
	}
	list, err := store.List(ctx, "boards/")
	if err != nil || len(list) != 2 || list[0].Key != "boards/main/board.json" {
		t.Fatalf("unexpected list %v %v", list, err)
	}
	if list, _ := store.List(ctx, "boards/main/"); len(list) != 1 {
		t.Fatalf("expected prefix filter, got %v", list)
	}
	if ok, err := store.Delete(ctx, "boards/main/board.json"); err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	if _, err := store.PresignURL(ctx, "boards/other/board.json", core.SignedURLOptions{}); !errors.Is(err, core.ErrUnsupported) {
		t.Fatalf("expected unsupported presign, got %v", err)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, fmt.Errorf("fail") }

func TestStore_PutReadErrorAndDriver(t *testing.T) {
	store := New()
	if store.Driver() != core.DriverMemory {
		t.Fatalf("expected memory driver")
	}
	if _, err := store.Put(context.Background(), "bad", failingReader{}, core.PutOptions{}); err == nil {
		t.Fatalf("expected read error")
	}
	if list, _ := store.List(context.Background(), ""); len(list) != 0 {
		t.Fatalf("failed put must not store anything")
	}
}
