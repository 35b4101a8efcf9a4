package fs

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"boardcore/internal/blob/core"
)

func newTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return store
}

func TestStore_PutGetHeadListDelete(t *testing.T) {
	ctx := context.Background()
	store := newTempStore(t)
	info, err := store.Put(ctx, "boards/main/board.json", bytes.NewReader([]byte("hello")), core.PutOptions{ContentType: "application/json", Metadata: map[string]string{"k": "v"}})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Key != "boards/main/board.json" || info.Size != 5 {
		t.Fatalf("unexpected info %+v", info)
	}
	if _, err := store.Put(ctx, "boards/main/board.json", bytes.NewReader([]byte("x")), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	h, err := store.Head(ctx, "boards/main/board.json")
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	g, rc, err := store.Get(ctx, "boards/main/board.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	b, _ := io.ReadAll(rc)
	if err := rc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if string(b) != "hello" || g.ETag != h.ETag || g.Metadata["k"] != "v" {
		t.Fatalf("unexpected get artifacts %+v", g)
	}
	if _, err := store.Put(ctx, "boards/other/board.json", bytes.NewReader([]byte("{}")), core.PutOptions{}); err != nil {
		t.Fatalf("put other: %v", err)
	}
	list, err := store.List(ctx, "boards/main/")
	if err != nil || len(list) != 1 || list[0].Key != "boards/main/board.json" {
		t.Fatalf("unexpected list %+v %v", list, err)
	}
	all, err := store.List(ctx, "")
	if err != nil || len(all) != 2 || all[0].Key > all[1].Key {
		t.Fatalf("expected sorted full list, got %+v %v", all, err)
	}
	ok, err := store.Delete(ctx, "boards/main/board.json")
	if err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	if _, err := os.Stat(filepath.Join(store.Root(), "boards", "main")); !os.IsNotExist(err) {
		t.Fatalf("expected empty board directory to be pruned, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(store.Root(), "boards", "other")); err != nil {
		t.Fatalf("sibling directory must survive: %v", err)
	}
	ok, err = store.Delete(ctx, "boards/main/board.json")
	if err != nil || ok {
		t.Fatalf("second delete should be false")
	}
	if _, _, err := store.Get(ctx, "boards/main/board.json"); !errors.Is(err, core.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
	if _, err := store.Head(ctx, "boards/main/board.json"); !errors.Is(err, core.ErrNotExist) {
		t.Fatalf("expected ErrNotExist from head, got %v", err)
	}
}

func TestSanitizeKeyErrors(t *testing.T) {
	for _, c := range []string{"", "   ", "../escape", "/abs", "a/../b", "board.json.meta"} {
		if _, err := sanitizeKey(c); err == nil {
			t.Fatalf("expected error for key %q", c)
		}
	}
	if k, err := sanitizeKey("boards//main/./board.json"); err != nil || k != "boards/main/board.json" {
		t.Fatalf("unexpected clean key %q %v", k, err)
	}
}

type errorReader struct{}

func (errorReader) Read([]byte) (int, error) { return 0, errors.New("boom") }

func TestStore_PutCopyError(t *testing.T) {
	store := newTempStore(t)
	if _, err := store.Put(context.Background(), "bad.bin", errorReader{}, core.PutOptions{}); err == nil {
		t.Fatalf("expected copy error")
	}
	if _, err := os.Stat(filepath.Join(store.Root(), "bad.bin")); !os.IsNotExist(err) {
		t.Fatalf("failed put must not leave data behind")
	}
}

func TestStore_PresignVariants(t *testing.T) {
	ctx := context.Background()
	store := newTempStore(t)
	if url, err := store.PresignURL(ctx, "boards/a/board.json", core.SignedURLOptions{Method: "get"}); err != nil || url != "http://local.blob/boards/a/board.json" {
		t.Fatalf("presign lower: %v %s", err, url)
	}
	if _, err := store.PresignURL(ctx, "boards/a/board.json", core.SignedURLOptions{Method: "PUT"}); !errors.Is(err, core.ErrUnsupported) {
		t.Fatalf("expected unsupported for PUT, got %v", err)
	}
}

func TestListMetaCorrupt(t *testing.T) {
	store := newTempStore(t)
	data := filepath.Join(store.Root(), "bad.txt")
	if err := os.WriteFile(data, []byte("data"), 0o644); err != nil {
		t.Fatalf("write data: %v", err)
	}
	if err := os.WriteFile(data+metaSuffix, []byte("{"), 0o644); err != nil {
		t.Fatalf("write meta: %v", err)
	}
	if _, err := store.List(context.Background(), ""); err == nil {
		t.Fatalf("expected list error on corrupt meta")
	}
}

func TestWriteJSONMarshalError(t *testing.T) {
	old := jsonMarshal
	jsonMarshal = func(any) ([]byte, error) { return nil, errors.New("marshal fail") }
	t.Cleanup(func() { jsonMarshal = old })
	store := newTempStore(t)
	if _, err := store.Put(context.Background(), "x.json", bytes.NewReader([]byte("x")), core.PutOptions{}); err == nil {
		t.Fatalf("expected marshal error")
	}
	if _, err := os.Stat(filepath.Join(store.Root(), "x.json")); !os.IsNotExist(err) {
		t.Fatalf("expected data file to be removed after sidecar failure")
	}
}
