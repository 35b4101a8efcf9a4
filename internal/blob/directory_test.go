package blob

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func seed(t *testing.T, d *Directory, files map[string]string) {
	t.Helper()
	for name, content := range files {
		if err := d.Write(context.Background(), name, []byte(content), PutOptions{}); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func TestDirectoryReadWriteFiles(t *testing.T) {
	ctx := context.Background()
	d := NewDirectory(NewMemory(), "/boards//main/")
	if d.Path() != "boards/main" || d.Name() != "main" {
		t.Fatalf("unexpected path %q name %q", d.Path(), d.Name())
	}
	seed(t, d, map[string]string{"board.json": "v1", "settings.user.yaml": "s"})
	if err := d.Write(ctx, "board.json", []byte("v2"), PutOptions{}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := d.Read(ctx, "board.json")
	if err != nil || string(got) != "v2" {
		t.Fatalf("read: %q %v", got, err)
	}
	names, err := d.Files(ctx)
	if err != nil {
		t.Fatalf("files: %v", err)
	}
	if diff := cmp.Diff([]string{"board.json", "settings.user.yaml"}, names); diff != "" {
		t.Fatalf("files mismatch (-want +got):\n%s", diff)
	}
	if ok, err := d.Exists(ctx, "missing.json"); err != nil || ok {
		t.Fatalf("expected missing file, got %v %v", ok, err)
	}
	if err := d.Remove(ctx, "settings.user.yaml"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := d.Remove(ctx, "settings.user.yaml"); err != nil {
		t.Fatalf("removing a missing file must succeed: %v", err)
	}
	if _, err := d.Read(ctx, "settings.user.yaml"); !errors.Is(err, ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
}

func TestDirectoryMoveToAcrossStores(t *testing.T) {
	for _, tc := range []struct {
		name string
		dst  func(t *testing.T) Store
	}{
		{name: "memory", dst: func(*testing.T) Store { return NewMemory() }},
		{name: "fs", dst: func(t *testing.T) Store {
			st, err := NewFilesystem(t.TempDir())
			if err != nil {
				t.Fatalf("fs: %v", err)
			}
			return st
		}},
		{name: "s3", dst: func(*testing.T) Store { return NewFakeS3() }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			src := NewDirectory(NewMemory(), "staging/b1")
			seed(t, src, map[string]string{"board.json": "{}", "settings.user.yaml": "x"})
			dst := NewDirectory(tc.dst(t), "boards/main")
			if err := src.MoveTo(ctx, dst); err != nil {
				t.Fatalf("move: %v", err)
			}
			if empty, _ := src.IsEmpty(ctx); !empty {
				t.Fatalf("expected source to be empty")
			}
			names, _ := dst.Files(ctx)
			if diff := cmp.Diff([]string{"board.json", "settings.user.yaml"}, names); diff != "" {
				t.Fatalf("moved files mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDirectoryMoveToRefusesNonEmptyDestination(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()
	src := NewDirectory(st, "a")
	dst := NewDirectory(st, "b")
	seed(t, src, map[string]string{"board.json": "a"})
	seed(t, dst, map[string]string{"board.json": "b"})
	if err := src.MoveTo(ctx, dst); !errors.Is(err, ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	if got, _ := src.Read(ctx, "board.json"); string(got) != "a" {
		t.Fatalf("source must be untouched, got %q", got)
	}
	if err := src.MoveTo(ctx, src); err != nil {
		t.Fatalf("moving onto itself is a no-op: %v", err)
	}
}

type failingPutStore struct {
	Store
	failKey string
}

func (f failingPutStore) Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error) {
	if key == f.failKey {
		return Info{}, errors.New("disk full")
	}
	return f.Store.Put(ctx, key, r, opts)
}

func TestDirectoryMoveToRollsBackPartialCopy(t *testing.T) {
	ctx := context.Background()
	src := NewDirectory(NewMemory(), "src")
	seed(t, src, map[string]string{"a.json": "a", "b.json": "b"})
	dst := NewDirectory(failingPutStore{Store: NewMemory(), failKey: "dst/b.json"}, "dst")
	if err := src.MoveTo(ctx, dst); err == nil {
		t.Fatalf("expected move failure")
	}
	if empty, _ := dst.IsEmpty(ctx); !empty {
		t.Fatalf("expected copied files to be removed from destination")
	}
	names, _ := src.Files(ctx)
	if len(names) != 2 {
		t.Fatalf("source must keep all files, got %v", names)
	}
}
