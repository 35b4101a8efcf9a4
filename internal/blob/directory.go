package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

// Directory is a prefix-scoped view of a Store. File names are relative to
// the directory and may contain '/'.
type Directory struct {
	store  Store
	prefix string
}

// NewDirectory returns the directory at dir inside store. An empty dir is the
// store root.
func NewDirectory(store Store, dir string) *Directory {
	return &Directory{store: store, prefix: cleanDir(dir)}
}

func cleanDir(dir string) string {
	dir = strings.Trim(path.Clean("/"+dir), "/")
	if dir == "" {
		return ""
	}
	return dir + "/"
}

// Path returns the directory path without trailing separator.
func (d *Directory) Path() string { return strings.TrimSuffix(d.prefix, "/") }

// Name returns the last element of the directory path.
func (d *Directory) Name() string { return path.Base("/" + d.Path()) }

// Store returns the backing store.
func (d *Directory) Store() Store { return d.store }

// Sub returns a child directory.
func (d *Directory) Sub(name string) *Directory {
	return NewDirectory(d.store, d.prefix+name)
}

func (d *Directory) key(name string) string { return d.prefix + name }

// Read returns the content of name.
func (d *Directory) Read(ctx context.Context, name string) ([]byte, error) {
	_, rc, err := d.store.Get(ctx, d.key(name))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return io.ReadAll(rc)
}

// Exists reports whether name holds a file.
func (d *Directory) Exists(ctx context.Context, name string) (bool, error) {
	_, err := d.store.Head(ctx, d.key(name))
	if errors.Is(err, ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

// Write creates or replaces name.
func (d *Directory) Write(ctx context.Context, name string, data []byte, opts PutOptions) error {
	if _, err := d.store.Delete(ctx, d.key(name)); err != nil {
		return fmt.Errorf("replace %s: %w", d.key(name), err)
	}
	if _, err := d.store.Put(ctx, d.key(name), bytes.NewReader(data), opts); err != nil {
		return fmt.Errorf("write %s: %w", d.key(name), err)
	}
	return nil
}

// Remove deletes name. Removing a missing file is not an error.
func (d *Directory) Remove(ctx context.Context, name string) error {
	_, err := d.store.Delete(ctx, d.key(name))
	return err
}

// Files lists the names of all files below the directory, ordered.
func (d *Directory) Files(ctx context.Context) ([]string, error) {
	infos, err := d.store.List(ctx, d.prefix)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, strings.TrimPrefix(info.Key, d.prefix))
	}
	return names, nil
}

// IsEmpty reports whether the directory holds no files.
func (d *Directory) IsEmpty(ctx context.Context) (bool, error) {
	names, err := d.Files(ctx)
	return len(names) == 0, err
}

// MoveTo moves every file into dst, which must be empty. If a copy fails the
// files already copied are removed again and the source stays untouched.
// Both directories may live in different stores.
func (d *Directory) MoveTo(ctx context.Context, dst *Directory) error {
	if dst == nil {
		return fmt.Errorf("move %s: nil destination", d.Path())
	}
	if d.store == dst.store && d.prefix == dst.prefix {
		return nil
	}
	empty, err := dst.IsEmpty(ctx)
	if err != nil {
		return err
	}
	if !empty {
		return fmt.Errorf("move %s to %s: %w", d.Path(), dst.Path(), ErrExists)
	}
	names, err := d.Files(ctx)
	if err != nil {
		return err
	}
	copied := make([]string, 0, len(names))
	for _, name := range names {
		if err := d.copyFile(ctx, dst, name); err != nil {
			for _, c := range copied {
				_ = dst.Remove(ctx, c)
			}
			return fmt.Errorf("move %s to %s: %w", d.Path(), dst.Path(), err)
		}
		copied = append(copied, name)
	}
	for _, name := range names {
		if err := d.Remove(ctx, name); err != nil {
			return fmt.Errorf("move %s: cleanup %s: %w", d.Path(), name, err)
		}
	}
	return nil
}

func (d *Directory) copyFile(ctx context.Context, dst *Directory, name string) error {
	info, rc, err := d.store.Get(ctx, d.key(name))
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()
	_, err = dst.store.Put(ctx, dst.key(name), rc, PutOptions{ContentType: info.ContentType, Metadata: info.Metadata})
	return err
}
