package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DiskStore writes icons below a root directory.
type DiskStore struct {
	root string
}

// NewDiskStore creates the icon directory below root if needed.
func NewDiskStore(root string) (*DiskStore, error) {
	if err := os.MkdirAll(filepath.Join(root, filepath.FromSlash(IconPrefix)), 0o755); err != nil {
		return nil, fmt.Errorf("create icon dir: %w", err)
	}
	return &DiskStore{root: root}, nil
}

// Put writes the object to disk.
func (d *DiskStore) Put(ctx context.Context, key string, r io.Reader, _ int64, _ string) error {
	target, err := d.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	f, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = os.Remove(target)
		return fmt.Errorf("write file: %w", err)
	}
	return f.Close()
}

// Delete removes the object. Missing files are not an error.
func (d *DiskStore) Delete(ctx context.Context, key string) error {
	target, err := d.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

func (d *DiskStore) resolve(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(d.root, clean), nil
}
