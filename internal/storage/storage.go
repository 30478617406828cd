// Package storage keeps image assets on the local filesystem.
package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"atlantic-photo/internal/model"
)

type Storage interface {
	Save(key string, r io.Reader) (int64, error)
	Open(key string) (*os.File, error)
	Remove(key string) error
}

type Disk struct {
	validator *PathValidator
}

func New(root string) (*Disk, error) {
	validator, err := NewPathValidator(root)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(validator.RootAbs(), 0o755); err != nil {
		return nil, fmt.Errorf("create media root: %w", err)
	}

	return &Disk{validator: validator}, nil
}

func (d *Disk) RootAbs() string {
	return d.validator.RootAbs()
}

// Save writes r to key through a temporary file in the same directory, so
// readers never observe a partially written asset.
func (d *Disk) Save(key string, r io.Reader) (int64, error) {
	resolved, err := d.validator.Resolve(key)
	if err != nil {
		return 0, err
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create asset directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return 0, fmt.Errorf("create temp asset: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	n, err := io.Copy(tmp, r)
	if err != nil {
		_ = tmp.Close()
		return 0, fmt.Errorf("write asset %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("close asset %q: %w", key, err)
	}

	if err := os.Rename(tmpName, resolved); err != nil {
		return 0, fmt.Errorf("commit asset %q: %w", key, err)
	}

	return n, nil
}

func (d *Disk) Open(key string) (*os.File, error) {
	resolved, err := d.validator.Resolve(key)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(resolved)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("asset %q: %w", key, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("open asset %q: %w", key, err)
	}

	info, err := file.Stat()
	if err != nil || info.IsDir() {
		_ = file.Close()
		return nil, fmt.Errorf("asset %q: %w", key, model.ErrNotFound)
	}

	return file, nil
}

// Remove deletes key. Removing a missing asset is not an error.
func (d *Disk) Remove(key string) error {
	resolved, err := d.validator.Resolve(key)
	if err != nil {
		return err
	}

	if err := os.Remove(resolved); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove asset %q: %w", key, err)
	}

	return nil
}
