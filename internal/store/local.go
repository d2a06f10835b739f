package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"marketsynth/internal/errors"
)

// LocalStore persists values as JSON files under a base directory.
type LocalStore struct {
	base string
}

// NewLocalStore creates the base directory if needed.
func NewLocalStore(base string) (*LocalStore, error) {
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, errors.NewStorageError("init", base, err)
	}
	return &LocalStore{base: base}, nil
}

// Save writes v as JSON to the given relative path.
func (s *LocalStore) Save(ctx context.Context, path string, v interface{}) error {
	if err := ctx.Err(); err != nil {
		return errors.NewStorageError("save", path, err)
	}
	full := filepath.Join(s.base, path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return errors.NewStorageError("save", path, err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.NewStorageError("save", path, err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return errors.NewStorageError("save", path, err)
	}
	return nil
}

// Load reads the JSON file at the given relative path into v.
func (s *LocalStore) Load(ctx context.Context, path string, v interface{}) error {
	if err := ctx.Err(); err != nil {
		return errors.NewStorageError("load", path, err)
	}
	data, err := os.ReadFile(filepath.Join(s.base, path))
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NewStorageError("load", path, errors.ErrDataNotFound)
		}
		return errors.NewStorageError("load", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.NewStorageError("load", path, err)
	}
	return nil
}

// Exists reports whether a file exists at the given relative path.
func (s *LocalStore) Exists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, errors.NewStorageError("exists", path, err)
	}
	_, err := os.Stat(filepath.Join(s.base, path))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.NewStorageError("exists", path, err)
}

// List returns the names (relative to dir) of files matching the glob
// pattern under the given directory.
func (s *LocalStore) List(ctx context.Context, dir, pattern string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewStorageError("list", dir, err)
	}
	matches, err := filepath.Glob(filepath.Join(s.base, dir, pattern))
	if err != nil {
		return nil, errors.NewStorageError("list", dir, err)
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, filepath.Base(m))
	}
	return names, nil
}

// Delete removes the file at the given relative path.
func (s *LocalStore) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return errors.NewStorageError("delete", path, err)
	}
	if err := os.Remove(filepath.Join(s.base, path)); err != nil {
		if os.IsNotExist(err) {
			return errors.NewStorageError("delete", path, errors.ErrDataNotFound)
		}
		return errors.NewStorageError("delete", path, err)
	}
	return nil
}
