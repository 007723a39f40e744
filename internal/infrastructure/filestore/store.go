package filestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
)

const (
	dirPermissions  = 0750
	filePermissions = 0600
)

// Store reads and writes one JSON document of type T.
//
// Thread Safety:
//   - Load is lock-free: files are only ever replaced atomically.
//   - Save and Update hold the Locker for their whole duration.
type Store[T any] struct {
	path   string
	locker Locker
}

// New creates a Store for path. A nil locker gets a fresh MutexLocker.
func New[T any](path string, locker Locker) *Store[T] {
	if locker == nil {
		locker = NewMutexLocker()
	}
	return &Store[T]{path: path, locker: locker}
}

// Path returns the file backing the store.
func (s *Store[T]) Path() string {
	return s.path
}

// Load decodes the file into a T. A missing or blank file yields the zero
// value with no error.
func (s *Store[T]) Load(ctx context.Context) (T, error) {
	var v T
	if err := ctx.Err(); err != nil {
		return v, err
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return v, nil
	}
	if err != nil {
		return v, &StoreIOError{Op: "read", Path: s.path, Err: err}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return v, nil
	}

	if err := json.Unmarshal(data, &v); err != nil {
		return v, &StoreIOError{Op: "decode", Path: s.path, Err: err}
	}
	return v, nil
}

// Save atomically replaces the file with v.
func (s *Store[T]) Save(ctx context.Context, v T) error {
	if err := s.lock(ctx); err != nil {
		return err
	}
	defer s.locker.Unlock() //nolint:errcheck // lock file is advisory

	return s.write(v)
}

// Update runs fn on the current document under the lock. When fn reports a
// change the result is written back; otherwise the file is left untouched.
// The document as seen after fn is returned either way.
func (s *Store[T]) Update(ctx context.Context, fn func(*T) (changed bool, err error)) (T, error) {
	var zero T
	if err := s.lock(ctx); err != nil {
		return zero, err
	}
	defer s.locker.Unlock() //nolint:errcheck // lock file is advisory

	v, err := s.Load(ctx)
	if err != nil {
		return zero, err
	}

	changed, err := fn(&v)
	if err != nil {
		return zero, err
	}
	if changed {
		if err := s.write(v); err != nil {
			return zero, err
		}
	}
	return v, nil
}

func (s *Store[T]) lock(ctx context.Context) error {
	if err := s.locker.Lock(ctx); err != nil {
		return &StoreIOError{Op: "lock", Path: s.path, Err: err}
	}
	return nil
}

func (s *Store[T]) write(v T) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &StoreIOError{Op: "encode", Path: s.path, Err: err}
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(s.path), dirPermissions); err != nil {
		return &StoreIOError{Op: "write", Path: s.path, Err: err}
	}
	if err := renameio.WriteFile(s.path, data, filePermissions); err != nil {
		return &StoreIOError{Op: "write", Path: s.path, Err: err}
	}
	return nil
}
