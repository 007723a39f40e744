package filestore

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/flock"
)

// Locking strategies accepted by NewLocker.
const (
	StrategyMutex = "mutex"
	StrategyFlock = "flock"
)

// flockRetryDelay is how often a contended advisory lock is retried.
const flockRetryDelay = 25 * time.Millisecond

// Locker serialises read-modify-write cycles on one file.
type Locker interface {
	// Lock blocks until the lock is held or ctx is done.
	Lock(ctx context.Context) error
	Unlock() error
}

// NewLocker returns the Locker for strategy guarding the file at path.
func NewLocker(strategy, path string) (Locker, error) {
	switch strategy {
	case "", StrategyMutex:
		return NewMutexLocker(), nil
	case StrategyFlock:
		return NewFileLocker(path), nil
	default:
		return nil, fmt.Errorf("filestore: unknown locking strategy %q", strategy)
	}
}

// MutexLocker is an in-process lock that honours context cancellation.
type MutexLocker struct {
	sem chan struct{}
}

// NewMutexLocker creates an unlocked MutexLocker.
func NewMutexLocker() *MutexLocker {
	return &MutexLocker{sem: make(chan struct{}, 1)}
}

// Lock acquires the lock or returns ctx.Err().
func (m *MutexLocker) Lock(ctx context.Context) error {
	select {
	case m.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Unlock releases the lock.
func (m *MutexLocker) Unlock() error {
	select {
	case <-m.sem:
		return nil
	default:
		return fmt.Errorf("filestore: unlock of unlocked mutex")
	}
}

// FileLocker combines an in-process lock with an advisory file lock on
// "<path>.lock". flock locks are per open file description, so the
// in-process half keeps goroutines of one process from sharing it.
type FileLocker struct {
	local *MutexLocker
	file  *flock.Flock
}

// NewFileLocker creates a FileLocker for the state file at path.
func NewFileLocker(path string) *FileLocker {
	return &FileLocker{
		local: NewMutexLocker(),
		file:  flock.New(path + ".lock"),
	}
}

// Lock acquires both locks or returns an error without holding either.
func (f *FileLocker) Lock(ctx context.Context) error {
	if err := f.local.Lock(ctx); err != nil {
		return err
	}

	locked, err := f.file.TryLockContext(ctx, flockRetryDelay)
	if err != nil || !locked {
		f.local.Unlock() //nolint:errcheck // held by us
		if err == nil {
			err = fmt.Errorf("filestore: could not lock %s", f.file.Path())
		}
		return err
	}
	return nil
}

// Unlock releases the file lock, then the in-process lock.
func (f *FileLocker) Unlock() error {
	err := f.file.Unlock()
	if uerr := f.local.Unlock(); err == nil {
		err = uerr
	}
	return err
}
