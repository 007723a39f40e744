package filestore

import (
	"errors"
	"fmt"
)

// ErrStoreIO is matched by every StoreIOError via errors.Is.
var ErrStoreIO = errors.New("filestore: storage I/O failed")

// StoreIOError describes a failed read, decode, encode or write of a state file.
type StoreIOError struct {
	Op   string // "read", "decode", "encode", "write", "lock"
	Path string
	Err  error
}

func (e *StoreIOError) Error() string {
	return fmt.Sprintf("filestore: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StoreIOError) Unwrap() error { return e.Err }

// Is reports whether target is ErrStoreIO.
func (e *StoreIOError) Is(target error) bool { return target == ErrStoreIO }
