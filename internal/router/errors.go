package router

import (
	"errors"
	"fmt"
)

var (
	// ErrAdapter is matched by every *AdapterError.
	ErrAdapter = errors.New("router: adapter failed")

	// ErrUnknownBrand is returned by New for brands without a driver.
	ErrUnknownBrand = errors.New("router: unknown brand")
)

// AdapterError reports a failed router action.
type AdapterError struct {
	Brand string
	Op    string // "login", "block", "unblock"
	MAC   string
	Err   error
}

func (e *AdapterError) Error() string {
	if e.MAC == "" {
		return fmt.Sprintf("router %s: %s: %v", e.Brand, e.Op, e.Err)
	}
	return fmt.Sprintf("router %s: %s %s: %v", e.Brand, e.Op, e.MAC, e.Err)
}

func (e *AdapterError) Unwrap() error { return e.Err }

// Is reports whether target is ErrAdapter.
func (e *AdapterError) Is(target error) bool { return target == ErrAdapter }
