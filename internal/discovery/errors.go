package discovery

import (
	"errors"
	"fmt"
)

// ErrScan is matched by every *ScanError via errors.Is.
var ErrScan = errors.New("discovery: scan failed")

// ErrRangeTooLarge is wrapped when a range holds more hosts than allowed.
var ErrRangeTooLarge = errors.New("discovery: range too large")

// ErrUnsupportedRange is wrapped when a range cannot be swept at all, such as
// an IPv6 prefix.
var ErrUnsupportedRange = errors.New("discovery: unsupported range")

// IsRangeError reports whether err was caused by the requested range rather
// than by the network or the host.
func IsRangeError(err error) bool {
	return errors.Is(err, ErrRangeTooLarge) || errors.Is(err, ErrUnsupportedRange)
}

// ScanError reports why a sweep could not complete.
type ScanError struct {
	Op  string // "range", "gateway", "interface", "open", "send", "read", "cancel"
	Err error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("discovery: %s: %v", e.Op, e.Err)
}

func (e *ScanError) Unwrap() error { return e.Err }

// Is reports whether target is ErrScan.
func (e *ScanError) Is(target error) bool { return target == ErrScan }
