package router

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Controller blocks and unblocks devices at the router.
type Controller interface {
	Login(ctx context.Context) error
	BlockDevice(ctx context.Context, mac string) error
	UnblockDevice(ctx context.Context, mac string) error
}

// Logger is the logging interface used by drivers.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}

// Factory builds a driver for a profile.
type Factory func(p Profile, logger Logger) (Controller, error)

var registry = map[string]Factory{
	"huawei": newHuawei,
	"dryrun": newDryRun,
}

// Brands lists the registered brand names in sorted order.
func Brands() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New returns the driver for p.Brand, looked up case-insensitively.
// Errors from the returned Controller are *AdapterError values.
func New(p Profile, logger Logger) (Controller, error) {
	brand := strings.ToLower(strings.TrimSpace(p.Brand))
	factory, ok := registry[brand]
	if !ok {
		return nil, fmt.Errorf("%w %q (known: %s)", ErrUnknownBrand, p.Brand, strings.Join(Brands(), ", "))
	}
	if logger == nil {
		logger = noopLogger{}
	}

	ctrl, err := factory(p, logger)
	if err != nil {
		return nil, fmt.Errorf("creating %s driver: %w", brand, err)
	}
	return &adapter{brand: brand, ctrl: ctrl}, nil
}

// adapter turns driver errors into AdapterErrors.
type adapter struct {
	brand string
	ctrl  Controller
}

func (a *adapter) Login(ctx context.Context) error {
	return a.wrap("login", "", a.ctrl.Login(ctx))
}

func (a *adapter) BlockDevice(ctx context.Context, mac string) error {
	return a.wrap("block", mac, a.ctrl.BlockDevice(ctx, mac))
}

func (a *adapter) UnblockDevice(ctx context.Context, mac string) error {
	return a.wrap("unblock", mac, a.ctrl.UnblockDevice(ctx, mac))
}

func (a *adapter) wrap(op, mac string, err error) error {
	if err == nil {
		return nil
	}
	return &AdapterError{Brand: a.brand, Op: op, MAC: mac, Err: err}
}

// Driver returns the brand driver behind c when c came from New.
func Driver(c Controller) Controller {
	if a, ok := c.(*adapter); ok {
		return a.ctrl
	}
	return c
}
