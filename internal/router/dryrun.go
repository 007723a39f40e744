package router

import (
	"context"
	"sort"
	"sync"
)

// DryRun records blocks in memory without touching any router.
type DryRun struct {
	logger Logger

	mu      sync.Mutex
	blocked map[string]bool
	fail    error
}

func newDryRun(_ Profile, logger Logger) (Controller, error) {
	return NewDryRun(logger), nil
}

// NewDryRun creates an empty DryRun driver.
func NewDryRun(logger Logger) *DryRun {
	if logger == nil {
		logger = noopLogger{}
	}
	return &DryRun{logger: logger, blocked: make(map[string]bool)}
}

// FailWith makes every following action return err (nil clears it).
func (d *DryRun) FailWith(err error) {
	d.mu.Lock()
	d.fail = err
	d.mu.Unlock()
}

// Login succeeds unless a failure is configured.
func (d *DryRun) Login(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fail
}

// BlockDevice marks mac as blocked.
func (d *DryRun) BlockDevice(ctx context.Context, mac string) error {
	if err := d.Login(ctx); err != nil {
		return err
	}
	d.mu.Lock()
	d.blocked[mac] = true
	d.mu.Unlock()
	d.logger.Info("dryrun: block", "mac", mac)
	return nil
}

// UnblockDevice clears mac.
func (d *DryRun) UnblockDevice(ctx context.Context, mac string) error {
	if err := d.Login(ctx); err != nil {
		return err
	}
	d.mu.Lock()
	delete(d.blocked, mac)
	d.mu.Unlock()
	d.logger.Info("dryrun: unblock", "mac", mac)
	return nil
}

// Blocked returns the identities currently blocked, sorted.
func (d *DryRun) Blocked() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(d.blocked))
	for mac := range d.blocked {
		out = append(out, mac)
	}
	sort.Strings(out)
	return out
}
