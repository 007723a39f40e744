// Package scheduler runs device sweeps in the background on a cron spec.
//
// A scheduled sweep is the same operation as GET /devices: it refreshes
// tracking history, lifts expired blocks and notifies the engine's
// observers. Audit entries it causes are attributed to the scheduler.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/nerrad567/languard-core/internal/audit"
	"github.com/nerrad567/languard-core/internal/engine"
)

// ErrNoSpec is returned by New when the cron spec is empty.
var ErrNoSpec = errors.New("scheduler: sweep spec is empty")

// sweepTimeout bounds one scheduled sweep.
const sweepTimeout = 2 * time.Minute

// Sweeper is the subset of *engine.Engine a scheduled sweep needs.
type Sweeper interface {
	DefaultRange(ctx context.Context) (netip.Prefix, error)
	Compose(ctx context.Context, rng netip.Prefix, now time.Time) ([]engine.DeviceView, error)
}

// Logger is the logging interface used by the scheduler.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}

// Scheduler triggers sweeps on a cron spec.
//
// Overlapping runs are skipped: a sweep that is still in progress when the
// next tick fires keeps going and the tick is dropped.
type Scheduler struct {
	cron    *cron.Cron
	sweeper Sweeper
	spec    string
	now     func() time.Time
	logger  Logger

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a Scheduler for spec, which accepts the standard five-field
// cron syntax and descriptors such as "@every 5m" or "@hourly".
//
// Returns:
//   - *Scheduler: Ready to Start
//   - error: ErrNoSpec, or the parse error for an invalid spec
func New(spec string, sweeper Sweeper) (*Scheduler, error) {
	if spec == "" {
		return nil, ErrNoSpec
	}

	s := &Scheduler{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		sweeper: sweeper,
		spec:    spec,
		now:     time.Now,
		logger:  noopLogger{},
		ctx:     context.Background(),
	}

	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		return nil, fmt.Errorf("invalid sweep spec %q: %w", spec, err)
	}
	return s, nil
}

// SetLogger sets the logger for the scheduler.
func (s *Scheduler) SetLogger(logger Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Start begins firing sweeps. Sweeps run under a child of ctx, so cancelling
// ctx aborts a sweep in progress.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.cron.Start()
	s.logger.Info("sweep scheduler started", "spec", s.spec)
}

// Stop halts the schedule and waits for a running sweep to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.logger.Info("sweep scheduler stopped")
}

// RunOnce performs a single sweep of the default range.
//
// Returns:
//   - int: Number of devices in the composed view
//   - error: Range detection or sweep failure
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	ctx = engine.WithSource(ctx, audit.SourceScheduler)

	rng, err := s.sweeper.DefaultRange(ctx)
	if err != nil {
		return 0, fmt.Errorf("resolving sweep range: %w", err)
	}

	views, err := s.sweeper.Compose(ctx, rng, s.now())
	if err != nil {
		return 0, fmt.Errorf("sweeping %s: %w", rng, err)
	}
	return len(views), nil
}

func (s *Scheduler) tick() {
	s.mu.Lock()
	parent := s.ctx
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(parent, sweepTimeout)
	defer cancel()

	start := time.Now()
	n, err := s.RunOnce(ctx)
	if err != nil {
		s.logger.Warn("scheduled sweep failed", "error", err)
		return
	}
	s.logger.Info("scheduled sweep complete", "devices", n, "duration", time.Since(start))
}
