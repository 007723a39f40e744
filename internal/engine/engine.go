package engine

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"time"

	"github.com/nerrad567/languard-core/internal/audit"
	"github.com/nerrad567/languard-core/internal/blocklist"
	"github.com/nerrad567/languard-core/internal/discovery"
	"github.com/nerrad567/languard-core/internal/identity"
	"github.com/nerrad567/languard-core/internal/presence"
	"github.com/nerrad567/languard-core/internal/router"
	"github.com/nerrad567/languard-core/internal/tracking"
)

// ErrMissingIdentity is returned when a block request names no device.
var ErrMissingIdentity = errors.New("engine: mac address is required")

// Scanner runs network sweeps.
type Scanner interface {
	Sweep(ctx context.Context, rng netip.Prefix) ([]discovery.Result, error)
	DefaultRange(ctx context.Context) (netip.Prefix, error)
}

// Reconciler folds sweep results into tracking history.
type Reconciler interface {
	Reconcile(ctx context.Context, results []discovery.Result, now time.Time) ([]presence.Enriched, error)
}

// Ledger is the block list.
type Ledger interface {
	Load(ctx context.Context) ([]blocklist.Entry, error)
	Block(ctx context.Context, id, duration string, now time.Time) (blocklist.Entry, error)
	Unblock(ctx context.Context, id string) (bool, error)
	SweepExpired(ctx context.Context, now time.Time) (blocklist.SweepResult, error)
}

// HistoryStore exposes the raw tracking records.
type HistoryStore interface {
	Load(ctx context.Context) (tracking.Records, error)
}

// AuditRecorder persists audit entries. *audit.SQLiteRepository satisfies it.
type AuditRecorder interface {
	Create(ctx context.Context, entry *audit.Entry) error
}

// Logger is the logging interface used by the engine.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Deps holds the collaborators of an Engine. Audit is optional.
type Deps struct {
	Scanner    Scanner
	Reconciler Reconciler
	Ledger     Ledger
	History    HistoryStore
	Router     router.Controller
	Audit      AuditRecorder
}

// Engine is the device discovery and reconciliation engine.
//
// Thread Safety:
//   - All methods are safe for concurrent use. Shared state lives in the
//     tracking and ledger stores, which serialise their own writes.
type Engine struct {
	deps      Deps
	observers []Observer
	logger    Logger
}

// New creates an Engine.
func New(deps Deps) *Engine {
	return &Engine{deps: deps, logger: noopLogger{}}
}

// SetLogger sets the logger for the engine.
func (e *Engine) SetLogger(logger Logger) {
	if logger != nil {
		e.logger = logger
	}
}

// AddObserver registers o for view and block notifications. Observers must
// be added before the engine is shared between goroutines.
func (e *Engine) AddObserver(o Observer) {
	e.observers = append(e.observers, o)
}

// DefaultRange returns the range swept when the caller gives none.
func (e *Engine) DefaultRange(ctx context.Context) (netip.Prefix, error) {
	return e.deps.Scanner.DefaultRange(ctx)
}

// Compose sweeps rng and returns the device list at now.
//
// Steps:
//  1. sweep the range
//  2. fold the responders into tracking history
//  3. lazily expire the ledger (expired blocks are lifted at the router)
//  4. responders with an active block are "blocked", others "online"
//  5. active blocks on devices that did not respond are "scheduled"
//
// Output holds the responders in scan order followed by the block-only
// entries in ledger order.
func (e *Engine) Compose(ctx context.Context, rng netip.Prefix, now time.Time) ([]DeviceView, error) {
	enriched, err := e.sweep(ctx, rng, now)
	if err != nil {
		return nil, err
	}

	swept, err := e.deps.Ledger.SweepExpired(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("expiring blocks: %w", err)
	}
	e.liftExpired(ctx, swept.Expired, now)

	active := make(map[string]blocklist.Entry, len(swept.Active))
	for _, entry := range swept.Active {
		active[entry.MAC] = entry
	}

	views := make([]DeviceView, 0, len(enriched)+len(swept.Active))
	seen := make(map[string]bool, len(enriched))
	for _, en := range enriched {
		seen[en.MAC] = true
		v := viewFromEnriched(en)
		if entry, ok := active[en.MAC]; ok {
			v = v.withBlock(entry, presence.StatusBlocked)
		}
		views = append(views, v)
	}
	for _, entry := range swept.Active {
		if seen[entry.MAC] {
			continue
		}
		views = append(views, DeviceView{MAC: entry.MAC}.withBlock(entry, presence.StatusScheduled))
	}

	e.logger.Debug("composed device views",
		"range", rng.String(),
		"responders", len(enriched),
		"active_blocks", len(swept.Active),
		"expired_blocks", swept.Removed(),
	)
	for _, o := range e.observers {
		o.DevicesUpdated(ctx, views)
	}
	return views, nil
}

// Scan sweeps rng and updates tracking history without consulting the
// ledger. Every view is "online".
func (e *Engine) Scan(ctx context.Context, rng netip.Prefix, now time.Time) ([]DeviceView, error) {
	enriched, err := e.sweep(ctx, rng, now)
	if err != nil {
		return nil, err
	}
	views := make([]DeviceView, 0, len(enriched))
	for _, en := range enriched {
		views = append(views, viewFromEnriched(en))
	}
	return views, nil
}

func (e *Engine) sweep(ctx context.Context, rng netip.Prefix, now time.Time) ([]presence.Enriched, error) {
	results, err := e.deps.Scanner.Sweep(ctx, rng)
	if err != nil {
		return nil, fmt.Errorf("sweeping network: %w", err)
	}
	enriched, err := e.deps.Reconciler.Reconcile(ctx, results, now)
	if err != nil {
		return nil, fmt.Errorf("reconciling presence: %w", err)
	}
	return enriched, nil
}

// liftExpired asks the router to unblock devices whose block lapsed.
// Failures are logged and audited but never fail the composition.
func (e *Engine) liftExpired(ctx context.Context, expired []blocklist.Entry, now time.Time) {
	for _, entry := range expired {
		if err := e.deps.Router.UnblockDevice(ctx, entry.MAC); err != nil {
			e.logger.Warn("lifting expired block at router failed", "mac", entry.MAC, "error", err)
			e.record(ctx, audit.ActionRouterError, entry.MAC, now, map[string]any{
				"op":    "expire",
				"error": err.Error(),
			})
		}

		details := map[string]any{"blocked_at": entry.BlockedAt}
		if entry.ExpiresAt != nil {
			details["expires_at"] = *entry.ExpiresAt
		}
		e.record(ctx, audit.ActionExpire, entry.MAC, now, details)

		e.notifyBlock(ctx, BlockChange{Action: audit.ActionExpire, MAC: entry.MAC, At: now})
	}
}

// History returns every tracking record sorted by identity, with no status.
func (e *Engine) History(ctx context.Context) ([]tracking.Entry, error) {
	recs, err := e.deps.History.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading tracking history: %w", err)
	}
	return recs.Sorted(), nil
}

// BlockList returns the raw ledger with no expiry applied.
func (e *Engine) BlockList(ctx context.Context) ([]blocklist.Entry, error) {
	entries, err := e.deps.Ledger.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading block list: %w", err)
	}
	return entries, nil
}

// BlockOutcome describes a successful block.
type BlockOutcome struct {
	Entry    blocklist.Entry
	Duration string // as requested, or "indefinite"
}

// Block blocks mac at the router and records it in the ledger.
//
// The duration is validated before the router is contacted. If the router
// refuses, the error is an *router.AdapterError and the ledger is untouched.
// If the ledger cannot be written the router block is lifted again, so the
// router is never left blocking a device the ledger does not list.
//
// Returns:
//   - ErrMissingIdentity: mac is empty
//   - *blocklist.InvalidDurationError: duration is malformed
//   - *router.AdapterError: the router refused
//   - *filestore.StoreIOError: the ledger could not be written
func (e *Engine) Block(ctx context.Context, mac, duration string, now time.Time) (BlockOutcome, error) {
	id := identity.Normalize(mac)
	if id == "" {
		return BlockOutcome{}, ErrMissingIdentity
	}
	if duration != "" {
		if _, err := blocklist.ParseDuration(duration); err != nil {
			return BlockOutcome{}, err
		}
	}

	if err := e.deps.Router.BlockDevice(ctx, id); err != nil {
		e.record(ctx, audit.ActionRouterError, id, now, map[string]any{"op": "block", "error": err.Error()})
		return BlockOutcome{}, err
	}

	entry, err := e.deps.Ledger.Block(ctx, id, duration, now)
	if err != nil {
		err = fmt.Errorf("recording block: %w", err)
		e.rollbackBlock(ctx, id, now, err)
		return BlockOutcome{}, err
	}

	out := BlockOutcome{Entry: entry, Duration: duration}
	if out.Duration == "" {
		out.Duration = "indefinite"
	}

	details := map[string]any{"duration": out.Duration}
	if entry.ExpiresAt != nil {
		details["expires_at"] = *entry.ExpiresAt
	}
	e.record(ctx, audit.ActionBlock, id, now, details)
	e.logger.Info("device blocked", "mac", id, "duration", out.Duration)
	e.notifyBlock(ctx, BlockChange{Action: audit.ActionBlock, MAC: id, Entry: &entry, At: now})
	return out, nil
}

// rollbackBlock undoes a router block whose ledger write failed. The attempt
// is audited either way; a failed rollback leaves the device blocked at the
// router with no ledger entry.
func (e *Engine) rollbackBlock(ctx context.Context, id string, now time.Time, cause error) {
	details := map[string]any{"op": "block", "error": cause.Error(), "rolled_back": true}
	if err := e.deps.Router.UnblockDevice(ctx, id); err != nil {
		details["rolled_back"] = false
		details["rollback_error"] = err.Error()
		e.logger.Error("rolling back router block failed", "mac", id, "error", err, "cause", cause)
	} else {
		e.logger.Warn("router block rolled back", "mac", id, "cause", cause)
	}
	e.record(ctx, audit.ActionRouterError, id, now, details)
}

// Unblock lifts the block on mac at the router and removes it from the
// ledger. Unblocking a device that is not in the ledger succeeds and
// reports false.
func (e *Engine) Unblock(ctx context.Context, mac string, now time.Time) (bool, error) {
	id := identity.Normalize(mac)
	if id == "" {
		return false, ErrMissingIdentity
	}

	if err := e.deps.Router.UnblockDevice(ctx, id); err != nil {
		e.record(ctx, audit.ActionRouterError, id, now, map[string]any{"op": "unblock", "error": err.Error()})
		return false, err
	}

	removed, err := e.deps.Ledger.Unblock(ctx, id)
	if err != nil {
		return false, fmt.Errorf("removing block: %w", err)
	}

	e.record(ctx, audit.ActionUnblock, id, now, map[string]any{"was_blocked": removed})
	e.logger.Info("device unblocked", "mac", id, "was_blocked", removed)
	e.notifyBlock(ctx, BlockChange{Action: audit.ActionUnblock, MAC: id, At: now})
	return removed, nil
}

// record writes an audit entry. Audit failures are logged, not returned:
// the router and ledger have already changed by the time it runs.
func (e *Engine) record(ctx context.Context, action, mac string, now time.Time, details map[string]any) {
	if e.deps.Audit == nil {
		return
	}
	entry := &audit.Entry{
		Action:    action,
		MAC:       mac,
		Source:    SourceFrom(ctx),
		Details:   details,
		CreatedAt: now,
	}
	if err := e.deps.Audit.Create(ctx, entry); err != nil {
		e.logger.Error("writing audit entry failed", "action", action, "mac", mac, "error", err)
	}
}

func (e *Engine) notifyBlock(ctx context.Context, change BlockChange) {
	for _, o := range e.observers {
		o.BlockChanged(ctx, change)
	}
}
