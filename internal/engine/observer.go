package engine

import (
	"context"
	"time"

	"github.com/nerrad567/languard-core/internal/audit"
	"github.com/nerrad567/languard-core/internal/blocklist"
)

// BlockChange describes one ledger transition.
type BlockChange struct {
	Action string           `json:"action"` // block, unblock, expire
	MAC    string           `json:"mac"`
	Entry  *blocklist.Entry `json:"entry,omitempty"`
	At     time.Time        `json:"at"`
}

// Observer is told about engine output. Implementations must not block
// for long: they run on the caller's goroutine.
type Observer interface {
	DevicesUpdated(ctx context.Context, views []DeviceView)
	BlockChanged(ctx context.Context, change BlockChange)
}

type sourceKey struct{}

// WithSource tags ctx with who triggered an operation (audit.SourceAPI,
// audit.SourceScheduler). Untagged operations are attributed to the system.
func WithSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, sourceKey{}, source)
}

// SourceFrom returns the source set by WithSource.
func SourceFrom(ctx context.Context) string {
	if s, ok := ctx.Value(sourceKey{}).(string); ok && s != "" {
		return s
	}
	return audit.SourceSystem
}
