// Package presence folds sweep results into the tracking history.
//
// Each device that answered a sweep is upserted into the Tracking Store and
// returned enriched with its first and last sighting. Devices that did not
// answer are left untouched: absence is derived at read time, never written.
package presence

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/languard-core/internal/discovery"
	"github.com/nerrad567/languard-core/internal/identity"
	"github.com/nerrad567/languard-core/internal/tracking"
)

// Status is the presence overlay of a device view.
type Status string

// Device statuses.
const (
	StatusOnline    Status = "online"
	StatusOffline   Status = "offline"
	StatusBlocked   Status = "blocked"
	StatusScheduled Status = "scheduled"
)

// Enriched is a sweep result joined with its tracking history.
type Enriched struct {
	discovery.Result
	FirstSeen      time.Time
	LastSeen       time.Time
	OnlineDuration time.Duration
	Status         Status
}

// TrackingStore is the subset of *tracking.Store the reconciler needs.
type TrackingStore interface {
	Update(ctx context.Context, fn func(tracking.Records) error) (tracking.Records, error)
}

// Reconciler merges sweep results into the tracking history.
type Reconciler struct {
	store TrackingStore
}

// New creates a Reconciler writing to store.
func New(store TrackingStore) *Reconciler {
	return &Reconciler{store: store}
}

// Reconcile upserts every result at time now in a single store transaction
// and returns them enriched, in scan order, all with StatusOnline.
//
// Store failures are returned unmasked (wrapped with context).
func (r *Reconciler) Reconcile(ctx context.Context, results []discovery.Result, now time.Time) ([]Enriched, error) {
	out := make([]Enriched, 0, len(results))
	if len(results) == 0 {
		return out, nil
	}

	_, err := r.store.Update(ctx, func(recs tracking.Records) error {
		for _, res := range results {
			res.MAC = identity.Normalize(res.MAC)
			rec := recs.Upsert(res.MAC, res.IP, res.Hostname, now)
			out = append(out, Enriched{
				Result:         res,
				FirstSeen:      rec.FirstSeen,
				LastSeen:       rec.LastSeen,
				OnlineDuration: rec.OnlineDuration(),
				Status:         StatusOnline,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("updating tracking history: %w", err)
	}
	return out, nil
}

// Map indexes enriched devices by identity.
func Map(enriched []Enriched) map[string]Enriched {
	m := make(map[string]Enriched, len(enriched))
	for _, e := range enriched {
		m[e.MAC] = e
	}
	return m
}
