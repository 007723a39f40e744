package tracking

import (
	"sort"
	"time"

	"github.com/nerrad567/languard-core/internal/identity"
)

// Record is the persisted presence history of one identity.
type Record struct {
	IP        string    `json:"ip"`
	Hostname  string    `json:"hostname"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
}

// OnlineDuration is the span between the first and the most recent sighting.
// Gaps in between are not subtracted.
func (r Record) OnlineDuration() time.Duration {
	return r.LastSeen.Sub(r.FirstSeen)
}

// Records maps identity to Record.
type Records map[string]Record

// Upsert folds one observation into r and returns the resulting record.
//
// A new identity gets first_seen = last_seen = now. A known identity has its
// address, name and last_seen replaced while first_seen is kept. If now lies
// before first_seen (clock stepped back) last_seen is clamped to first_seen.
func (r Records) Upsert(id, address, name string, now time.Time) Record {
	id = identity.Normalize(id)
	now = now.UTC()

	rec, ok := r[id]
	if !ok {
		rec = Record{FirstSeen: now}
	}
	rec.IP = address
	rec.Hostname = name
	rec.LastSeen = now
	if rec.LastSeen.Before(rec.FirstSeen) {
		rec.LastSeen = rec.FirstSeen
	}

	r[id] = rec
	return rec
}

// canonical rekeys r by normalised identity. Records that collapse onto the
// same key are merged: the earliest first_seen is kept and the address, name
// and last_seen come from the most recent sighting.
func (r Records) canonical() Records {
	out := make(Records, len(r))
	for id, rec := range r {
		key := identity.Normalize(id)
		prev, ok := out[key]
		if !ok {
			out[key] = rec
			continue
		}
		merged := prev
		if rec.LastSeen.After(prev.LastSeen) {
			merged = rec
		}
		merged.FirstSeen = prev.FirstSeen
		if rec.FirstSeen.Before(prev.FirstSeen) {
			merged.FirstSeen = rec.FirstSeen
		}
		out[key] = merged
	}
	return out
}

// Entry pairs a record with its identity.
type Entry struct {
	MAC string `json:"mac"`
	Record
}

// Sorted returns every record ordered by identity.
func (r Records) Sorted() []Entry {
	out := make([]Entry, 0, len(r))
	for id, rec := range r {
		out = append(out, Entry{MAC: id, Record: rec})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MAC < out[j].MAC })
	return out
}
