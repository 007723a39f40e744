package blocklist

import (
	"context"
	"errors"
	"time"

	"github.com/nerrad567/languard-core/internal/identity"
	"github.com/nerrad567/languard-core/internal/infrastructure/filestore"
)

// ErrNotFound is returned by Get for identities without an entry.
var ErrNotFound = errors.New("blocklist: entry not found")

// Entry is one block. ExpiresAt nil means indefinite.
type Entry struct {
	MAC       string     `json:"mac"`
	BlockedAt time.Time  `json:"blocked_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// ActiveAt reports whether the entry still blocks at now.
func (e Entry) ActiveAt(now time.Time) bool {
	return e.ExpiresAt == nil || now.Before(*e.ExpiresAt)
}

// SweepResult splits the ledger at one instant.
type SweepResult struct {
	Active  []Entry
	Expired []Entry
}

// Removed is the number of entries the sweep dropped.
func (r SweepResult) Removed() int {
	return len(r.Expired)
}

// Partition splits entries into those active at now and those expired.
// It is a pure function of its inputs and preserves order.
func Partition(entries []Entry, now time.Time) SweepResult {
	res := SweepResult{Active: []Entry{}, Expired: []Entry{}}
	for _, e := range entries {
		if e.ActiveAt(now) {
			res.Active = append(res.Active, e)
		} else {
			res.Expired = append(res.Expired, e)
		}
	}
	return res
}

// canonical normalises every identity and collapses duplicates, the later
// entry replacing the earlier one in place. Files edited by hand or written
// by older tools may carry mixed-case MACs.
func canonical(entries []Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	index := make(map[string]int, len(entries))
	for _, e := range entries {
		e.MAC = identity.Normalize(e.MAC)
		if i, ok := index[e.MAC]; ok {
			out[i] = e
			continue
		}
		index[e.MAC] = len(out)
		out = append(out, e)
	}
	return out
}

// Ledger is the durable block list backed by one JSON file.
type Ledger struct {
	file *filestore.Store[[]Entry]
}

// NewLedger creates a Ledger for path guarded by locker (nil means an
// in-process mutex).
func NewLedger(path string, locker filestore.Locker) *Ledger {
	return &Ledger{file: filestore.New[[]Entry](path, locker)}
}

// Path returns the ledger file location.
func (l *Ledger) Path() string {
	return l.file.Path()
}

// Load returns the ledger with no expiry applied. Identities come back in
// canonical form.
func (l *Ledger) Load(ctx context.Context) ([]Entry, error) {
	entries, err := l.file.Load(ctx)
	if err != nil {
		return nil, err
	}
	return canonical(entries), nil
}

// Save atomically replaces the ledger.
func (l *Ledger) Save(ctx context.Context, entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	return l.file.Save(ctx, entries)
}

// Get returns the entry for id or ErrNotFound.
func (l *Ledger) Get(ctx context.Context, id string) (Entry, error) {
	entries, err := l.Load(ctx)
	if err != nil {
		return Entry{}, err
	}
	id = identity.Normalize(id)
	for _, e := range entries {
		if e.MAC == id {
			return e, nil
		}
	}
	return Entry{}, ErrNotFound
}

// Block creates or replaces the entry for id.
//
// An empty duration blocks indefinitely. Otherwise it is parsed with
// ParseDuration and a malformed value returns *InvalidDurationError
// without touching the ledger.
func (l *Ledger) Block(ctx context.Context, id, duration string, now time.Time) (Entry, error) {
	entry := Entry{MAC: identity.Normalize(id), BlockedAt: now.UTC()}
	if duration != "" {
		d, err := ParseDuration(duration)
		if err != nil {
			return Entry{}, err
		}
		exp := entry.BlockedAt.Add(d)
		entry.ExpiresAt = &exp
	}

	_, err := l.file.Update(ctx, func(entries *[]Entry) (bool, error) {
		*entries = canonical(*entries)
		for i := range *entries {
			if (*entries)[i].MAC == entry.MAC {
				(*entries)[i] = entry
				return true, nil
			}
		}
		*entries = append(*entries, entry)
		return true, nil
	})
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// Unblock removes the entry for id. It reports whether an entry existed;
// an absent identity is not an error and leaves the file untouched.
func (l *Ledger) Unblock(ctx context.Context, id string) (bool, error) {
	id = identity.Normalize(id)
	removed := false

	_, err := l.file.Update(ctx, func(entries *[]Entry) (bool, error) {
		*entries = canonical(*entries)
		kept := (*entries)[:0:0]
		for _, e := range *entries {
			if e.MAC == id {
				removed = true
				continue
			}
			kept = append(kept, e)
		}
		if removed {
			*entries = kept
		}
		return removed, nil
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

// SweepExpired drops every entry with now >= expires_at. The file is
// rewritten only when something expired, so calling it twice with the same
// now yields the same active set and no second write.
func (l *Ledger) SweepExpired(ctx context.Context, now time.Time) (SweepResult, error) {
	var res SweepResult
	_, err := l.file.Update(ctx, func(entries *[]Entry) (bool, error) {
		*entries = canonical(*entries)
		res = Partition(*entries, now)
		if res.Removed() == 0 {
			return false, nil
		}
		*entries = res.Active
		return true, nil
	})
	if err != nil {
		return SweepResult{}, err
	}
	return res, nil
}
