package tracking

import (
	"context"
	"time"

	"github.com/nerrad567/languard-core/internal/infrastructure/filestore"
)

// Store is the durable Tracking Store backed by one JSON file.
type Store struct {
	file *filestore.Store[Records]
}

// NewStore creates a Store for path guarded by locker (nil means an
// in-process mutex).
func NewStore(path string, locker filestore.Locker) *Store {
	return &Store{file: filestore.New[Records](path, locker)}
}

// Path returns the tracking file location.
func (s *Store) Path() string {
	return s.file.Path()
}

// Load returns every record keyed by canonical identity. A missing file
// yields an empty, non-nil map.
func (s *Store) Load(ctx context.Context) (Records, error) {
	recs, err := s.file.Load(ctx)
	if err != nil {
		return nil, err
	}
	return recs.canonical(), nil
}

// Save atomically replaces the tracking file with recs.
func (s *Store) Save(ctx context.Context, recs Records) error {
	if recs == nil {
		recs = Records{}
	}
	return s.file.Save(ctx, recs)
}

// Update loads the records, applies fn and saves the result, all under the
// store lock. Nothing is written if fn fails.
func (s *Store) Update(ctx context.Context, fn func(Records) error) (Records, error) {
	return s.file.Update(ctx, func(recs *Records) (bool, error) {
		*recs = recs.canonical()
		if err := fn(*recs); err != nil {
			return false, err
		}
		return true, nil
	})
}

// Upsert records a single observation and persists it.
func (s *Store) Upsert(ctx context.Context, id, address, name string, now time.Time) (Record, error) {
	var rec Record
	_, err := s.Update(ctx, func(recs Records) error {
		rec = recs.Upsert(id, address, name, now)
		return nil
	})
	return rec, err
}
