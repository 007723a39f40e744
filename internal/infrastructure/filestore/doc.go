// Package filestore persists JSON documents to disk for LanGuard's tracking
// history and block ledger.
//
// Writes go through github.com/google/renameio so a crash mid-write leaves
// either the old or the new file, never a truncated one. Read-modify-write
// cycles run under an injectable Locker:
//
//   - MutexLocker serialises writers inside one process
//   - FileLocker additionally takes an advisory lock on "<file>.lock"
//     (github.com/gofrs/flock) so several processes can share the files
//
// Usage:
//
//	locker, err := filestore.NewLocker(cfg.Storage.Locking, cfg.Storage.TrackingFile)
//	store := filestore.New[map[string]Record](cfg.Storage.TrackingFile, locker)
//
//	records, err := store.Update(ctx, func(m *map[string]Record) (bool, error) {
//	    (*m)["aa:bb:cc:dd:ee:ff"] = rec
//	    return true, nil
//	})
package filestore
