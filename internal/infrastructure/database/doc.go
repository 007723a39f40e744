// Package database provides SQLite connectivity for the LanGuard audit trail.
//
// Device tracking and the block ledger live in JSON files (see package
// filestore); SQLite only holds the append-mostly audit log, where filtered
// and paginated queries matter.
//
// Usage:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    log.Fatal(err)
//	}
//
// Migrations are additive-only. Each migration file pair is named
// YYYYMMDD_HHMMSS_description.up.sql / .down.sql.
package database
