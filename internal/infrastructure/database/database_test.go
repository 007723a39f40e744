package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/languard-core/internal/infrastructure/config"
)

func TestOpen(t *testing.T) {
	tests := []struct {
		name    string
		cfg     func(dir string) config.DatabaseConfig
		wantErr bool
	}{
		{
			name: "creates file and parent directory",
			cfg: func(dir string) config.DatabaseConfig {
				return config.DatabaseConfig{Path: filepath.Join(dir, "nested", "languard.db"), WALMode: true, BusyTimeout: 5}
			},
		},
		{
			name: "without WAL",
			cfg: func(dir string) config.DatabaseConfig {
				return config.DatabaseConfig{Path: filepath.Join(dir, "plain.db"), BusyTimeout: 1}
			},
		},
		{
			name: "in memory",
			cfg: func(string) config.DatabaseConfig {
				return config.DatabaseConfig{Path: ":memory:"}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg(t.TempDir())
			db, err := Open(cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			defer db.Close() //nolint:errcheck // Test cleanup

			if db.Path() != cfg.Path {
				t.Errorf("Path() = %q, want %q", db.Path(), cfg.Path)
			}
			if cfg.Path != ":memory:" {
				if _, err := os.Stat(filepath.Dir(cfg.Path)); err != nil {
					t.Errorf("database directory missing: %v", err)
				}
			}
		})
	}
}

func TestHealthCheck(t *testing.T) {
	db := openTestDB(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestClose(t *testing.T) {
	db, err := Open(config.DatabaseConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := db.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck() after Close() should fail")
	}
}

func TestBeginTxRollback(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if _, err := db.ExecContext(ctx, "CREATE TABLE t (id INTEGER PRIMARY KEY)"); err != nil {
		t.Fatalf("create table: %v", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("BeginTx() error = %v", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO t (id) VALUES (1)"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback() error = %v", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM t").Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("count after rollback = %d, want 0", count)
	}
}

// openTestDB opens a private in-memory database closed at test end.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(config.DatabaseConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup
	return db
}
