package audit

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/languard-core/internal/infrastructure/config"
	"github.com/nerrad567/languard-core/internal/infrastructure/database"
	"github.com/nerrad567/languard-core/migrations"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup
	if err := db.Migrate(context.Background(), migrations.FS); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewSQLiteRepository(db.DB)
}

func TestCreate_FillsDefaults(t *testing.T) {
	repo := newTestRepo(t)
	e := &Entry{Action: ActionBlock, MAC: "aa:bb:cc:dd:ee:ff"}

	if err := repo.Create(context.Background(), e); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !strings.HasPrefix(e.ID, "aud-") {
		t.Errorf("ID = %q, want aud- prefix", e.ID)
	}
	if e.Source != SourceSystem {
		t.Errorf("Source = %q, want %q", e.Source, SourceSystem)
	}
	if e.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestList_FiltersAndOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	seed := []Entry{
		{Action: ActionBlock, MAC: "aa:aa:aa:aa:aa:aa", Source: SourceAPI, Details: map[string]any{"duration": "1h"}},
		{Action: ActionUnblock, MAC: "aa:aa:aa:aa:aa:aa", Source: SourceAPI},
		{Action: ActionBlock, MAC: "bb:bb:bb:bb:bb:bb", Source: SourceAPI},
		{Action: ActionExpire, MAC: "bb:bb:bb:bb:bb:bb", Source: SourceScheduler},
	}
	for i := range seed {
		seed[i].CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if err := repo.Create(ctx, &seed[i]); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	tests := []struct {
		name       string
		filter     Filter
		wantTotal  int
		wantFirst  string
		wantLength int
	}{
		{name: "all newest first", filter: Filter{}, wantTotal: 4, wantFirst: ActionExpire, wantLength: 4},
		{name: "by action", filter: Filter{Action: ActionBlock}, wantTotal: 2, wantFirst: ActionBlock, wantLength: 2},
		{name: "by mac is case insensitive", filter: Filter{MAC: "AA:AA:AA:AA:AA:AA"}, wantTotal: 2, wantFirst: ActionUnblock, wantLength: 2},
		{name: "paginated", filter: Filter{Limit: 1, Offset: 1}, wantTotal: 4, wantFirst: ActionBlock, wantLength: 1},
		{name: "no match", filter: Filter{Action: ActionRouterError}, wantTotal: 0, wantLength: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := repo.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if res.Total != tt.wantTotal {
				t.Errorf("Total = %d, want %d", res.Total, tt.wantTotal)
			}
			if len(res.Logs) != tt.wantLength {
				t.Fatalf("len(Logs) = %d, want %d", len(res.Logs), tt.wantLength)
			}
			if tt.wantLength > 0 && res.Logs[0].Action != tt.wantFirst {
				t.Errorf("first action = %q, want %q", res.Logs[0].Action, tt.wantFirst)
			}
		})
	}
}

func TestList_DetailsRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Create(ctx, &Entry{Action: ActionRouterError, MAC: "cc:cc:cc:cc:cc:cc", Details: map[string]any{"error": "timeout"}}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	res, err := repo.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if got := res.Logs[0].Details["error"]; got != "timeout" {
		t.Errorf("Details[error] = %v, want timeout", got)
	}
}

func TestList_ClampsLimit(t *testing.T) {
	repo := newTestRepo(t)

	res, err := repo.List(context.Background(), Filter{Limit: 10000, Offset: -5})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if res.Limit != maxLimit {
		t.Errorf("Limit = %d, want %d", res.Limit, maxLimit)
	}
	if res.Offset != 0 {
		t.Errorf("Offset = %d, want 0", res.Offset)
	}
}
