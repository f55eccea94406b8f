package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"findash/internal/core"
	"findash/internal/history"
)

func newRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "sub", "findash.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func sampleEntry(id string, at time.Time) history.Entry {
	return history.Entry{
		ReportID:      id,
		Filename:      id + ".csv",
		CreatedAt:     at,
		Rows:          2,
		Granularity:   core.GranularityMonth,
		TotalRevenue:  decimal.RequireFromString("1000.10"),
		TotalExpenses: decimal.RequireFromString("400.05"),
		Profit:        decimal.RequireFromString("600.05"),
	}
}

func TestRecordAndRecent(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		if err := repo.Record(ctx, sampleEntry(id, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("record %s: %v", id, err)
		}
	}
	// duplicates are ignored
	if err := repo.Record(ctx, sampleEntry("a", base.Add(time.Hour))); err != nil {
		t.Fatalf("duplicate record: %v", err)
	}

	got, err := repo.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 || got[0].ReportID != "c" || got[1].ReportID != "b" {
		t.Fatalf("unexpected order: %+v", got)
	}
	e := got[0]
	if !e.Profit.Equal(decimal.RequireFromString("600.05")) || e.Rows != 2 || e.Granularity != core.GranularityMonth {
		t.Fatalf("round trip lost data: %+v", e)
	}
	if !e.CreatedAt.Equal(base.Add(2 * time.Minute)) {
		t.Fatalf("created_at = %v", e.CreatedAt)
	}
}

func TestRecordRejectsEmptyID(t *testing.T) {
	repo := newRepo(t)
	if err := repo.Record(context.Background(), history.Entry{}); !errors.Is(err, history.ErrInvalidEntry) {
		t.Fatalf("expected ErrInvalidEntry, got %v", err)
	}
}

func TestSyncLifecycle(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()
	_ = repo.Record(ctx, sampleEntry("x", now))
	_ = repo.Record(ctx, sampleEntry("y", now.Add(time.Second)))

	pending, err := repo.PendingSync(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 2 || pending[0].ReportID != "x" {
		t.Fatalf("unexpected pending: %+v", pending)
	}

	if err := repo.MarkSynced(ctx, "x", "Reports!A2"); err != nil {
		t.Fatalf("mark synced: %v", err)
	}
	if err := repo.MarkSyncError(ctx, "y"); err != nil {
		t.Fatalf("mark error: %v", err)
	}
	if status, _ := repo.SyncStatus(ctx, "x"); status != SyncDone {
		t.Fatalf("status x = %q", status)
	}
	if status, _ := repo.SyncStatus(ctx, "y"); status != SyncError {
		t.Fatalf("status y = %q", status)
	}
	if pending, _ := repo.PendingSync(ctx, 10); len(pending) != 0 {
		t.Fatalf("nothing should be pending: %+v", pending)
	}
	if err := repo.MarkSynced(ctx, "missing", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGet(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	_ = repo.Record(ctx, sampleEntry("g", time.Now()))

	if e, err := repo.Get(ctx, "g"); err != nil || e.Filename != "g.csv" {
		t.Fatalf("get = %+v, %v", e, err)
	}
	if _, err := repo.Get(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	repo.Close()
	if err := RunMigrations(path); err != nil {
		t.Fatalf("second migration run: %v", err)
	}
}
