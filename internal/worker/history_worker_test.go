package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"findash/internal/amqp"
	"findash/internal/history"
	"findash/internal/sheets/memory"
	"findash/internal/storage"
)

func newArchive(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "worker.db"))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func message(id string) *amqp.ReportComputedMessage {
	return amqp.NewReportComputedMessage(history.Entry{ReportID: id, Filename: id + ".csv", CreatedAt: time.Now().UTC()})
}

func TestHandleReportComputedArchivesAndExports(t *testing.T) {
	archive := newArchive(t)
	sheet := memory.New()
	w := NewHistoryWorker(archive, sheet, 10, nil)
	ctx := context.Background()

	if err := w.HandleReportComputed(ctx, message("r1")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(sheet.Rows()) != 1 {
		t.Fatalf("expected one exported row, got %d", len(sheet.Rows()))
	}
	if status, _ := archive.SyncStatus(ctx, "r1"); status != storage.SyncDone {
		t.Fatalf("status = %q", status)
	}
	// redelivery is harmless for the archive
	if err := w.HandleReportComputed(ctx, message("r1")); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
}

func TestFailedExportIsRetried(t *testing.T) {
	archive := newArchive(t)
	sheet := memory.New()
	sheet.Fail = errors.New("quota exceeded")
	w := NewHistoryWorker(archive, sheet, 10, nil)
	ctx := context.Background()

	if err := w.HandleReportComputed(ctx, message("r2")); err != nil {
		t.Fatalf("export failure must not requeue: %v", err)
	}
	if status, _ := archive.SyncStatus(ctx, "r2"); status != storage.SyncPending {
		t.Fatalf("status = %q, want pending", status)
	}

	sheet.Fail = nil
	n, err := w.ProcessPending(ctx)
	if err != nil || n != 1 {
		t.Fatalf("ProcessPending = %d, %v", n, err)
	}
	if status, _ := archive.SyncStatus(ctx, "r2"); status != storage.SyncDone {
		t.Fatalf("status = %q, want synced", status)
	}
}

func TestWorkerWithoutExporter(t *testing.T) {
	archive := newArchive(t)
	w := NewHistoryWorker(archive, nil, 0, nil)
	ctx := context.Background()

	if err := w.HandleReportComputed(ctx, message("r3")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if n, err := w.ProcessPending(ctx); n != 0 || err != nil {
		t.Fatalf("ProcessPending = %d, %v", n, err)
	}
	got, _ := archive.Recent(ctx, 5)
	if len(got) != 1 || got[0].ReportID != "r3" {
		t.Fatalf("unexpected archive: %+v", got)
	}
}

func TestRunTickerStopsOnCancel(t *testing.T) {
	w := NewHistoryWorker(newArchive(t), memory.New(), 1, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.RunTicker(ctx, time.Millisecond) }()
	time.Sleep(5 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("RunTicker returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("RunTicker did not stop")
	}
}
