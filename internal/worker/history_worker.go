// Package worker archives report events and exports them to a spreadsheet.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"findash/internal/amqp"
	"findash/internal/history"
	"findash/internal/log"
	"findash/internal/sheets"
)

// Archive is the durable side of the worker.
type Archive interface {
	history.Recorder
	PendingSync(ctx context.Context, limit int) ([]history.Entry, error)
	MarkSynced(ctx context.Context, reportID, ref string) error
	MarkSyncError(ctx context.Context, reportID string) error
}

// HistoryWorker stores each event and, when an exporter is set, appends it
// to the sheet. Rows left pending by a failed export are retried on Tick.
type HistoryWorker struct {
	archive   Archive
	exporter  sheets.SummaryExporter
	batchSize int
	logger    *log.Logger
}

// NewHistoryWorker builds a worker; exporter may be nil.
func NewHistoryWorker(archive Archive, exporter sheets.SummaryExporter, batchSize int, logger *log.Logger) *HistoryWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &HistoryWorker{
		archive:   archive,
		exporter:  exporter,
		batchSize: batchSize,
		logger:    logger.WithComponent(log.ComponentWorker),
	}
}

// HandleReportComputed is the AMQP handler. Archive errors requeue the
// message; export errors do not, since the row stays pending.
func (w *HistoryWorker) HandleReportComputed(ctx context.Context, msg *amqp.ReportComputedMessage) error {
	e := msg.Entry
	if err := w.archive.Record(ctx, e); err != nil {
		return fmt.Errorf("archive report %s: %w", e.ReportID, err)
	}
	w.logger.InfoContext(ctx, "Report archived", log.FieldReportID, e.ReportID, log.FieldFilename, e.Filename)
	w.export(ctx, e)
	return nil
}

// ProcessPending exports archived rows that have not reached the sheet yet.
func (w *HistoryWorker) ProcessPending(ctx context.Context) (int, error) {
	if w.exporter == nil {
		return 0, nil
	}
	pending, err := w.archive.PendingSync(ctx, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("list pending reports: %w", err)
	}
	done := 0
	for _, e := range pending {
		if ctx.Err() != nil {
			return done, ctx.Err()
		}
		if w.export(ctx, e) {
			done++
		}
	}
	if len(pending) > 0 {
		w.logger.InfoContext(ctx, "Processed pending exports", "pending", len(pending), "exported", done)
	}
	return done, nil
}

func (w *HistoryWorker) export(ctx context.Context, e history.Entry) bool {
	if w.exporter == nil {
		return false
	}
	ref, err := w.exporter.AppendSummary(ctx, e)
	if err != nil {
		f := log.NewFields()
		f[log.FieldReportID] = e.ReportID
		w.logger.Failure(ctx, "Failed to export report", log.OpAppend, err, f)
		// invalid entries can never be exported; anything else stays pending
		if errors.Is(err, history.ErrInvalidEntry) {
			if markErr := w.archive.MarkSyncError(ctx, e.ReportID); markErr != nil {
				w.logger.ErrorContext(ctx, "Failed to mark export error", log.FieldReportID, e.ReportID, log.FieldError, markErr)
			}
		}
		return false
	}
	if err := w.archive.MarkSynced(ctx, e.ReportID, ref); err != nil {
		w.logger.ErrorContext(ctx, "Failed to mark report exported", log.FieldReportID, e.ReportID, log.FieldError, err)
		return false
	}
	w.logger.InfoContext(ctx, "Report exported", log.FieldReportID, e.ReportID, "ref", ref)
	return true
}

// RunTicker calls ProcessPending every interval until ctx ends.
func (w *HistoryWorker) RunTicker(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := w.ProcessPending(ctx); err != nil && ctx.Err() == nil {
				w.logger.ErrorContext(ctx, "Pending export pass failed", log.FieldError, err)
			}
		}
	}
}
