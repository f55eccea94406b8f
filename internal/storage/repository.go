// Package storage archives report history in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"findash/internal/core"
	"findash/internal/history"

	_ "modernc.org/sqlite"
)

// Sync states of an archived report.
const (
	SyncPending = "pending"
	SyncDone    = "synced"
	SyncError   = "error"
)

// timeLayout sorts lexically in chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// ErrNotFound is returned when a report ID is not archived.
var ErrNotFound = errors.New("report not found")

type SQLiteRepository struct {
	db *sql.DB
}

var _ history.Store = (*SQLiteRepository)(nil)

// NewSQLiteRepository opens dbPath, creating its directory, and migrates it.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the connection; used by readiness probes.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Record implements history.Recorder. A report already archived is left untouched.
func (r *SQLiteRepository) Record(ctx context.Context, e history.Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO reports (report_id, filename, created_at, row_count, granularity, total_revenue, total_expenses, profit)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(report_id) DO NOTHING`,
		e.ReportID, e.Filename, e.CreatedAt.UTC().Format(timeLayout), e.Rows, string(e.Granularity),
		e.TotalRevenue.String(), e.TotalExpenses.String(), e.Profit.String(),
	)
	if err != nil {
		return fmt.Errorf("insert report %s: %w", e.ReportID, err)
	}
	return nil
}

const selectColumns = `report_id, filename, created_at, row_count, granularity, total_revenue, total_expenses, profit`

// Recent implements history.Reader.
func (r *SQLiteRepository) Recent(ctx context.Context, limit int) ([]history.Entry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM reports ORDER BY created_at DESC, id DESC LIMIT ?`,
		history.NormalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query recent reports: %w", err)
	}
	return scanEntries(rows)
}

// Get returns one archived report.
func (r *SQLiteRepository) Get(ctx context.Context, reportID string) (history.Entry, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM reports WHERE report_id = ?`, reportID)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return history.Entry{}, fmt.Errorf("get report %s: %w", reportID, ErrNotFound)
	}
	if err != nil {
		return history.Entry{}, fmt.Errorf("get report %s: %w", reportID, err)
	}
	return e, nil
}

// PendingSync returns the oldest reports not yet exported.
func (r *SQLiteRepository) PendingSync(ctx context.Context, limit int) ([]history.Entry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM reports WHERE sync_status = ? ORDER BY created_at ASC, id ASC LIMIT ?`,
		SyncPending, history.NormalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query pending reports: %w", err)
	}
	return scanEntries(rows)
}

// MarkSynced records a successful export.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, reportID, ref string) error {
	return r.setSync(ctx, reportID, SyncDone, ref)
}

// MarkSyncError records a failed export; the report is retried only by hand.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, reportID string) error {
	return r.setSync(ctx, reportID, SyncError, "")
}

// SyncStatus returns the export state of a report.
func (r *SQLiteRepository) SyncStatus(ctx context.Context, reportID string) (string, error) {
	var status string
	err := r.db.QueryRowContext(ctx, `SELECT sync_status FROM reports WHERE report_id = ?`, reportID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return status, err
}

func (r *SQLiteRepository) setSync(ctx context.Context, reportID, status, ref string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE reports SET sync_status = ?, synced_at = ?, sheets_ref = ? WHERE report_id = ?`,
		status, time.Now().UTC().Format(timeLayout), ref, reportID)
	if err != nil {
		return fmt.Errorf("mark report %s %s: %w", reportID, status, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("mark report %s %s: %w", reportID, status, ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (history.Entry, error) {
	var (
		e                         history.Entry
		created, gran             string
		revenue, expenses, profit string
	)
	if err := s.Scan(&e.ReportID, &e.Filename, &created, &e.Rows, &gran, &revenue, &expenses, &profit); err != nil {
		return e, err
	}
	var err error
	if e.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return e, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	e.Granularity = core.Granularity(gran)
	if e.TotalRevenue, err = decimal.NewFromString(revenue); err != nil {
		return e, fmt.Errorf("parse total_revenue: %w", err)
	}
	if e.TotalExpenses, err = decimal.NewFromString(expenses); err != nil {
		return e, fmt.Errorf("parse total_expenses: %w", err)
	}
	if e.Profit, err = decimal.NewFromString(profit); err != nil {
		return e, fmt.Errorf("parse profit: %w", err)
	}
	return e, nil
}

func scanEntries(rows *sql.Rows) ([]history.Entry, error) {
	defer rows.Close()
	var out []history.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
