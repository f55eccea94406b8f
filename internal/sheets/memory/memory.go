// Package memory is an in-process spreadsheet exporter for tests and local runs.
package memory

import (
	"context"
	"fmt"
	"sync"

	"findash/internal/history"
	"findash/internal/sheets"
)

// Store keeps exported rows in memory.
type Store struct {
	mu   sync.Mutex
	rows [][]string
	// Fail, when set, is returned by every AppendSummary call.
	Fail error
}

var _ sheets.SummaryExporter = (*Store)(nil)

func New() *Store { return &Store{} }

// AppendSummary stores the row and returns a synthetic row reference.
func (s *Store) AppendSummary(_ context.Context, e history.Entry) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return "", s.Fail
	}
	s.rows = append(s.rows, sheets.SummaryRow(e))
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Rows returns a copy of the exported rows.
func (s *Store) Rows() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]string, len(s.rows))
	copy(out, s.rows)
	return out
}
