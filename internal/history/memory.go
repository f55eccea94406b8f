package history

import (
	"context"
	"sync"
)

// Memory is a bounded in-process Store; the oldest entries drop off first.
type Memory struct {
	mu      sync.Mutex
	entries []Entry
	seen    map[string]struct{}
	max     int
}

var _ Store = (*Memory)(nil)

// NewMemory keeps at most capacity entries.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = 100
	}
	return &Memory{max: capacity, seen: make(map[string]struct{})}
}

func (m *Memory) Record(_ context.Context, e Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.seen[e.ReportID]; dup {
		return nil
	}
	m.entries = append(m.entries, e)
	m.seen[e.ReportID] = struct{}{}
	if over := len(m.entries) - m.max; over > 0 {
		for _, old := range m.entries[:over] {
			delete(m.seen, old.ReportID)
		}
		m.entries = append([]Entry(nil), m.entries[over:]...)
	}
	return nil
}

func (m *Memory) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit = NormalizeLimit(limit)
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit > len(m.entries) {
		limit = len(m.entries)
	}
	out := make([]Entry, 0, limit)
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.entries[i])
	}
	return out, nil
}

// Len returns the number of stored entries.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
