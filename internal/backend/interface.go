// Package backend builds the history store selected by configuration.
package backend

import (
	"context"

	"findash/internal/history"
)

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// Result is a ready store plus its cleanup.
type Result struct {
	Store   history.Store
	Type    Type
	Cleanup CleanupFunc
}

// Close runs Cleanup when set.
func (r *Result) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates history stores.
type Factory interface {
	Create(ctx context.Context, config Config) (*Result, error)
}

// Type names a history backend.
type Type string

const (
	SQLite Type = "sqlite"
	Memory Type = "memory"
)

func (t Type) String() string { return string(t) }

// IsValid reports whether t is a known backend.
func (t Type) IsValid() bool {
	switch t {
	case SQLite, Memory:
		return true
	default:
		return false
	}
}

// Types lists every backend.
func Types() []Type { return []Type{Memory, SQLite} }
