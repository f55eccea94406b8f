package backend

import (
	"context"
	"fmt"

	"findash/internal/history"
	"findash/internal/log"
	"findash/internal/storage"
)

// DefaultFactory builds memory and SQLite stores.
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) *DefaultFactory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

var _ Factory = (*DefaultFactory)(nil)

func (f *DefaultFactory) Create(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	switch config.Type {
	case SQLite:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize SQLite history: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized SQLite history", log.FieldBackend, SQLite, "db_path", config.SQLiteDBPath)
		return &Result{Store: repo, Type: SQLite, Cleanup: repo.Close}, nil
	default:
		capacity := config.MemoryCapacity
		if capacity <= 0 {
			capacity = DefaultMemoryCapacity
		}
		f.logger.InfoContext(ctx, "Initialized memory history", log.FieldBackend, Memory, "capacity", capacity)
		return &Result{Store: history.NewMemory(capacity), Type: Memory}, nil
	}
}
