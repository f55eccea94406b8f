// Package services wires report history to its local store and the event bus.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"findash/internal/core"
	"findash/internal/history"
	"findash/internal/log"
)

// Publisher sends report events to other processes.
type Publisher interface {
	PublishReportComputed(ctx context.Context, e history.Entry) error
}

// HistoryService archives every computed report. It records locally first,
// then publishes the event when a publisher is configured. Failures are
// logged and counted, never returned to the upload path.
type HistoryService struct {
	store     history.Store
	publisher Publisher
	logger    *log.Logger

	recorded  atomic.Int64
	published atomic.Int64
	failures  atomic.Int64
}

// NewHistoryService builds a service; publisher may be nil.
func NewHistoryService(store history.Store, publisher Publisher, logger *log.Logger) *HistoryService {
	if logger == nil {
		logger = log.Discard()
	}
	return &HistoryService{store: store, publisher: publisher, logger: logger.WithComponent(log.ComponentHistory)}
}

// RecordReport archives r.
func (s *HistoryService) RecordReport(ctx context.Context, r *core.Report) {
	if r == nil {
		return
	}
	e := history.FromReport(r)

	if err := s.store.Record(ctx, e); err != nil {
		s.failures.Add(1)
		s.logger.Failure(ctx, "Failed to record report history", log.OpRecord, err,
			log.NewFields().WithReport(r))
	} else {
		s.recorded.Add(1)
	}

	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishReportComputed(ctx, e); err != nil {
		s.failures.Add(1)
		s.logger.Failure(ctx, "Failed to publish report event", log.OpPublish, err,
			log.NewFields().WithReport(r))
		return
	}
	s.published.Add(1)
}

// Recent lists the newest archived entries.
func (s *HistoryService) Recent(ctx context.Context, limit int) ([]history.Entry, error) {
	entries, err := s.store.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	return entries, nil
}

// Stats are cumulative counters since start.
type Stats struct {
	Recorded  int64
	Published int64
	Failures  int64
}

func (s *HistoryService) Stats() Stats {
	return Stats{Recorded: s.recorded.Load(), Published: s.published.Load(), Failures: s.failures.Load()}
}

// Close closes the store and publisher when they support it.
func (s *HistoryService) Close() error {
	var errs []error
	if c, ok := s.store.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}
	if c, ok := s.publisher.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}
	return errors.Join(errs...)
}
