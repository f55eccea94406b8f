// Package cache keeps recently computed reports in memory so they can be
// regrouped or charted without re-uploading the file.
package cache

import (
	"context"
	"time"

	"findash/internal/core"
)

// Cache is the generic key/value contract.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
	Size() int
}

// Cleaner is implemented by caches that can purge expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Reports is the report cache keyed by report ID.
type Reports struct {
	lru *LRUCache[*core.Report]
}

// NewReports creates a report cache.
func NewReports(size int, ttl time.Duration) *Reports {
	return &Reports{lru: NewLRUCache[*core.Report](size, ttl)}
}

// Put stores r under its ID.
func (r *Reports) Put(report *core.Report) {
	if report == nil || report.ID == "" {
		return
	}
	r.lru.Set(report.ID, report)
}

// Get looks a report up by ID.
func (r *Reports) Get(id string) (*core.Report, bool) {
	return r.lru.Get(id)
}

// Len returns the number of cached reports.
func (r *Reports) Len() int { return r.lru.Size() }

// CleanExpired implements Cleaner.
func (r *Reports) CleanExpired() int { return r.lru.CleanExpired() }

// Manager periodically purges expired entries of its registered caches.
type Manager struct {
	caches    []Cleaner
	onCleaned func(n int)
	done      chan struct{}
}

// NewManager creates a manager. onCleaned, if set, receives the number of
// entries purged on each tick that removed something.
func NewManager(onCleaned func(n int)) *Manager {
	return &Manager{onCleaned: onCleaned, done: make(chan struct{})}
}

// Register adds a cache to the sweep.
func (m *Manager) Register(c Cleaner) {
	m.caches = append(m.caches, c)
}

// Sweep purges every registered cache once.
func (m *Manager) Sweep() int {
	total := 0
	for _, c := range m.caches {
		total += c.CleanExpired()
	}
	if total > 0 && m.onCleaned != nil {
		m.onCleaned(total)
	}
	return total
}

// Run sweeps every interval until ctx is cancelled.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	defer close(m.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.Sweep()
		case <-ctx.Done():
			return
		}
	}
}

// Wait blocks until Run has returned.
func (m *Manager) Wait() { <-m.done }
