// Package cache holds the per-batch result store. Entries never expire on
// their own: callers must invalidate after any mutation that could change
// classification outcomes (commits, reprocessing requests).
package cache

import (
	"sync"

	"telecom-recon/internal/domain"
)

// ResultStore maps batch labels to the last computed reconciliation
// result. It is an explicit dependency of the service layer, not shared
// module state.
type ResultStore struct {
	mu      sync.RWMutex
	results map[string]*domain.ReconciliationResult
}

func NewResultStore() *ResultStore {
	return &ResultStore{results: make(map[string]*domain.ReconciliationResult)}
}

// Get returns the cached result for the batch label, if any.
func (s *ResultStore) Get(batchLabel string) (*domain.ReconciliationResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.results[batchLabel]
	return result, ok
}

// Put stores the result for its batch label, replacing any previous entry.
func (s *ResultStore) Put(result *domain.ReconciliationResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[result.BatchLabel] = result
}

// Invalidate removes the entry for the batch label.
func (s *ResultStore) Invalidate(batchLabel string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.results, batchLabel)
}

// Len returns the number of cached batches.
func (s *ResultStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.results)
}
