package memory

import (
	"context"
	"sort"
	"sync"

	"deal-parity/internal/domain"
	"deal-parity/internal/storage"
)

// AnalysisRunStore is an in-memory implementation of storage.AnalysisRunStore.
type AnalysisRunStore struct {
	mu   sync.RWMutex
	data []*domain.AnalysisRun
	seq  map[string]int64 // per-run insertion order, for newest-first ties
}

// NewAnalysisRunStore creates a new in-memory run store.
func NewAnalysisRunStore() *AnalysisRunStore {
	return &AnalysisRunStore{seq: make(map[string]int64)}
}

// Insert adds a new run.
func (s *AnalysisRunStore) Insert(_ context.Context, r *domain.AnalysisRun) error {
	if r == nil || r.ID == "" || r.DealID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	runCopy := *r
	if runCopy.ReconciliationBP != nil {
		bp := *runCopy.ReconciliationBP
		runCopy.ReconciliationBP = &bp
	}
	s.data = append(s.data, &runCopy)
	s.seq[r.ID] = int64(len(s.data))
	return nil
}

// Latest retrieves the most recent run for a deal.
func (s *AnalysisRunStore) Latest(ctx context.Context, dealID string) (*domain.AnalysisRun, error) {
	runs, err := s.ListByDeal(ctx, dealID)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, storage.ErrNotFound
	}
	return runs[0], nil
}

// ListByDeal retrieves runs newest-first.
func (s *AnalysisRunStore) ListByDeal(_ context.Context, dealID string) ([]*domain.AnalysisRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.AnalysisRun
	for _, r := range s.data {
		if r.DealID == dealID {
			runCopy := *r
			if runCopy.ReconciliationBP != nil {
				bp := *runCopy.ReconciliationBP
				runCopy.ReconciliationBP = &bp
			}
			result = append(result, &runCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt != result[j].CreatedAt {
			return result[i].CreatedAt > result[j].CreatedAt
		}
		return s.seq[result[i].ID] > s.seq[result[j].ID]
	})
	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.AnalysisRunStore = (*AnalysisRunStore)(nil)
