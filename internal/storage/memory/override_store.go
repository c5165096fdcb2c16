package memory

import (
	"context"
	"sort"
	"sync"

	"deal-parity/internal/domain"
	"deal-parity/internal/storage"
)

// OverrideStore is an in-memory implementation of storage.OverrideStore.
// Append-only: the type has no method that can change or remove a record.
type OverrideStore struct {
	mu   sync.RWMutex
	data []*domain.Override
	seq  int64
}

// NewOverrideStore creates a new in-memory override ledger.
func NewOverrideStore() *OverrideStore {
	return &OverrideStore{}
}

// Insert appends an override and assigns its insertion sequence.
// Returns ErrDuplicateKey if the id exists.
func (s *OverrideStore) Insert(_ context.Context, o *domain.Override) error {
	if o == nil || o.ID == "" || o.DealID == "" || o.EntityID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.data {
		if existing.ID == o.ID {
			return storage.ErrDuplicateKey
		}
	}

	s.seq++
	ovCopy := *o
	ovCopy.Seq = s.seq
	s.data = append(s.data, &ovCopy)
	o.Seq = ovCopy.Seq
	return nil
}

// ListByDeal retrieves the full ledger ordered by (created_at, seq).
func (s *OverrideStore) ListByDeal(_ context.Context, dealID string) ([]*domain.Override, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Override
	for _, o := range s.data {
		if o.DealID == dealID {
			ovCopy := *o
			result = append(result, &ovCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt != result[j].CreatedAt {
			return result[i].CreatedAt < result[j].CreatedAt
		}
		return result[i].Seq < result[j].Seq
	})
	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.OverrideStore = (*OverrideStore)(nil)
