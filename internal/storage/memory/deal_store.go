package memory

import (
	"context"
	"sync"

	"deal-parity/internal/domain"
	"deal-parity/internal/storage"
)

// DealStore is an in-memory implementation of storage.DealStore.
type DealStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Deal // keyed by deal id
}

// NewDealStore creates a new in-memory deal store.
func NewDealStore() *DealStore {
	return &DealStore{data: make(map[string]*domain.Deal)}
}

// Insert adds a new deal. Returns ErrDuplicateKey if the id exists.
func (s *DealStore) Insert(_ context.Context, d *domain.Deal) error {
	if d == nil || d.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[d.ID]; exists {
		return storage.ErrDuplicateKey
	}

	// Store a copy to prevent external mutation
	dealCopy := *d
	s.data[d.ID] = &dealCopy
	return nil
}

// GetByID retrieves a deal. Returns ErrNotFound if not exists.
func (s *DealStore) GetByID(_ context.Context, dealID string) (*domain.Deal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, exists := s.data[dealID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	dealCopy := *d
	return &dealCopy, nil
}

// UpdateAccrual replaces the accrual reference figures.
func (s *DealStore) UpdateAccrual(_ context.Context, dealID string, accrual domain.AccrualReference) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, exists := s.data[dealID]
	if !exists {
		return storage.ErrNotFound
	}
	d.Accrual = accrual
	return nil
}

// Verify interface compliance at compile time.
var _ storage.DealStore = (*DealStore)(nil)
