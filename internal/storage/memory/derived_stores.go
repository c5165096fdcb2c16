package memory

import (
	"context"
	"sort"
	"sync"

	"deal-parity/internal/domain"
	"deal-parity/internal/storage"
)

// TransferLinkStore is an in-memory implementation of storage.TransferLinkStore.
type TransferLinkStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.TransferLink // keyed by deal id
}

// NewTransferLinkStore creates a new in-memory transfer link store.
func NewTransferLinkStore() *TransferLinkStore {
	return &TransferLinkStore{data: make(map[string][]*domain.TransferLink)}
}

// ReplaceForDeal atomically swaps all links for a deal.
func (s *TransferLinkStore) ReplaceForDeal(_ context.Context, dealID string, links []*domain.TransferLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copies := make([]*domain.TransferLink, 0, len(links))
	for _, l := range links {
		linkCopy := *l
		copies = append(copies, &linkCopy)
	}
	s.data[dealID] = copies
	return nil
}

// ListByDeal retrieves links ordered by (txn_out_id, txn_in_id).
func (s *TransferLinkStore) ListByDeal(_ context.Context, dealID string) ([]*domain.TransferLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TransferLink
	for _, l := range s.data[dealID] {
		linkCopy := *l
		result = append(result, &linkCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].TxnOutID != result[j].TxnOutID {
			return result[i].TxnOutID < result[j].TxnOutID
		}
		return result[i].TxnInID < result[j].TxnInID
	})
	return result, nil
}

// EntityStore is an in-memory implementation of storage.EntityStore.
type EntityStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Entity // keyed by entity id
}

// NewEntityStore creates a new in-memory entity store.
func NewEntityStore() *EntityStore {
	return &EntityStore{data: make(map[string]*domain.Entity)}
}

// UpsertBatch inserts or refreshes entities.
func (s *EntityStore) UpsertBatch(_ context.Context, entities []*domain.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range entities {
		if e == nil || e.EntityID == "" {
			return storage.ErrInvalidInput
		}
		entityCopy := *e
		s.data[e.EntityID] = &entityCopy
	}
	return nil
}

// ListByDeal retrieves entities ordered by entity_id.
func (s *EntityStore) ListByDeal(_ context.Context, dealID string) ([]*domain.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Entity
	for _, e := range s.data {
		if e.DealID == dealID {
			entityCopy := *e
			result = append(result, &entityCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].EntityID < result[j].EntityID
	})
	return result, nil
}

// TxnEntityMapStore is an in-memory implementation of storage.TxnEntityMapStore.
type TxnEntityMapStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.TxnEntityRecord // keyed by deal id
}

// NewTxnEntityMapStore creates a new in-memory assignment store.
func NewTxnEntityMapStore() *TxnEntityMapStore {
	return &TxnEntityMapStore{data: make(map[string][]*domain.TxnEntityRecord)}
}

// ReplaceForDeal atomically swaps all assignments for a deal.
func (s *TxnEntityMapStore) ReplaceForDeal(_ context.Context, dealID string, records []*domain.TxnEntityRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copies := make([]*domain.TxnEntityRecord, 0, len(records))
	for _, r := range records {
		recordCopy := *r
		copies = append(copies, &recordCopy)
	}
	s.data[dealID] = copies
	return nil
}

// ListByDeal retrieves assignments ordered by txn_id.
func (s *TxnEntityMapStore) ListByDeal(_ context.Context, dealID string) ([]*domain.TxnEntityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TxnEntityRecord
	for _, r := range s.data[dealID] {
		recordCopy := *r
		result = append(result, &recordCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TxnID < result[j].TxnID
	})
	return result, nil
}

// Verify interface compliance at compile time.
var (
	_ storage.TransferLinkStore = (*TransferLinkStore)(nil)
	_ storage.EntityStore       = (*EntityStore)(nil)
	_ storage.TxnEntityMapStore = (*TxnEntityMapStore)(nil)
)
