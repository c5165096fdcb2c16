package memory

import (
	"context"
	"sort"
	"sync"

	"deal-parity/internal/domain"
	"deal-parity/internal/storage"
)

// SnapshotStore is an in-memory implementation of storage.SnapshotStore.
type SnapshotStore struct {
	mu     sync.RWMutex
	byID   map[string]*domain.Snapshot
	byHash map[string]*domain.Snapshot // provenance hash -> snapshot
	order  []string                    // snapshot IDs in insertion order
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		byID:   make(map[string]*domain.Snapshot),
		byHash: make(map[string]*domain.Snapshot),
	}
}

// Insert adds a snapshot. Inserting a snapshot whose provenance hash
// already exists returns the existing row unchanged.
func (s *SnapshotStore) Insert(_ context.Context, snap *domain.Snapshot) (*domain.Snapshot, error) {
	if snap == nil || snap.ID == "" || snap.DealID == "" || snap.ProvenanceHash == "" {
		return nil, storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.byHash[snap.ProvenanceHash]; ok {
		snapCopy := *existing
		return &snapCopy, nil
	}
	if _, ok := s.byID[snap.ID]; ok {
		return nil, storage.ErrDuplicateKey
	}

	snapCopy := *snap
	s.byID[snap.ID] = &snapCopy
	s.byHash[snap.ProvenanceHash] = &snapCopy
	s.order = append(s.order, snap.ID)

	result := snapCopy
	return &result, nil
}

// GetByID retrieves a snapshot by ID.
func (s *SnapshotStore) GetByID(_ context.Context, id string) (*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.byID[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	snapCopy := *snap
	return &snapCopy, nil
}

// GetByProvenanceHash retrieves a snapshot by its provenance hash.
func (s *SnapshotStore) GetByProvenanceHash(_ context.Context, hash string) (*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.byHash[hash]
	if !ok {
		return nil, storage.ErrNotFound
	}
	snapCopy := *snap
	return &snapCopy, nil
}

// ListByDeal retrieves snapshots for a deal, newest-first.
func (s *SnapshotStore) ListByDeal(_ context.Context, dealID string) ([]*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pos := make(map[string]int, len(s.order))
	for i, id := range s.order {
		pos[id] = i
	}

	var result []*domain.Snapshot
	for _, id := range s.order {
		snap := s.byID[id]
		if snap.DealID == dealID {
			snapCopy := *snap
			result = append(result, &snapCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt != result[j].CreatedAt {
			return result[i].CreatedAt > result[j].CreatedAt
		}
		return pos[result[i].ID] > pos[result[j].ID]
	})
	return result, nil
}

// BackfillFinancialStateHash sets the financial-state hash on a snapshot
// that does not have one yet. Snapshots are otherwise immutable.
func (s *SnapshotStore) BackfillFinancialStateHash(_ context.Context, id, hash string) error {
	if id == "" || hash == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := s.byID[id]
	if !ok {
		return storage.ErrNotFound
	}
	if snap.FinancialStateHash != "" {
		return storage.ErrImmutable
	}
	snap.FinancialStateHash = hash
	return nil
}

// Verify interface compliance at compile time.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)
