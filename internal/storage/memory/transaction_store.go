package memory

import (
	"context"
	"sort"
	"sync"

	"deal-parity/internal/domain"
	"deal-parity/internal/storage"
)

// TransactionStore is an in-memory implementation of storage.TransactionStore.
type TransactionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.RawTransaction // keyed by deal_id + "|" + txn_id
}

// NewTransactionStore creates a new in-memory transaction store.
func NewTransactionStore() *TransactionStore {
	return &TransactionStore{data: make(map[string]*domain.RawTransaction)}
}

func txnKey(dealID, txnID string) string {
	return dealID + "|" + txnID
}

// InsertBatch adds rows atomically. Returns ErrDuplicateKey if any txn_id
// already exists for its deal; nothing is stored on failure.
func (s *TransactionStore) InsertBatch(_ context.Context, txs []*domain.RawTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, tx := range txs {
		if tx == nil || tx.TxnID == "" || tx.DealID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[txnKey(tx.DealID, tx.TxnID)]; exists {
			return storage.ErrDuplicateKey
		}
	}

	for _, tx := range txs {
		txCopy := *tx
		s.data[txnKey(tx.DealID, tx.TxnID)] = &txCopy
	}
	return nil
}

// ListByDeal retrieves all rows for a deal in canonical composite-key order.
func (s *TransactionStore) ListByDeal(_ context.Context, dealID string) ([]*domain.RawTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.RawTransaction
	for _, tx := range s.data {
		if tx.DealID == dealID {
			txCopy := *tx
			result = append(result, &txCopy)
		}
	}

	sortCanonical(result)
	return result, nil
}

// ListByDocument retrieves all rows ingested from one document.
func (s *TransactionStore) ListByDocument(_ context.Context, documentID string) ([]*domain.RawTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.RawTransaction
	for _, tx := range s.data {
		if tx.DocumentID == documentID {
			txCopy := *tx
			result = append(result, &txCopy)
		}
	}

	sortCanonical(result)
	return result, nil
}

// sortCanonical orders by date, account, amount, descriptor, txn_id.
func sortCanonical(txs []*domain.RawTransaction) {
	sort.Slice(txs, func(i, j int) bool {
		a, b := txs[i], txs[j]
		if a.TxnDate != b.TxnDate {
			return a.TxnDate < b.TxnDate
		}
		if a.AccountID != b.AccountID {
			return a.AccountID < b.AccountID
		}
		if a.SignedAmountCents != b.SignedAmountCents {
			return a.SignedAmountCents < b.SignedAmountCents
		}
		if a.NormalizedDescriptor != b.NormalizedDescriptor {
			return a.NormalizedDescriptor < b.NormalizedDescriptor
		}
		return a.TxnID < b.TxnID
	})
}

// Verify interface compliance at compile time.
var _ storage.TransactionStore = (*TransactionStore)(nil)
