package ingestion

import (
	"context"
	"fmt"
	"log"
	"time"

	"deal-parity/internal/domain"
	"deal-parity/internal/observability"
	"deal-parity/internal/storage"
)

// Service ingests validated documents into the immutable ledger.
type Service struct {
	deals storage.DealStore
	txns  storage.TransactionStore
	clock func() time.Time
}

// NewService creates an ingestion service.
func NewService(deals storage.DealStore, txns storage.TransactionStore) *Service {
	return &Service{
		deals: deals,
		txns:  txns,
		clock: func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// Result reports what one document ingestion did.
type Result struct {
	DocumentID string
	Inserted   int
	// Skipped counts rows whose txn_id already exists in the ledger.
	// Re-submitting a document is a no-op, not an error.
	Skipped int
}

// Ingest validates rows against the deal and appends the new ones to the
// ledger. Validation errors reject the whole document; rows already
// present (by content-derived txn_id) are skipped silently.
func (s *Service) Ingest(ctx context.Context, dealID, documentID string, rows []Row) (*Result, error) {
	deal, err := s.deals.GetByID(ctx, dealID)
	if err != nil {
		return nil, fmt.Errorf("load deal: %w", err)
	}

	nowMS := s.clock().UnixMilli()
	validated, err := ValidateRows(deal, documentID, rows, nowMS)
	if err != nil {
		observability.RecordIngestionError(errorType(err))
		return nil, err
	}

	existing, err := s.txns.ListByDeal(ctx, dealID)
	if err != nil {
		return nil, fmt.Errorf("load existing transactions: %w", err)
	}
	seen := make(map[string]bool, len(existing))
	for _, tx := range existing {
		seen[tx.TxnID] = true
	}

	var fresh []*domain.RawTransaction
	skipped := 0
	for _, tx := range validated {
		if seen[tx.TxnID] {
			skipped++
			continue
		}
		seen[tx.TxnID] = true
		fresh = append(fresh, tx)
	}

	if len(fresh) > 0 {
		if err := s.txns.InsertBatch(ctx, fresh); err != nil {
			return nil, fmt.Errorf("store transactions: %w", err)
		}
	}

	observability.RecordRowsIngested(len(fresh))
	observability.DefaultMetrics.RowsSkipped.Add(float64(skipped))
	observability.DefaultMetrics.DocumentsProcessed.Inc()
	log.Printf("[ingestion] deal=%s document=%s inserted=%d skipped=%d", dealID, documentID, len(fresh), skipped)

	return &Result{DocumentID: documentID, Inserted: len(fresh), Skipped: skipped}, nil
}

func errorType(err error) string {
	switch err.(type) {
	case *CurrencyMismatchError:
		return "currency_mismatch"
	case *InvalidSchemaError:
		return "invalid_schema"
	default:
		return "other"
	}
}
