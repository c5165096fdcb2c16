package storage

import (
	"context"

	"deal-parity/internal/domain"
)

// DealStore provides access to deals storage.
type DealStore interface {
	// Insert adds a new deal. Returns ErrDuplicateKey if the id exists.
	Insert(ctx context.Context, d *domain.Deal) error

	// GetByID retrieves a deal. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, dealID string) (*domain.Deal, error)

	// UpdateAccrual replaces the accrual reference figures. This is the
	// only mutable part of a deal.
	UpdateAccrual(ctx context.Context, dealID string, accrual domain.AccrualReference) error
}

// TransactionStore provides access to raw_transactions storage.
// Rows are immutable once stored.
type TransactionStore interface {
	// InsertBatch adds rows atomically. Returns ErrDuplicateKey if any
	// txn_id already exists for the deal.
	InsertBatch(ctx context.Context, txs []*domain.RawTransaction) error

	// ListByDeal retrieves all rows for a deal, ordered by the canonical
	// composite key (date, account, amount, descriptor, txn_id).
	ListByDeal(ctx context.Context, dealID string) ([]*domain.RawTransaction, error)

	// ListByDocument retrieves all rows ingested from one document.
	ListByDocument(ctx context.Context, documentID string) ([]*domain.RawTransaction, error)
}

// TransferLinkStore holds the derived transfer links for a deal.
// Links are a recomputed cache, replaced wholesale each pipeline run.
type TransferLinkStore interface {
	// ReplaceForDeal atomically swaps all links for a deal.
	ReplaceForDeal(ctx context.Context, dealID string, links []*domain.TransferLink) error

	// ListByDeal retrieves links ordered by (txn_out_id, txn_in_id).
	ListByDeal(ctx context.Context, dealID string) ([]*domain.TransferLink, error)
}

// EntityStore holds derived counter-party entities.
type EntityStore interface {
	// UpsertBatch inserts or refreshes entities (identity is content-derived).
	UpsertBatch(ctx context.Context, entities []*domain.Entity) error

	// ListByDeal retrieves entities ordered by entity_id.
	ListByDeal(ctx context.Context, dealID string) ([]*domain.Entity, error)
}

// TxnEntityMapStore holds the derived role assignments for a deal,
// replaced wholesale each pipeline run.
type TxnEntityMapStore interface {
	// ReplaceForDeal atomically swaps all assignments for a deal.
	ReplaceForDeal(ctx context.Context, dealID string, records []*domain.TxnEntityRecord) error

	// ListByDeal retrieves assignments ordered by txn_id.
	ListByDeal(ctx context.Context, dealID string) ([]*domain.TxnEntityRecord, error)
}

// OverrideStore is the append-only override ledger. The interface exposes
// no update or delete: immutability is structural, not conventional.
type OverrideStore interface {
	// Insert appends an override. Returns ErrDuplicateKey if the id exists.
	Insert(ctx context.Context, o *domain.Override) error

	// ListByDeal retrieves the full ledger ordered by (created_at, seq).
	ListByDeal(ctx context.Context, dealID string) ([]*domain.Override, error)
}

// AnalysisRunStore holds LIVE_DRAFT runs (insert-only; runs are superseded,
// never deleted).
type AnalysisRunStore interface {
	// Insert adds a new run.
	Insert(ctx context.Context, r *domain.AnalysisRun) error

	// Latest retrieves the most recent run for a deal.
	// Returns ErrNotFound when no run exists.
	Latest(ctx context.Context, dealID string) (*domain.AnalysisRun, error)

	// ListByDeal retrieves runs newest-first.
	ListByDeal(ctx context.Context, dealID string) ([]*domain.AnalysisRun, error)
}

// SnapshotStore holds immutable export artifacts. No update or delete
// exists; the sole additional write is the one-time financial-state hash
// backfill on legacy rows that lack it.
type SnapshotStore interface {
	// Insert adds a snapshot. Inserting a snapshot whose provenance hash
	// already exists resolves to the existing row (idempotent), never a
	// conflict.
	Insert(ctx context.Context, s *domain.Snapshot) (*domain.Snapshot, error)

	// GetByID retrieves a snapshot. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, snapshotID string) (*domain.Snapshot, error)

	// GetByProvenanceHash retrieves a snapshot by its provenance hash.
	// Returns ErrNotFound if not exists.
	GetByProvenanceHash(ctx context.Context, hash string) (*domain.Snapshot, error)

	// ListByDeal retrieves snapshots for a deal, newest-first.
	ListByDeal(ctx context.Context, dealID string) ([]*domain.Snapshot, error)

	// BackfillFinancialStateHash sets the financial-state hash on a legacy
	// snapshot that lacks one. Returns ErrImmutable if the snapshot
	// already carries a hash.
	BackfillFinancialStateHash(ctx context.Context, snapshotID, hash string) error
}
