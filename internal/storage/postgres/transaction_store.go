package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"deal-parity/internal/domain"
	"deal-parity/internal/storage"
)

// TransactionStore implements storage.TransactionStore using PostgreSQL.
type TransactionStore struct {
	pool *Pool
}

// NewTransactionStore creates a new TransactionStore.
func NewTransactionStore(pool *Pool) *TransactionStore {
	return &TransactionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TransactionStore = (*TransactionStore)(nil)

const txnColumns = `row_id, txn_id, deal_id, document_id, txn_date, account_id,
	signed_amount_cents, raw_descriptor, normalized_descriptor, created_at`

// canonical composite-key order
const txnOrder = `txn_date ASC, account_id ASC, signed_amount_cents ASC,
	normalized_descriptor ASC, txn_id ASC`

// InsertBatch adds rows atomically inside one transaction. Returns
// ErrDuplicateKey if any (deal_id, txn_id) already exists.
func (s *TransactionStore) InsertBatch(ctx context.Context, txs []*domain.RawTransaction) error {
	for _, t := range txs {
		if t == nil || t.TxnID == "" || t.DealID == "" {
			return storage.ErrInvalidInput
		}
	}
	if len(txs) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin insert batch: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO raw_transactions (` + txnColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	for _, t := range txs {
		_, err := tx.Exec(ctx, query,
			t.RowID,
			t.TxnID,
			t.DealID,
			t.DocumentID,
			t.TxnDate,
			t.AccountID,
			t.SignedAmountCents,
			t.RawDescriptor,
			t.NormalizedDescriptor,
			t.CreatedAt,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert transaction %s: %w", t.TxnID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit insert batch: %w", err)
	}
	return nil
}

// ListByDeal retrieves all rows for a deal in canonical composite-key order.
func (s *TransactionStore) ListByDeal(ctx context.Context, dealID string) ([]*domain.RawTransaction, error) {
	query := `
		SELECT ` + txnColumns + `
		FROM raw_transactions
		WHERE deal_id = $1
		ORDER BY ` + txnOrder

	rows, err := s.pool.Query(ctx, query, dealID)
	if err != nil {
		return nil, fmt.Errorf("list transactions by deal: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// ListByDocument retrieves all rows ingested from one document.
func (s *TransactionStore) ListByDocument(ctx context.Context, documentID string) ([]*domain.RawTransaction, error) {
	query := `
		SELECT ` + txnColumns + `
		FROM raw_transactions
		WHERE document_id = $1
		ORDER BY ` + txnOrder

	rows, err := s.pool.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("list transactions by document: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// scanTransactions scans rows into a slice of RawTransaction.
func scanTransactions(rows pgx.Rows) ([]*domain.RawTransaction, error) {
	var txs []*domain.RawTransaction

	for rows.Next() {
		var t domain.RawTransaction
		err := rows.Scan(
			&t.RowID,
			&t.TxnID,
			&t.DealID,
			&t.DocumentID,
			&t.TxnDate,
			&t.AccountID,
			&t.SignedAmountCents,
			&t.RawDescriptor,
			&t.NormalizedDescriptor,
			&t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		txs = append(txs, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}

	return txs, nil
}
