package postgres

import (
	"context"
	"fmt"

	"deal-parity/internal/domain"
	"deal-parity/internal/storage"
)

// DealStore implements storage.DealStore using PostgreSQL.
type DealStore struct {
	pool *Pool
}

// NewDealStore creates a new DealStore.
func NewDealStore(pool *Pool) *DealStore {
	return &DealStore{pool: pool}
}

// Compile-time interface check.
var _ storage.DealStore = (*DealStore)(nil)

// Insert adds a new deal. Returns ErrDuplicateKey if the id exists.
func (s *DealStore) Insert(ctx context.Context, d *domain.Deal) error {
	if d == nil || d.ID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO deals (
			deal_id, currency, accrual_revenue_cents, accrual_period_start,
			accrual_period_end, accrual_manual, created_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.pool.Exec(ctx, query,
		d.ID,
		d.Currency,
		d.Accrual.RevenueCents,
		d.Accrual.PeriodStart,
		d.Accrual.PeriodEnd,
		d.Accrual.Manual,
		d.CreatedBy,
		d.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert deal: %w", err)
	}
	return nil
}

// GetByID retrieves a deal. Returns ErrNotFound if not exists.
func (s *DealStore) GetByID(ctx context.Context, dealID string) (*domain.Deal, error) {
	query := `
		SELECT deal_id, currency, accrual_revenue_cents, accrual_period_start,
		       accrual_period_end, accrual_manual, created_by, created_at
		FROM deals
		WHERE deal_id = $1
	`

	var d domain.Deal
	err := s.pool.QueryRow(ctx, query, dealID).Scan(
		&d.ID,
		&d.Currency,
		&d.Accrual.RevenueCents,
		&d.Accrual.PeriodStart,
		&d.Accrual.PeriodEnd,
		&d.Accrual.Manual,
		&d.CreatedBy,
		&d.CreatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get deal by id: %w", err)
	}
	return &d, nil
}

// UpdateAccrual replaces the accrual reference figures.
func (s *DealStore) UpdateAccrual(ctx context.Context, dealID string, accrual domain.AccrualReference) error {
	query := `
		UPDATE deals
		SET accrual_revenue_cents = $2,
		    accrual_period_start = $3,
		    accrual_period_end = $4,
		    accrual_manual = $5
		WHERE deal_id = $1
	`

	tag, err := s.pool.Exec(ctx, query,
		dealID,
		accrual.RevenueCents,
		accrual.PeriodStart,
		accrual.PeriodEnd,
		accrual.Manual,
	)
	if err != nil {
		return fmt.Errorf("update deal accrual: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
