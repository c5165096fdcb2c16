package postgres

import (
	"context"
	"fmt"

	"deal-parity/internal/domain"
	"deal-parity/internal/storage"
)

// OverrideStore implements storage.OverrideStore using PostgreSQL.
// The overrides table carries BEFORE UPDATE OR DELETE triggers, so
// append-only holds even against direct SQL.
type OverrideStore struct {
	pool *Pool
}

// NewOverrideStore creates a new OverrideStore.
func NewOverrideStore(pool *Pool) *OverrideStore {
	return &OverrideStore{pool: pool}
}

// Compile-time interface check.
var _ storage.OverrideStore = (*OverrideStore)(nil)

// Insert appends an override; the database assigns the insertion sequence.
// Returns ErrDuplicateKey if the id exists.
func (s *OverrideStore) Insert(ctx context.Context, o *domain.Override) error {
	if o == nil || o.ID == "" || o.DealID == "" || o.EntityID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO overrides (
			override_id, deal_id, entity_id, field, old_role, new_role,
			weight_bp, reason, created_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING seq
	`

	err := s.pool.QueryRow(ctx, query,
		o.ID,
		o.DealID,
		o.EntityID,
		o.Field,
		string(o.OldRole),
		string(o.NewRole),
		o.WeightBP,
		o.Reason,
		o.CreatedBy,
		o.CreatedAt,
	).Scan(&o.Seq)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert override: %w", err)
	}
	return nil
}

// ListByDeal retrieves the full ledger ordered by (created_at, seq).
func (s *OverrideStore) ListByDeal(ctx context.Context, dealID string) ([]*domain.Override, error) {
	query := `
		SELECT override_id, deal_id, entity_id, field, old_role, new_role,
		       weight_bp, reason, created_by, created_at, seq
		FROM overrides
		WHERE deal_id = $1
		ORDER BY created_at ASC, seq ASC
	`

	rows, err := s.pool.Query(ctx, query, dealID)
	if err != nil {
		return nil, fmt.Errorf("list overrides: %w", err)
	}
	defer rows.Close()

	var overrides []*domain.Override
	for rows.Next() {
		var o domain.Override
		var oldRole, newRole string
		err := rows.Scan(
			&o.ID,
			&o.DealID,
			&o.EntityID,
			&o.Field,
			&oldRole,
			&newRole,
			&o.WeightBP,
			&o.Reason,
			&o.CreatedBy,
			&o.CreatedAt,
			&o.Seq,
		)
		if err != nil {
			return nil, fmt.Errorf("scan override row: %w", err)
		}
		o.OldRole = domain.Role(oldRole)
		o.NewRole = domain.Role(newRole)
		overrides = append(overrides, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate override rows: %w", err)
	}
	return overrides, nil
}
