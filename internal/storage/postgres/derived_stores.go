package postgres

import (
	"context"
	"fmt"

	"deal-parity/internal/domain"
	"deal-parity/internal/storage"
)

// TransferLinkStore implements storage.TransferLinkStore using PostgreSQL.
type TransferLinkStore struct {
	pool *Pool
}

// NewTransferLinkStore creates a new TransferLinkStore.
func NewTransferLinkStore(pool *Pool) *TransferLinkStore {
	return &TransferLinkStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TransferLinkStore = (*TransferLinkStore)(nil)

// ReplaceForDeal atomically swaps all links for a deal.
func (s *TransferLinkStore) ReplaceForDeal(ctx context.Context, dealID string, links []*domain.TransferLink) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace links: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM transfer_links WHERE deal_id = $1`, dealID); err != nil {
		return fmt.Errorf("clear transfer links: %w", err)
	}

	query := `
		INSERT INTO transfer_links (
			link_id, deal_id, txn_out_id, txn_in_id, abs_amount_cents, match_rule_version
		) VALUES ($1, $2, $3, $4, $5, $6)
	`
	for _, l := range links {
		if l == nil || l.ID == "" {
			return storage.ErrInvalidInput
		}
		_, err := tx.Exec(ctx, query,
			l.ID, l.DealID, l.TxnOutID, l.TxnInID, l.AbsAmountCents, l.MatchRuleVersion,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert transfer link: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit replace links: %w", err)
	}
	return nil
}

// ListByDeal retrieves links ordered by (txn_out_id, txn_in_id).
func (s *TransferLinkStore) ListByDeal(ctx context.Context, dealID string) ([]*domain.TransferLink, error) {
	query := `
		SELECT link_id, deal_id, txn_out_id, txn_in_id, abs_amount_cents, match_rule_version
		FROM transfer_links
		WHERE deal_id = $1
		ORDER BY txn_out_id ASC, txn_in_id ASC
	`

	rows, err := s.pool.Query(ctx, query, dealID)
	if err != nil {
		return nil, fmt.Errorf("list transfer links: %w", err)
	}
	defer rows.Close()

	var links []*domain.TransferLink
	for rows.Next() {
		var l domain.TransferLink
		if err := rows.Scan(&l.ID, &l.DealID, &l.TxnOutID, &l.TxnInID, &l.AbsAmountCents, &l.MatchRuleVersion); err != nil {
			return nil, fmt.Errorf("scan transfer link row: %w", err)
		}
		links = append(links, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transfer link rows: %w", err)
	}
	return links, nil
}

// EntityStore implements storage.EntityStore using PostgreSQL.
type EntityStore struct {
	pool *Pool
}

// NewEntityStore creates a new EntityStore.
func NewEntityStore(pool *Pool) *EntityStore {
	return &EntityStore{pool: pool}
}

// Compile-time interface check.
var _ storage.EntityStore = (*EntityStore)(nil)

// UpsertBatch inserts or refreshes entities (identity is content-derived).
func (s *EntityStore) UpsertBatch(ctx context.Context, entities []*domain.Entity) error {
	if len(entities) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin upsert entities: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO entities (entity_id, deal_id, normalized_name, display_name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (entity_id) DO UPDATE
		SET display_name = EXCLUDED.display_name
	`
	for _, e := range entities {
		if e == nil || e.EntityID == "" {
			return storage.ErrInvalidInput
		}
		if _, err := tx.Exec(ctx, query, e.EntityID, e.DealID, e.NormalizedName, e.DisplayName); err != nil {
			return fmt.Errorf("upsert entity: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit upsert entities: %w", err)
	}
	return nil
}

// ListByDeal retrieves entities ordered by entity_id.
func (s *EntityStore) ListByDeal(ctx context.Context, dealID string) ([]*domain.Entity, error) {
	query := `
		SELECT entity_id, deal_id, normalized_name, display_name
		FROM entities
		WHERE deal_id = $1
		ORDER BY entity_id ASC
	`

	rows, err := s.pool.Query(ctx, query, dealID)
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	defer rows.Close()

	var entities []*domain.Entity
	for rows.Next() {
		var e domain.Entity
		if err := rows.Scan(&e.EntityID, &e.DealID, &e.NormalizedName, &e.DisplayName); err != nil {
			return nil, fmt.Errorf("scan entity row: %w", err)
		}
		entities = append(entities, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entity rows: %w", err)
	}
	return entities, nil
}

// TxnEntityMapStore implements storage.TxnEntityMapStore using PostgreSQL.
type TxnEntityMapStore struct {
	pool *Pool
}

// NewTxnEntityMapStore creates a new TxnEntityMapStore.
func NewTxnEntityMapStore(pool *Pool) *TxnEntityMapStore {
	return &TxnEntityMapStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TxnEntityMapStore = (*TxnEntityMapStore)(nil)

// ReplaceForDeal atomically swaps all assignments for a deal.
func (s *TxnEntityMapStore) ReplaceForDeal(ctx context.Context, dealID string, records []*domain.TxnEntityRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace assignments: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM txn_entity_map WHERE deal_id = $1`, dealID); err != nil {
		return fmt.Errorf("clear assignments: %w", err)
	}

	query := `
		INSERT INTO txn_entity_map (deal_id, txn_id, entity_id, role, role_version)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, r := range records {
		if r == nil || r.TxnID == "" {
			return storage.ErrInvalidInput
		}
		if _, err := tx.Exec(ctx, query, r.DealID, r.TxnID, r.EntityID, string(r.Role), r.RoleVersion); err != nil {
			return fmt.Errorf("insert assignment: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit replace assignments: %w", err)
	}
	return nil
}

// ListByDeal retrieves assignments ordered by txn_id.
func (s *TxnEntityMapStore) ListByDeal(ctx context.Context, dealID string) ([]*domain.TxnEntityRecord, error) {
	query := `
		SELECT deal_id, txn_id, entity_id, role, role_version
		FROM txn_entity_map
		WHERE deal_id = $1
		ORDER BY txn_id ASC
	`

	rows, err := s.pool.Query(ctx, query, dealID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	var records []*domain.TxnEntityRecord
	for rows.Next() {
		var r domain.TxnEntityRecord
		var roleStr string
		if err := rows.Scan(&r.DealID, &r.TxnID, &r.EntityID, &roleStr, &r.RoleVersion); err != nil {
			return nil, fmt.Errorf("scan assignment row: %w", err)
		}
		r.Role = domain.Role(roleStr)
		records = append(records, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assignment rows: %w", err)
	}
	return records, nil
}
