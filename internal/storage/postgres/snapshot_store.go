package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"deal-parity/internal/domain"
	"deal-parity/internal/storage"
)

// SnapshotStore implements storage.SnapshotStore using PostgreSQL.
// The snapshots table carries an immutability trigger that allows only the
// one-time financial-state hash backfill.
type SnapshotStore struct {
	pool *Pool
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(pool *Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

const snapshotColumns = `snapshot_id, deal_id, analysis_run_id, schema_version, config_version,
	provenance_hash, COALESCE(financial_state_hash, ''), canonical_json, created_by, created_at`

// Insert adds a snapshot. A provenance-hash collision resolves to the
// existing row (idempotent export), never a conflict.
func (s *SnapshotStore) Insert(ctx context.Context, snap *domain.Snapshot) (*domain.Snapshot, error) {
	if snap == nil || snap.ID == "" || snap.DealID == "" || snap.ProvenanceHash == "" {
		return nil, storage.ErrInvalidInput
	}

	query := `
		INSERT INTO snapshots (
			snapshot_id, deal_id, analysis_run_id, schema_version, config_version,
			provenance_hash, financial_state_hash, canonical_json, created_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9, $10)
		ON CONFLICT (provenance_hash) DO NOTHING
	`

	_, err := s.pool.Exec(ctx, query,
		snap.ID,
		snap.DealID,
		snap.AnalysisRunID,
		snap.SchemaVersion,
		snap.ConfigVersion,
		snap.ProvenanceHash,
		snap.FinancialStateHash,
		snap.CanonicalJSON,
		snap.CreatedBy,
		snap.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, storage.ErrDuplicateKey
		}
		return nil, fmt.Errorf("insert snapshot: %w", err)
	}

	// Whether this insert won or lost the race, the row behind the
	// provenance hash is the snapshot.
	return s.GetByProvenanceHash(ctx, snap.ProvenanceHash)
}

// GetByID retrieves a snapshot. Returns ErrNotFound if not exists.
func (s *SnapshotStore) GetByID(ctx context.Context, snapshotID string) (*domain.Snapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM snapshots
		WHERE snapshot_id = $1
	`

	snap, err := scanSnapshot(s.pool.QueryRow(ctx, query, snapshotID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot by id: %w", err)
	}
	return snap, nil
}

// GetByProvenanceHash retrieves a snapshot by its provenance hash.
func (s *SnapshotStore) GetByProvenanceHash(ctx context.Context, hash string) (*domain.Snapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM snapshots
		WHERE provenance_hash = $1
	`

	snap, err := scanSnapshot(s.pool.QueryRow(ctx, query, hash))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot by provenance hash: %w", err)
	}
	return snap, nil
}

// ListByDeal retrieves snapshots for a deal, newest-first.
func (s *SnapshotStore) ListByDeal(ctx context.Context, dealID string) ([]*domain.Snapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM snapshots
		WHERE deal_id = $1
		ORDER BY created_at DESC, snapshot_id DESC
	`

	rows, err := s.pool.Query(ctx, query, dealID)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []*domain.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}
	return snaps, nil
}

// BackfillFinancialStateHash sets the financial-state hash on a legacy
// snapshot that lacks one. Returns ErrImmutable if the snapshot already
// carries a hash (the table trigger raises in that case too).
func (s *SnapshotStore) BackfillFinancialStateHash(ctx context.Context, snapshotID, hash string) error {
	if snapshotID == "" || hash == "" {
		return storage.ErrInvalidInput
	}

	query := `
		UPDATE snapshots
		SET financial_state_hash = $2
		WHERE snapshot_id = $1 AND financial_state_hash IS NULL
	`

	tag, err := s.pool.Exec(ctx, query, snapshotID, hash)
	if err != nil {
		if isImmutableError(err) {
			return storage.ErrImmutable
		}
		return fmt.Errorf("backfill financial state hash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Either the snapshot is missing or the hash is already set.
		if _, err := s.GetByID(ctx, snapshotID); err != nil {
			return err
		}
		return storage.ErrImmutable
	}
	return nil
}

// scanSnapshot scans a single row into a Snapshot.
func scanSnapshot(row pgx.Row) (*domain.Snapshot, error) {
	var snap domain.Snapshot
	err := row.Scan(
		&snap.ID,
		&snap.DealID,
		&snap.AnalysisRunID,
		&snap.SchemaVersion,
		&snap.ConfigVersion,
		&snap.ProvenanceHash,
		&snap.FinancialStateHash,
		&snap.CanonicalJSON,
		&snap.CreatedBy,
		&snap.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &snap, nil
}
