package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"deal-parity/internal/domain"
	"deal-parity/internal/storage"
)

// AnalysisRunStore implements storage.AnalysisRunStore using PostgreSQL.
type AnalysisRunStore struct {
	pool *Pool
}

// NewAnalysisRunStore creates a new AnalysisRunStore.
func NewAnalysisRunStore(pool *Pool) *AnalysisRunStore {
	return &AnalysisRunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AnalysisRunStore = (*AnalysisRunStore)(nil)

const runColumns = `run_id, deal_id, state, schema_version, config_version, run_trigger,
	non_transfer_abs_total_cents, classified_abs_total_cents, bank_operational_inflow_cents,
	coverage_bp, missing_month_count, missing_month_penalty_bp, override_penalty_bp,
	reconciliation_status, reconciliation_bp, base_confidence_bp, final_confidence_bp,
	tier, tier_capped, raw_transaction_hash, transfer_links_hash, entities_hash,
	overrides_hash, created_at`

// Insert adds a new run.
func (s *AnalysisRunStore) Insert(ctx context.Context, r *domain.AnalysisRun) error {
	if r == nil || r.ID == "" || r.DealID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO analysis_runs (` + runColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		        $16, $17, $18, $19, $20, $21, $22, $23, $24)
	`

	_, err := s.pool.Exec(ctx, query,
		r.ID,
		r.DealID,
		string(r.State),
		r.SchemaVersion,
		r.ConfigVersion,
		r.RunTrigger,
		r.NonTransferAbsTotalCents,
		r.ClassifiedAbsTotalCents,
		r.BankOperationalInflowCents,
		r.CoverageBP,
		r.MissingMonthCount,
		r.MissingMonthPenaltyBP,
		r.OverridePenaltyBP,
		string(r.ReconciliationStatus),
		r.ReconciliationBP,
		r.BaseConfidenceBP,
		r.FinalConfidenceBP,
		string(r.Tier),
		r.TierCapped,
		r.RawTransactionHash,
		r.TransferLinksHash,
		r.EntitiesHash,
		r.OverridesHash,
		r.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert analysis run: %w", err)
	}
	return nil
}

// Latest retrieves the most recent run for a deal.
func (s *AnalysisRunStore) Latest(ctx context.Context, dealID string) (*domain.AnalysisRun, error) {
	query := `
		SELECT ` + runColumns + `
		FROM analysis_runs
		WHERE deal_id = $1
		ORDER BY created_at DESC, run_id DESC
		LIMIT 1
	`

	r, err := scanRun(s.pool.QueryRow(ctx, query, dealID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("latest analysis run: %w", err)
	}
	return r, nil
}

// ListByDeal retrieves runs newest-first.
func (s *AnalysisRunStore) ListByDeal(ctx context.Context, dealID string) ([]*domain.AnalysisRun, error) {
	query := `
		SELECT ` + runColumns + `
		FROM analysis_runs
		WHERE deal_id = $1
		ORDER BY created_at DESC, run_id DESC
	`

	rows, err := s.pool.Query(ctx, query, dealID)
	if err != nil {
		return nil, fmt.Errorf("list analysis runs: %w", err)
	}
	defer rows.Close()

	var runs []*domain.AnalysisRun
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan analysis run row: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate analysis run rows: %w", err)
	}
	return runs, nil
}

// scanRun scans a single row into an AnalysisRun.
func scanRun(row pgx.Row) (*domain.AnalysisRun, error) {
	var r domain.AnalysisRun
	var state, status, tier string

	err := row.Scan(
		&r.ID,
		&r.DealID,
		&state,
		&r.SchemaVersion,
		&r.ConfigVersion,
		&r.RunTrigger,
		&r.NonTransferAbsTotalCents,
		&r.ClassifiedAbsTotalCents,
		&r.BankOperationalInflowCents,
		&r.CoverageBP,
		&r.MissingMonthCount,
		&r.MissingMonthPenaltyBP,
		&r.OverridePenaltyBP,
		&status,
		&r.ReconciliationBP,
		&r.BaseConfidenceBP,
		&r.FinalConfidenceBP,
		&tier,
		&r.TierCapped,
		&r.RawTransactionHash,
		&r.TransferLinksHash,
		&r.EntitiesHash,
		&r.OverridesHash,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.State = domain.RunState(state)
	r.ReconciliationStatus = domain.ReconciliationStatus(status)
	r.Tier = domain.Tier(tier)
	return &r, nil
}
