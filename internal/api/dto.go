package api

import (
	"encoding/json"

	"deal-parity/internal/domain"
)

type accrualJSON struct {
	RevenueCents int64  `json:"revenue_cents"`
	PeriodStart  string `json:"period_start"`
	PeriodEnd    string `json:"period_end"`
	Manual       bool   `json:"manual"`
}

type dealJSON struct {
	ID        string       `json:"id"`
	Currency  string       `json:"currency"`
	Accrual   *accrualJSON `json:"accrual,omitempty"`
	CreatedBy string       `json:"created_by"`
	CreatedAt int64        `json:"created_at"`
}

func dealToJSON(d *domain.Deal) dealJSON {
	out := dealJSON{
		ID:        d.ID,
		Currency:  d.Currency,
		CreatedBy: d.CreatedBy,
		CreatedAt: d.CreatedAt,
	}
	if d.Accrual.Present() {
		out.Accrual = &accrualJSON{
			RevenueCents: d.Accrual.RevenueCents,
			PeriodStart:  d.Accrual.PeriodStart,
			PeriodEnd:    d.Accrual.PeriodEnd,
			Manual:       d.Accrual.Manual,
		}
	}
	return out
}

type runJSON struct {
	ID            string `json:"id"`
	DealID        string `json:"deal_id"`
	State         string `json:"state"`
	SchemaVersion string `json:"schema_version"`
	ConfigVersion string `json:"config_version"`
	RunTrigger    string `json:"run_trigger"`

	NonTransferAbsTotalCents   int64 `json:"non_transfer_abs_total_cents"`
	ClassifiedAbsTotalCents    int64 `json:"classified_abs_total_cents"`
	BankOperationalInflowCents int64 `json:"bank_operational_inflow_cents"`

	CoverageBP            int64 `json:"coverage_bp"`
	MissingMonthCount     int64 `json:"missing_month_count"`
	MissingMonthPenaltyBP int64 `json:"missing_month_penalty_bp"`
	OverridePenaltyBP     int64 `json:"override_penalty_bp"`

	ReconciliationStatus string `json:"reconciliation_status"`
	ReconciliationBP     *int64 `json:"reconciliation_bp"`

	BaseConfidenceBP  int64  `json:"base_confidence_bp"`
	FinalConfidenceBP int64  `json:"final_confidence_bp"`
	Tier              string `json:"tier"`
	TierCapped        bool   `json:"tier_capped"`

	RawTransactionHash string `json:"raw_transaction_hash"`
	TransferLinksHash  string `json:"transfer_links_hash"`
	EntitiesHash       string `json:"entities_hash"`
	OverridesHash      string `json:"overrides_hash"`

	CreatedAt int64 `json:"created_at"`
}

func runToJSON(r *domain.AnalysisRun) runJSON {
	return runJSON{
		ID:                         r.ID,
		DealID:                     r.DealID,
		State:                      string(r.State),
		SchemaVersion:              r.SchemaVersion,
		ConfigVersion:              r.ConfigVersion,
		RunTrigger:                 r.RunTrigger,
		NonTransferAbsTotalCents:   r.NonTransferAbsTotalCents,
		ClassifiedAbsTotalCents:    r.ClassifiedAbsTotalCents,
		BankOperationalInflowCents: r.BankOperationalInflowCents,
		CoverageBP:                 r.CoverageBP,
		MissingMonthCount:          r.MissingMonthCount,
		MissingMonthPenaltyBP:      r.MissingMonthPenaltyBP,
		OverridePenaltyBP:          r.OverridePenaltyBP,
		ReconciliationStatus:       string(r.ReconciliationStatus),
		ReconciliationBP:           r.ReconciliationBP,
		BaseConfidenceBP:           r.BaseConfidenceBP,
		FinalConfidenceBP:          r.FinalConfidenceBP,
		Tier:                       string(r.Tier),
		TierCapped:                 r.TierCapped,
		RawTransactionHash:         r.RawTransactionHash,
		TransferLinksHash:          r.TransferLinksHash,
		EntitiesHash:               r.EntitiesHash,
		OverridesHash:              r.OverridesHash,
		CreatedAt:                  r.CreatedAt,
	}
}

type overrideJSON struct {
	ID        string `json:"id"`
	DealID    string `json:"deal_id"`
	EntityID  string `json:"entity_id"`
	Field     string `json:"field"`
	OldRole   string `json:"old_role"`
	NewRole   string `json:"new_role"`
	WeightBP  int64  `json:"weight_bp"`
	Reason    string `json:"reason"`
	CreatedBy string `json:"created_by"`
	CreatedAt int64  `json:"created_at"`
	Seq       int64  `json:"seq"`
}

func overrideToJSON(o *domain.Override) overrideJSON {
	return overrideJSON{
		ID:        o.ID,
		DealID:    o.DealID,
		EntityID:  o.EntityID,
		Field:     o.Field,
		OldRole:   string(o.OldRole),
		NewRole:   string(o.NewRole),
		WeightBP:  o.WeightBP,
		Reason:    o.Reason,
		CreatedBy: o.CreatedBy,
		CreatedAt: o.CreatedAt,
		Seq:       o.Seq,
	}
}

// snapshotJSON is the summary view; the canonical payload is only included
// on single-snapshot fetches.
type snapshotJSON struct {
	ID                 string          `json:"id"`
	DealID             string          `json:"deal_id"`
	AnalysisRunID      string          `json:"analysis_run_id"`
	SchemaVersion      string          `json:"schema_version"`
	ConfigVersion      string          `json:"config_version"`
	ProvenanceHash     string          `json:"provenance_hash"`
	FinancialStateHash string          `json:"financial_state_hash"`
	CanonicalJSON      json.RawMessage `json:"canonical_json,omitempty"`
	CreatedBy          string          `json:"created_by"`
	CreatedAt          int64           `json:"created_at"`
}

func snapshotToJSON(s *domain.Snapshot, includePayload bool) snapshotJSON {
	out := snapshotJSON{
		ID:                 s.ID,
		DealID:             s.DealID,
		AnalysisRunID:      s.AnalysisRunID,
		SchemaVersion:      s.SchemaVersion,
		ConfigVersion:      s.ConfigVersion,
		ProvenanceHash:     s.ProvenanceHash,
		FinancialStateHash: s.FinancialStateHash,
		CreatedBy:          s.CreatedBy,
		CreatedAt:          s.CreatedAt,
	}
	if includePayload {
		out.CanonicalJSON = json.RawMessage(s.CanonicalJSON)
	}
	return out
}
