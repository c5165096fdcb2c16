// Package canonical builds the deterministic, order-preserving payload that
// both hashes are computed over. Key order is fixed by struct declaration
// order; every slice is sorted by an explicit comparator before hashing.
// The field split between FinancialState and the full snapshot payload is a
// versioned contract (SchemaVersion) — changing it changes every hash.
package canonical

import (
	"deal-parity/internal/domain"
)

// TransactionPayload is the hashed view of one transaction. Storage row
// UUIDs and ingestion timestamps are deliberately excluded: the hash must
// be a function of ledger content, never of when or how rows were stored.
type TransactionPayload struct {
	TxnID                string `json:"txn_id"`
	TxnDate              string `json:"txn_date"`
	AccountID            string `json:"account_id"`
	SignedAmountCents    int64  `json:"signed_amount_cents"`
	NormalizedDescriptor string `json:"normalized_descriptor"`
}

// TransferLinkPayload is the hashed view of one transfer link.
type TransferLinkPayload struct {
	TxnOutID         string `json:"txn_out_id"`
	TxnInID          string `json:"txn_in_id"`
	AbsAmountCents   int64  `json:"abs_amount_cents"`
	MatchRuleVersion string `json:"match_rule_version"`
}

// EntityPayload is the hashed view of one counter-party entity.
type EntityPayload struct {
	EntityID       string `json:"entity_id"`
	NormalizedName string `json:"normalized_name"`
	DisplayName    string `json:"display_name"`
}

// TxnEntityPayload is the hashed view of one role assignment.
type TxnEntityPayload struct {
	TxnID       string `json:"txn_id"`
	EntityID    string `json:"entity_id"`
	Role        string `json:"role"`
	RoleVersion string `json:"role_version"`
}

// MetricsPayload is the hashed metrics block.
type MetricsPayload struct {
	CoverageBP            int64  `json:"coverage_bp"`
	MissingMonthCount     int64  `json:"missing_month_count"`
	MissingMonthPenaltyBP int64  `json:"missing_month_penalty_bp"`
	ReconciliationStatus  string `json:"reconciliation_status"`
	ReconciliationBP      *int64 `json:"reconciliation_bp"`
}

// ConfidencePayload is the hashed confidence block. The override penalty
// belongs here: it is the net economic effect of the ledger, while the
// ledger entries themselves are provenance only.
type ConfidencePayload struct {
	FinalConfidenceBP int64  `json:"final_confidence_bp"`
	Tier              string `json:"tier"`
	TierCapped        bool   `json:"tier_capped"`
	OverridePenaltyBP int64  `json:"override_penalty_bp"`
}

// OverridePayload is the audit-trail view of one override. It appears only
// in the full snapshot payload, never in FinancialState.
type OverridePayload struct {
	EntityID  string `json:"entity_id"`
	Field     string `json:"field"`
	OldValue  string `json:"old_value"`
	NewValue  string `json:"new_value"`
	WeightBP  int64  `json:"weight_bp"`
	CreatedAt int64  `json:"created_at"`
	Seq       int64  `json:"seq"`
}

// FinancialState is the outcome-only view: the canonical input to the
// financial-state hash. It excludes the override audit trail but includes
// its net effect through the confidence block.
type FinancialState struct {
	SchemaVersion      string                `json:"schema_version"`
	ConfigVersion      string                `json:"config_version"`
	DealID             string                `json:"deal_id"`
	Currency           string                `json:"currency"`
	RawTransactionHash string                `json:"raw_transaction_hash"`
	Transactions       []TransactionPayload  `json:"transactions"`
	TransferLinks      []TransferLinkPayload `json:"transfer_links"`
	Entities           []EntityPayload       `json:"entities"`
	TxnEntityMap       []TxnEntityPayload    `json:"txn_entity_map"`
	Metrics            MetricsPayload        `json:"metrics"`
	Confidence         ConfidencePayload     `json:"confidence"`
}

// SnapshotPayload is the full canonical payload: the financial state plus
// its own hash and the override audit trail. The provenance hash covers all
// of it, so any change to override history — even one that nets to zero —
// changes the provenance hash while leaving the financial-state hash alone.
type SnapshotPayload struct {
	FinancialState
	FinancialStateHash string            `json:"financial_state_hash"`
	OverridesApplied   []OverridePayload `json:"overrides_applied"`
}

// TransactionToPayload converts a stored transaction to its hashed view.
func TransactionToPayload(tx *domain.RawTransaction) TransactionPayload {
	return TransactionPayload{
		TxnID:                tx.TxnID,
		TxnDate:              tx.TxnDate,
		AccountID:            tx.AccountID,
		SignedAmountCents:    tx.SignedAmountCents,
		NormalizedDescriptor: tx.NormalizedDescriptor,
	}
}

// LinkToPayload converts a transfer link to its hashed view.
func LinkToPayload(l *domain.TransferLink) TransferLinkPayload {
	return TransferLinkPayload{
		TxnOutID:         l.TxnOutID,
		TxnInID:          l.TxnInID,
		AbsAmountCents:   l.AbsAmountCents,
		MatchRuleVersion: l.MatchRuleVersion,
	}
}

// EntityToPayload converts an entity to its hashed view.
func EntityToPayload(e *domain.Entity) EntityPayload {
	return EntityPayload{
		EntityID:       e.EntityID,
		NormalizedName: e.NormalizedName,
		DisplayName:    e.DisplayName,
	}
}

// RecordToPayload converts a role assignment to its hashed view.
func RecordToPayload(r *domain.TxnEntityRecord) TxnEntityPayload {
	return TxnEntityPayload{
		TxnID:       r.TxnID,
		EntityID:    r.EntityID,
		Role:        r.Role.String(),
		RoleVersion: r.RoleVersion,
	}
}

// OverrideToPayload converts an override to its audit-trail view.
func OverrideToPayload(o *domain.Override) OverridePayload {
	return OverridePayload{
		EntityID:  o.EntityID,
		Field:     o.Field,
		OldValue:  o.OldRole.String(),
		NewValue:  o.NewRole.String(),
		WeightBP:  o.WeightBP,
		CreatedAt: o.CreatedAt,
		Seq:       o.Seq,
	}
}
