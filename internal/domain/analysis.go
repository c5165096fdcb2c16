package domain

// ReconciliationStatus represents the outcome of the accrual cross-check.
type ReconciliationStatus string

const (
	ReconciliationNotRun        ReconciliationStatus = "NOT_RUN"
	ReconciliationOK            ReconciliationStatus = "OK"
	ReconciliationFailedOverlap ReconciliationStatus = "FAILED_OVERLAP"
)

// String returns the string representation of ReconciliationStatus.
func (s ReconciliationStatus) String() string {
	return string(s)
}

// IsValid checks if the status is a valid value.
func (s ReconciliationStatus) IsValid() bool {
	return s == ReconciliationNotRun || s == ReconciliationOK || s == ReconciliationFailedOverlap
}

// Tier is the coarse confidence category derived from the numeric score.
type Tier string

const (
	TierLow    Tier = "Low"
	TierMedium Tier = "Medium"
	TierHigh   Tier = "High"
)

// String returns the string representation of Tier.
func (t Tier) String() string {
	return string(t)
}

// IsValid checks if the tier is a valid value.
func (t Tier) IsValid() bool {
	return t == TierLow || t == TierMedium || t == TierHigh
}

// RunState is the lifecycle state of an analysis run.
// LIVE_DRAFT runs are recomputable; the immutable artifact is the Snapshot.
type RunState string

const (
	RunStateLiveDraft RunState = "LIVE_DRAFT"
)

// Run trigger reason codes.
const (
	RunTriggerParseComplete = "parse_complete"
	RunTriggerOverrideAdded = "override_added"
	RunTriggerExport        = "export"
)

// AnalysisRun is the full recomputable pipeline output for a deal.
// All money values are integer cents, all percentages integer basis points.
type AnalysisRun struct {
	ID            string
	DealID        string
	State         RunState
	SchemaVersion string
	ConfigVersion string
	RunTrigger    string

	NonTransferAbsTotalCents   int64
	ClassifiedAbsTotalCents    int64
	BankOperationalInflowCents int64

	CoverageBP            int64
	MissingMonthCount     int64
	MissingMonthPenaltyBP int64
	OverridePenaltyBP     int64

	ReconciliationStatus ReconciliationStatus
	ReconciliationBP     *int64 // nil unless reconciliation ran to completion

	BaseConfidenceBP  int64
	FinalConfidenceBP int64
	Tier              Tier
	TierCapped        bool

	RawTransactionHash string
	TransferLinksHash  string
	EntitiesHash       string
	OverridesHash      string

	CreatedAt int64 // ms
}
