package domain

// Snapshot is the immutable export artifact. Once written, its payload and
// both hashes never change; the only permitted later write is a one-time
// additive backfill of FinancialStateHash on legacy rows that lack it.
type Snapshot struct {
	ID            string
	DealID        string
	AnalysisRunID string
	SchemaVersion string
	ConfigVersion string

	// ProvenanceHash covers the full canonical payload including the
	// override audit trail. FinancialStateHash covers only economic
	// outcome and excludes the audit trail.
	ProvenanceHash     string
	FinancialStateHash string

	CanonicalJSON string
	CreatedBy     string
	CreatedAt     int64 // ms
}
