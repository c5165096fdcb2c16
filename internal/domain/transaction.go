package domain

// RawTransaction is one canonical ledger line. Immutable once stored.
// Amounts are signed integer cents (positive = inflow); never zero,
// never floating point.
type RawTransaction struct {
	TxnID                string // deterministic content hash, see idhash
	RowID                string // storage row UUID
	DealID               string
	DocumentID           string
	TxnDate              string // YYYY-MM-DD
	AccountID            string
	SignedAmountCents    int64
	RawDescriptor        string
	NormalizedDescriptor string
	CreatedAt            int64 // ms
}

// AbsAmountCents returns the absolute amount in cents.
func (t *RawTransaction) AbsAmountCents() int64 {
	if t.SignedAmountCents < 0 {
		return -t.SignedAmountCents
	}
	return t.SignedAmountCents
}

// TransferLink is a confirmed pairing of one outflow and one inflow
// representing internal movement between the deal's own accounts.
// Never mutated; recomputed wholesale each pipeline run.
type TransferLink struct {
	ID               string
	DealID           string
	TxnOutID         string
	TxnInID          string
	AbsAmountCents   int64
	MatchRuleVersion string
}
