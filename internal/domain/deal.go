package domain

// Deal is the investment subject that owns transactions, overrides,
// analysis runs and snapshots.
type Deal struct {
	ID       string
	Currency string // ISO 4217 code, established at creation
	Accrual  AccrualReference
	CreatedBy string
	CreatedAt int64 // ms
}

// AccrualReference is an optional externally supplied accrual revenue figure
// for a stated period. A zero RevenueCents or empty period means "absent".
type AccrualReference struct {
	RevenueCents int64
	PeriodStart  string // YYYY-MM-DD, "" when absent
	PeriodEnd    string // YYYY-MM-DD, "" when absent
	Manual       bool   // true when entered by hand rather than imported
}

// Present reports whether the accrual figure is usable for reconciliation.
func (a AccrualReference) Present() bool {
	return a.RevenueCents > 0 && a.PeriodStart != "" && a.PeriodEnd != ""
}
