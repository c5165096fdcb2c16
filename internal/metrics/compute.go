// Package metrics computes coverage, missing-month and reconciliation
// figures for a classified transaction set. All arithmetic is integer:
// money in cents, percentages in basis points.
package metrics

import (
	"time"

	"deal-parity/internal/domain"
)

// Missing-month penalty: 1000 bp per empty interior month, capped at 5000.
const (
	missingMonthPenaltyPerMonthBP int64 = 1000
	missingMonthPenaltyCapBP      int64 = 5000

	// Reconciliation requires the transaction range to cover at least 60%
	// of the accrual period.
	minOverlapBP int64 = 6000
)

// Result holds all computed metrics for one run.
type Result struct {
	NonTransferAbsTotalCents   int64
	ClassifiedAbsTotalCents    int64
	BankOperationalInflowCents int64

	CoverageBP            int64
	MissingMonthCount     int64
	MissingMonthPenaltyBP int64

	ReconciliationStatus domain.ReconciliationStatus
	ReconciliationBP     *int64 // nil unless status is OK

	BaseConfidenceBP  int64
	BaseAfterMonthsBP int64
}

// Compute derives metrics from classified transactions. roles must contain
// an entry for every transaction (RoleTransfer marks transfers). A zero
// non-transfer volume is not an error: it yields the degenerate result
// (coverage 0, reconciliation NOT_RUN) rather than dividing.
func Compute(txs []*domain.RawTransaction, roles map[string]domain.Role, accrual domain.AccrualReference) *Result {
	var nonTransferAbs, classifiedAbs, operationalInflow int64
	for _, tx := range txs {
		role := roles[tx.TxnID]
		if role == domain.RoleTransfer {
			continue
		}
		nonTransferAbs += tx.AbsAmountCents()
		if role != domain.RoleOther {
			classifiedAbs += tx.AbsAmountCents()
		}
		if tx.SignedAmountCents > 0 && role == domain.RoleRevenueOperational {
			operationalInflow += tx.SignedAmountCents
		}
	}

	if nonTransferAbs == 0 {
		return &Result{ReconciliationStatus: domain.ReconciliationNotRun}
	}

	coverageBP := classifiedAbs * 10000 / nonTransferAbs

	missingCount := missingMonths(txs)
	missingPenaltyBP := missingCount * missingMonthPenaltyPerMonthBP
	if missingPenaltyBP > missingMonthPenaltyCapBP {
		missingPenaltyBP = missingMonthPenaltyCapBP
	}

	status, reconBP := reconcile(txs, accrual, operationalInflow)

	baseConfidence := coverageBP
	if status == domain.ReconciliationOK && reconBP != nil && *reconBP < coverageBP {
		baseConfidence = *reconBP
	}
	baseAfterMonths := baseConfidence - missingPenaltyBP
	if baseAfterMonths < 0 {
		baseAfterMonths = 0
	}

	return &Result{
		NonTransferAbsTotalCents:   nonTransferAbs,
		ClassifiedAbsTotalCents:    classifiedAbs,
		BankOperationalInflowCents: operationalInflow,
		CoverageBP:                 coverageBP,
		MissingMonthCount:          missingCount,
		MissingMonthPenaltyBP:      missingPenaltyBP,
		ReconciliationStatus:       status,
		ReconciliationBP:           reconBP,
		BaseConfidenceBP:           baseConfidence,
		BaseAfterMonthsBP:          baseAfterMonths,
	}
}

// missingMonths counts full calendar months strictly inside the observed
// date range that contain zero transactions. Partial leading and trailing
// months are never counted.
func missingMonths(txs []*domain.RawTransaction) int64 {
	type month struct{ year, mon int }
	seen := make(map[month]bool, len(txs))
	var first, last time.Time
	valid := false
	for _, tx := range txs {
		d, err := domain.ParseDay(tx.TxnDate)
		if err != nil {
			continue
		}
		seen[month{d.Year(), int(d.Month())}] = true
		if !valid || d.Before(first) {
			first = d
		}
		if !valid || d.After(last) {
			last = d
		}
		valid = true
	}
	if !valid {
		return 0
	}

	var count int64
	cur := time.Date(first.Year(), first.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	end := time.Date(last.Year(), last.Month(), 1, 0, 0, 0, 0, time.UTC)
	for cur.Before(end) {
		if !seen[month{cur.Year(), int(cur.Month())}] {
			count++
		}
		cur = cur.AddDate(0, 1, 0)
	}
	return count
}

// reconcile cross-checks operational inflow against the accrual figure.
// Statuses: NOT_RUN when the accrual figure is absent or inflow is not
// positive, FAILED_OVERLAP when the ranges overlap below the threshold,
// OK otherwise.
func reconcile(txs []*domain.RawTransaction, accrual domain.AccrualReference, operationalInflow int64) (domain.ReconciliationStatus, *int64) {
	if !accrual.Present() {
		return domain.ReconciliationNotRun, nil
	}

	activeStart, activeEnd, ok := activePeriod(txs)
	if !ok {
		return domain.ReconciliationNotRun, nil
	}

	accrStart, err1 := domain.ParseDay(accrual.PeriodStart)
	accrEnd, err2 := domain.ParseDay(accrual.PeriodEnd)
	if err1 != nil || err2 != nil {
		return domain.ReconciliationNotRun, nil
	}

	accrualDays := int64(accrEnd.Sub(accrStart).Hours()/24) + 1
	if accrualDays <= 0 {
		return domain.ReconciliationFailedOverlap, nil
	}

	overlapStart := activeStart
	if accrStart.After(overlapStart) {
		overlapStart = accrStart
	}
	overlapEnd := activeEnd
	if accrEnd.Before(overlapEnd) {
		overlapEnd = accrEnd
	}
	overlapDays := int64(overlapEnd.Sub(overlapStart).Hours()/24) + 1
	if overlapDays < 0 {
		overlapDays = 0
	}

	if overlapDays*10000/accrualDays < minOverlapBP {
		return domain.ReconciliationFailedOverlap, nil
	}

	if operationalInflow <= 0 {
		return domain.ReconciliationNotRun, nil
	}

	diff := accrual.RevenueCents - operationalInflow
	if diff < 0 {
		diff = -diff
	}
	bp := 10000 - diff*10000/accrual.RevenueCents
	if bp < 0 {
		bp = 0
	}
	return domain.ReconciliationOK, &bp
}

// activePeriod returns the min and max transaction dates.
func activePeriod(txs []*domain.RawTransaction) (time.Time, time.Time, bool) {
	var start, end time.Time
	found := false
	for _, tx := range txs {
		d, err := domain.ParseDay(tx.TxnDate)
		if err != nil {
			continue
		}
		if !found || d.Before(start) {
			start = d
		}
		if !found || d.After(end) {
			end = d
		}
		found = true
	}
	return start, end, found
}
