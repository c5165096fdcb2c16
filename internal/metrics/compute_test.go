package metrics

import (
	"testing"

	"deal-parity/internal/domain"
)

func mtx(id, date string, amount int64) *domain.RawTransaction {
	return &domain.RawTransaction{
		TxnID:             id,
		DealID:            "deal-1",
		TxnDate:           date,
		AccountID:         "acct-a",
		SignedAmountCents: amount,
	}
}

func rolesFor(txs []*domain.RawTransaction, role domain.Role) map[string]domain.Role {
	roles := make(map[string]domain.Role, len(txs))
	for _, tx := range txs {
		roles[tx.TxnID] = role
	}
	return roles
}

func TestCompute_EmptySet(t *testing.T) {
	res := Compute(nil, nil, domain.AccrualReference{})

	if res.CoverageBP != 0 {
		t.Errorf("coverage = %d, want 0", res.CoverageBP)
	}
	if res.ReconciliationStatus != domain.ReconciliationNotRun {
		t.Errorf("status = %s, want NOT_RUN", res.ReconciliationStatus)
	}
	if res.BaseAfterMonthsBP != 0 {
		t.Errorf("base after months = %d, want 0", res.BaseAfterMonthsBP)
	}
}

func TestCompute_AllTransfers(t *testing.T) {
	txs := []*domain.RawTransaction{
		mtx("t1", "2024-03-01", -50000),
		mtx("t2", "2024-03-02", 50000),
	}
	res := Compute(txs, rolesFor(txs, domain.RoleTransfer), domain.AccrualReference{})

	if res.NonTransferAbsTotalCents != 0 || res.CoverageBP != 0 {
		t.Errorf("all-transfer set should yield zero volume and coverage, got %d/%d",
			res.NonTransferAbsTotalCents, res.CoverageBP)
	}
	if res.ReconciliationStatus != domain.ReconciliationNotRun {
		t.Errorf("status = %s, want NOT_RUN", res.ReconciliationStatus)
	}
}

func TestCompute_FullCoverage(t *testing.T) {
	txs := []*domain.RawTransaction{
		mtx("t1", "2024-03-01", 100000),
		mtx("t2", "2024-03-10", -40000),
	}
	roles := map[string]domain.Role{
		"t1": domain.RoleRevenueOperational,
		"t2": domain.RoleSupplier,
	}
	res := Compute(txs, roles, domain.AccrualReference{})

	if res.CoverageBP != 10000 {
		t.Errorf("coverage = %d, want 10000", res.CoverageBP)
	}
	if res.NonTransferAbsTotalCents != 140000 {
		t.Errorf("non-transfer total = %d, want 140000", res.NonTransferAbsTotalCents)
	}
	if res.BankOperationalInflowCents != 100000 {
		t.Errorf("operational inflow = %d, want 100000", res.BankOperationalInflowCents)
	}
}

func TestCompute_PartialCoverage(t *testing.T) {
	txs := []*domain.RawTransaction{
		mtx("t1", "2024-03-01", 75000),
		mtx("t2", "2024-03-02", 25000),
	}
	roles := map[string]domain.Role{
		"t1": domain.RoleRevenueOperational,
		"t2": domain.RoleOther,
	}
	res := Compute(txs, roles, domain.AccrualReference{})

	if res.CoverageBP != 7500 {
		t.Errorf("coverage = %d, want 7500", res.CoverageBP)
	}
}

func TestMissingMonths(t *testing.T) {
	tests := []struct {
		name  string
		dates []string
		want  int64
	}{
		{"single month", []string{"2024-03-05", "2024-03-20"}, 0},
		{"adjacent months", []string{"2024-03-05", "2024-04-02"}, 0},
		{"one empty interior month", []string{"2024-03-05", "2024-05-02"}, 1},
		{"interior month with activity not missing", []string{"2024-03-05", "2024-04-10", "2024-05-02"}, 0},
		{"two gaps", []string{"2024-01-15", "2024-03-10", "2024-05-20"}, 2},
		{"partial edges never counted", []string{"2024-03-31", "2024-04-01"}, 0},
		{"year boundary", []string{"2023-11-20", "2024-02-10"}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var txs []*domain.RawTransaction
			for i, d := range tt.dates {
				txs = append(txs, mtx(string(rune('a'+i)), d, 1000))
			}
			if got := missingMonths(txs); got != tt.want {
				t.Errorf("missingMonths(%v) = %d, want %d", tt.dates, got, tt.want)
			}
		})
	}
}

func TestCompute_MissingMonthPenaltyCap(t *testing.T) {
	// Transactions in Jan 2023 and Jan 2024: 11 empty interior months,
	// penalty capped at 5000.
	txs := []*domain.RawTransaction{
		mtx("t1", "2023-01-15", 10000),
		mtx("t2", "2024-01-15", 10000),
	}
	res := Compute(txs, rolesFor(txs, domain.RoleRevenueOperational), domain.AccrualReference{})

	if res.MissingMonthCount != 11 {
		t.Errorf("missing month count = %d, want 11", res.MissingMonthCount)
	}
	if res.MissingMonthPenaltyBP != 5000 {
		t.Errorf("penalty = %d, want capped 5000", res.MissingMonthPenaltyBP)
	}
	if res.BaseAfterMonthsBP != 5000 {
		t.Errorf("base after months = %d, want 5000", res.BaseAfterMonthsBP)
	}
}

func TestReconciliation_OK(t *testing.T) {
	txs := []*domain.RawTransaction{
		mtx("t1", "2024-01-01", 90000),
		mtx("t2", "2024-03-31", 10000),
	}
	accrual := domain.AccrualReference{
		RevenueCents: 100000,
		PeriodStart:  "2024-01-01",
		PeriodEnd:    "2024-03-31",
	}
	res := Compute(txs, rolesFor(txs, domain.RoleRevenueOperational), accrual)

	if res.ReconciliationStatus != domain.ReconciliationOK {
		t.Fatalf("status = %s, want OK", res.ReconciliationStatus)
	}
	if res.ReconciliationBP == nil || *res.ReconciliationBP != 10000 {
		t.Errorf("reconciliation bp = %v, want 10000", res.ReconciliationBP)
	}
}

func TestReconciliation_Deviation(t *testing.T) {
	// Inflow 80k vs accrual 100k: |diff| 20k -> 10000 - 2000 = 8000 bp,
	// and base confidence takes the weaker signal.
	txs := []*domain.RawTransaction{
		mtx("t1", "2024-01-01", 40000),
		mtx("t2", "2024-03-31", 40000),
	}
	accrual := domain.AccrualReference{
		RevenueCents: 100000,
		PeriodStart:  "2024-01-01",
		PeriodEnd:    "2024-03-31",
	}
	res := Compute(txs, rolesFor(txs, domain.RoleRevenueOperational), accrual)

	if res.ReconciliationStatus != domain.ReconciliationOK {
		t.Fatalf("status = %s, want OK", res.ReconciliationStatus)
	}
	if res.ReconciliationBP == nil || *res.ReconciliationBP != 8000 {
		t.Fatalf("reconciliation bp = %v, want 8000", res.ReconciliationBP)
	}
	if res.BaseConfidenceBP != 8000 {
		t.Errorf("base confidence = %d, want min(coverage, recon) = 8000", res.BaseConfidenceBP)
	}
}

func TestReconciliation_FailedOverlap(t *testing.T) {
	// Transactions cover ~1 month of a 12-month accrual period: under 60%.
	txs := []*domain.RawTransaction{
		mtx("t1", "2024-01-01", 40000),
		mtx("t2", "2024-01-31", 40000),
	}
	accrual := domain.AccrualReference{
		RevenueCents: 100000,
		PeriodStart:  "2024-01-01",
		PeriodEnd:    "2024-12-31",
	}
	res := Compute(txs, rolesFor(txs, domain.RoleRevenueOperational), accrual)

	if res.ReconciliationStatus != domain.ReconciliationFailedOverlap {
		t.Fatalf("status = %s, want FAILED_OVERLAP", res.ReconciliationStatus)
	}
	if res.ReconciliationBP != nil {
		t.Error("no reconciliation percentage on overlap failure")
	}
	if res.BaseConfidenceBP != res.CoverageBP {
		t.Error("base confidence should fall back to coverage")
	}
}

func TestReconciliation_AbsentAccrual(t *testing.T) {
	txs := []*domain.RawTransaction{mtx("t1", "2024-01-01", 40000)}
	res := Compute(txs, rolesFor(txs, domain.RoleRevenueOperational), domain.AccrualReference{})

	if res.ReconciliationStatus != domain.ReconciliationNotRun {
		t.Errorf("status = %s, want NOT_RUN", res.ReconciliationStatus)
	}
}

func TestReconciliation_NoOperationalInflow(t *testing.T) {
	// Outflows only: reconciliation cannot run even with full overlap.
	txs := []*domain.RawTransaction{
		mtx("t1", "2024-01-01", -40000),
		mtx("t2", "2024-03-31", -40000),
	}
	accrual := domain.AccrualReference{
		RevenueCents: 100000,
		PeriodStart:  "2024-01-01",
		PeriodEnd:    "2024-03-31",
	}
	res := Compute(txs, rolesFor(txs, domain.RoleSupplier), accrual)

	if res.ReconciliationStatus != domain.ReconciliationNotRun {
		t.Errorf("status = %s, want NOT_RUN", res.ReconciliationStatus)
	}
}
