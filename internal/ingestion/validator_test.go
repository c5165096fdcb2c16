package ingestion

import (
	"errors"
	"testing"

	"deal-parity/internal/domain"
)

func eurDeal() *domain.Deal {
	return &domain.Deal{ID: "deal-1", Currency: "EUR", CreatedAt: 1700000000000}
}

func TestValidateRows_Valid(t *testing.T) {
	rows := []Row{
		{Date: "2024-01-15", Amount: "1250.50", AccountID: "acc-1", Descriptor: "  Client   Payment  "},
		{Date: "15/02/2024", Amount: "-80", AccountID: "acc-1", Descriptor: "Salary"},
	}

	txs, err := ValidateRows(eurDeal(), "doc-1", rows, 1700000000000)
	if err != nil {
		t.Fatalf("ValidateRows failed: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(txs))
	}

	if txs[0].SignedAmountCents != 125050 {
		t.Errorf("SignedAmountCents = %d, want 125050", txs[0].SignedAmountCents)
	}
	if txs[0].NormalizedDescriptor != "client payment" {
		t.Errorf("NormalizedDescriptor = %q, want %q", txs[0].NormalizedDescriptor, "client payment")
	}
	if txs[0].TxnID == "" || txs[0].RowID == "" {
		t.Error("both identifiers must be assigned")
	}

	// Slash date normalized to canonical form.
	if txs[1].TxnDate != "2024-02-15" {
		t.Errorf("TxnDate = %s, want 2024-02-15", txs[1].TxnDate)
	}
	if txs[1].SignedAmountCents != -8000 {
		t.Errorf("SignedAmountCents = %d, want -8000", txs[1].SignedAmountCents)
	}
}

func TestValidateRows_HalfEvenRounding(t *testing.T) {
	tests := []struct {
		amount string
		cents  int64
	}{
		{"10.005", 1000}, // ties to even
		{"10.015", 1002},
		{"10.025", 1002},
		{"-10.005", -1000},
		{"0.004", 0}, // rounds to zero and is then rejected
	}

	for _, tt := range tests {
		cents, err := parseAmountCents(tt.amount)
		if err != nil {
			t.Fatalf("parseAmountCents(%s) failed: %v", tt.amount, err)
		}
		if cents != tt.cents {
			t.Errorf("parseAmountCents(%s) = %d, want %d", tt.amount, cents, tt.cents)
		}
	}
}

func TestValidateRows_RejectsZeroAmount(t *testing.T) {
	rows := []Row{{Date: "2024-01-15", Amount: "0.00", AccountID: "acc-1", Descriptor: "noop"}}

	_, err := ValidateRows(eurDeal(), "doc-1", rows, 0)
	var schemaErr *InvalidSchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected InvalidSchemaError, got %v", err)
	}
	if schemaErr.Field != "amount" {
		t.Errorf("Field = %s, want amount", schemaErr.Field)
	}
}

func TestValidateRows_RejectsTwoDigitYear(t *testing.T) {
	for _, date := range []string{"15/01/24", "24-01-15", "01/15/99"} {
		rows := []Row{{Date: date, Amount: "10", AccountID: "acc-1", Descriptor: "x"}}
		_, err := ValidateRows(eurDeal(), "doc-1", rows, 0)
		var schemaErr *InvalidSchemaError
		if !errors.As(err, &schemaErr) {
			t.Errorf("date %q: expected InvalidSchemaError, got %v", date, err)
			continue
		}
		if schemaErr.Field != "date" {
			t.Errorf("date %q: Field = %s, want date", date, schemaErr.Field)
		}
	}
}

func TestValidateRows_CurrencyMismatch(t *testing.T) {
	rows := []Row{{Date: "2024-01-15", Amount: "10", AccountID: "acc-1", Descriptor: "Wire USD settlement"}}

	_, err := ValidateRows(eurDeal(), "doc-1", rows, 0)
	var mismatch *CurrencyMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected CurrencyMismatchError, got %v", err)
	}
	if mismatch.Token != "USD" {
		t.Errorf("Token = %s, want USD", mismatch.Token)
	}
}

func TestValidateRows_CurrencyTokenHeuristics(t *testing.T) {
	// The deal's own currency and non-currency acronyms must pass.
	rows := []Row{
		{Date: "2024-01-15", Amount: "10", AccountID: "acc-1", Descriptor: "EUR invoice settled"},
		{Date: "2024-01-16", Amount: "-20", AccountID: "acc-1", Descriptor: "KRA VAT remittance"},
		{Date: "2024-01-17", Amount: "30", AccountID: "acc-1", Descriptor: "POS batch"},
	}

	txs, err := ValidateRows(eurDeal(), "doc-1", rows, 0)
	if err != nil {
		t.Fatalf("ValidateRows failed: %v", err)
	}
	if len(txs) != 3 {
		t.Errorf("expected 3 rows, got %d", len(txs))
	}
}

func TestValidateRows_AtomicRejection(t *testing.T) {
	// A bad row anywhere rejects everything.
	rows := []Row{
		{Date: "2024-01-15", Amount: "10", AccountID: "acc-1", Descriptor: "fine"},
		{Date: "2024-01-16", Amount: "not-a-number", AccountID: "acc-1", Descriptor: "broken"},
	}

	txs, err := ValidateRows(eurDeal(), "doc-1", rows, 0)
	if err == nil {
		t.Fatal("expected error")
	}
	if txs != nil {
		t.Error("no rows may be returned on rejection")
	}

	var schemaErr *InvalidSchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected InvalidSchemaError, got %v", err)
	}
	if schemaErr.Row != 1 {
		t.Errorf("Row = %d, want 1", schemaErr.Row)
	}
}

func TestValidateRows_DeterministicTxnID(t *testing.T) {
	row := Row{Date: "2024-01-15", Amount: "10", AccountID: "acc-1", Descriptor: "Client Payment"}

	a, err := ValidateRows(eurDeal(), "doc-1", []Row{row}, 1000)
	if err != nil {
		t.Fatalf("ValidateRows failed: %v", err)
	}
	b, err := ValidateRows(eurDeal(), "doc-1", []Row{row}, 2000)
	if err != nil {
		t.Fatalf("ValidateRows failed: %v", err)
	}

	if a[0].TxnID != b[0].TxnID {
		t.Error("txn_id must be content-derived, independent of ingestion time")
	}
	if a[0].RowID == b[0].RowID {
		t.Error("row UUIDs must be unique per ingestion")
	}
}
