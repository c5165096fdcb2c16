package transfer

import (
	"testing"

	"deal-parity/internal/domain"
)

func tx(id, date, account string, amount int64) *domain.RawTransaction {
	return &domain.RawTransaction{
		TxnID:             id,
		DealID:            "deal-1",
		TxnDate:           date,
		AccountID:         account,
		SignedAmountCents: amount,
	}
}

func TestMatchTransfers_SimplePair(t *testing.T) {
	txs := []*domain.RawTransaction{
		tx("out-1", "2024-03-01", "acct-a", -50000),
		tx("in-1", "2024-03-02", "acct-b", 50000),
	}

	res := MatchTransfers(txs)

	if len(res.Links) != 1 {
		t.Fatalf("expected 1 link, got %d", len(res.Links))
	}
	link := res.Links[0]
	if link.TxnOutID != "out-1" || link.TxnInID != "in-1" {
		t.Errorf("unexpected pairing: out=%s in=%s", link.TxnOutID, link.TxnInID)
	}
	if link.AbsAmountCents != 50000 {
		t.Errorf("abs amount = %d, want 50000", link.AbsAmountCents)
	}
	if link.MatchRuleVersion != domain.MatchRuleVersion {
		t.Errorf("match rule version = %s", link.MatchRuleVersion)
	}
	if !res.TransferTxnIDs["out-1"] || !res.TransferTxnIDs["in-1"] {
		t.Error("both sides should be marked as transfers")
	}
}

func TestMatchTransfers_ConditionViolations(t *testing.T) {
	tests := []struct {
		name string
		txs  []*domain.RawTransaction
	}{
		{
			name: "different absolute amounts",
			txs: []*domain.RawTransaction{
				tx("out-1", "2024-03-01", "acct-a", -50000),
				tx("in-1", "2024-03-02", "acct-b", 50001),
			},
		},
		{
			name: "same sign",
			txs: []*domain.RawTransaction{
				tx("in-1", "2024-03-01", "acct-a", 50000),
				tx("in-2", "2024-03-02", "acct-b", 50000),
			},
		},
		{
			name: "date gap over 2 days",
			txs: []*domain.RawTransaction{
				tx("out-1", "2024-03-01", "acct-a", -50000),
				tx("in-1", "2024-03-04", "acct-b", 50000),
			},
		},
		{
			name: "same account",
			txs: []*domain.RawTransaction{
				tx("out-1", "2024-03-01", "acct-a", -50000),
				tx("in-1", "2024-03-02", "acct-a", 50000),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := MatchTransfers(tt.txs)
			if len(res.Links) != 0 {
				t.Errorf("expected no links, got %d", len(res.Links))
			}
			if len(res.TransferTxnIDs) != 0 {
				t.Errorf("expected no transfer marks, got %d", len(res.TransferTxnIDs))
			}
		})
	}
}

func TestMatchTransfers_DateGapBoundary(t *testing.T) {
	// Exactly 2 days apart still matches.
	txs := []*domain.RawTransaction{
		tx("out-1", "2024-03-01", "acct-a", -50000),
		tx("in-1", "2024-03-03", "acct-b", 50000),
	}
	res := MatchTransfers(txs)
	if len(res.Links) != 1 {
		t.Fatalf("2-day gap should match, got %d links", len(res.Links))
	}
}

func TestMatchTransfers_AmbiguityProducesNoLinks(t *testing.T) {
	// Two outflows both qualify for the single inflow: no link for anyone.
	txs := []*domain.RawTransaction{
		tx("out-1", "2024-03-01", "acct-a", -50000),
		tx("out-2", "2024-03-02", "acct-c", -50000),
		tx("in-1", "2024-03-02", "acct-b", 50000),
	}

	res := MatchTransfers(txs)
	if len(res.Links) != 0 {
		t.Fatalf("ambiguous case must produce zero links, got %d", len(res.Links))
	}
}

func TestMatchTransfers_TwoDisjointPairs(t *testing.T) {
	// Same amount, but account exclusion leaves each side exactly one
	// candidate: both pairs link.
	txs := []*domain.RawTransaction{
		tx("out-1", "2024-03-01", "acct-a", -50000),
		tx("out-2", "2024-03-01", "acct-c", -50000),
		tx("in-1", "2024-03-02", "acct-c", 50000),
		tx("in-2", "2024-03-02", "acct-a", 50000),
	}

	res := MatchTransfers(txs)
	if len(res.Links) != 2 {
		t.Fatalf("expected 2 links, got %d", len(res.Links))
	}
}

func TestMatchTransfers_OrderIndependent(t *testing.T) {
	a := []*domain.RawTransaction{
		tx("out-1", "2024-03-01", "acct-a", -50000),
		tx("in-1", "2024-03-02", "acct-b", 50000),
		tx("other", "2024-03-05", "acct-a", 12300),
	}
	b := []*domain.RawTransaction{a[2], a[1], a[0]}

	resA := MatchTransfers(a)
	resB := MatchTransfers(b)

	if len(resA.Links) != 1 || len(resB.Links) != 1 {
		t.Fatalf("links: %d vs %d, want 1 each", len(resA.Links), len(resB.Links))
	}
	if resA.Links[0].TxnOutID != resB.Links[0].TxnOutID || resA.Links[0].TxnInID != resB.Links[0].TxnInID {
		t.Error("pairing should not depend on input order")
	}
}

func TestMatchTransfers_Empty(t *testing.T) {
	res := MatchTransfers(nil)
	if len(res.Links) != 0 || len(res.TransferTxnIDs) != 0 {
		t.Error("empty input should produce empty result")
	}
}
