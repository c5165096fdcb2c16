package canonical

import (
	"strings"
	"testing"

	"deal-parity/internal/domain"
)

func sampleState(t *testing.T, conf ConfidencePayload) *FinancialState {
	t.Helper()

	txs := []*domain.RawTransaction{
		{TxnID: "t2", TxnDate: "2024-03-02", AccountID: "acct-a", SignedAmountCents: -40000, NormalizedDescriptor: "acme supplies"},
		{TxnID: "t1", TxnDate: "2024-03-01", AccountID: "acct-a", SignedAmountCents: 100000, NormalizedDescriptor: "pos sale"},
	}
	entities := []*domain.Entity{
		{EntityID: "e1", DealID: "deal-1", NormalizedName: "pos sale", DisplayName: "POS Sale"},
		{EntityID: "e2", DealID: "deal-1", NormalizedName: "acme supplies", DisplayName: "ACME Supplies"},
	}
	records := []*domain.TxnEntityRecord{
		{TxnID: "t1", EntityID: "e1", Role: domain.RoleRevenueOperational, RoleVersion: domain.RoleRulesVersion},
		{TxnID: "t2", EntityID: "e2", Role: domain.RoleSupplier, RoleVersion: domain.RoleRulesVersion},
	}
	metrics := MetricsPayload{
		CoverageBP:           10000,
		ReconciliationStatus: domain.ReconciliationNotRun.String(),
	}

	fs, err := BuildFinancialState("deal-1", "USD", txs, nil, entities, records, metrics, conf)
	if err != nil {
		t.Fatalf("BuildFinancialState: %v", err)
	}
	return fs
}

func TestBuildFinancialState_SortsCollections(t *testing.T) {
	fs := sampleState(t, ConfidencePayload{FinalConfidenceBP: 10000, Tier: "Medium", TierCapped: true})

	if fs.Transactions[0].TxnID != "t1" || fs.Transactions[1].TxnID != "t2" {
		t.Error("transactions should be sorted by composite key")
	}
	if fs.Entities[0].EntityID != "e1" {
		t.Error("entities should be sorted by entity id")
	}
	if fs.RawTransactionHash == "" {
		t.Error("raw transaction hash should be set")
	}
}

func TestHash_Deterministic(t *testing.T) {
	conf := ConfidencePayload{FinalConfidenceBP: 10000, Tier: "Medium", TierCapped: true}
	a := sampleState(t, conf)
	b := sampleState(t, conf)

	ha, err := Hash(a)
	if err != nil {
		t.Fatal(err)
	}
	hb, err := Hash(b)
	if err != nil {
		t.Fatal(err)
	}
	if ha != hb {
		t.Errorf("identical states must hash identically: %s vs %s", ha, hb)
	}
}

func TestHash_SensitiveToContent(t *testing.T) {
	a := sampleState(t, ConfidencePayload{FinalConfidenceBP: 10000, Tier: "Medium"})
	b := sampleState(t, ConfidencePayload{FinalConfidenceBP: 9999, Tier: "Medium"})

	ha, _ := Hash(a)
	hb, _ := Hash(b)
	if ha == hb {
		t.Error("different confidence must change the financial-state hash")
	}
}

func TestSnapshotPayload_ApplyRevertRestoresFinancialHash(t *testing.T) {
	conf := ConfidencePayload{FinalConfidenceBP: 10000, Tier: "Medium", TierCapped: true}

	// No overrides ever.
	fs1 := sampleState(t, conf)
	clean, err := BuildSnapshotPayload(fs1, nil)
	if err != nil {
		t.Fatal(err)
	}

	// Apply then revert: identical economic outcome, different history.
	fs2 := sampleState(t, conf)
	history := []*domain.Override{
		{EntityID: "e2", Field: "role", OldRole: domain.RoleSupplier, NewRole: domain.RoleRevenueOperational, WeightBP: domain.OverrideWeightMajorBP, CreatedAt: 100, Seq: 1},
		{EntityID: "e2", Field: "role", OldRole: domain.RoleRevenueOperational, NewRole: domain.RoleSupplier, WeightBP: domain.OverrideWeightRevertBP, CreatedAt: 200, Seq: 2},
	}
	reverted, err := BuildSnapshotPayload(fs2, history)
	if err != nil {
		t.Fatal(err)
	}

	if clean.FinancialStateHash != reverted.FinancialStateHash {
		t.Error("apply-then-revert must restore the financial-state hash exactly")
	}

	_, cleanProv, err := Canonicalize(clean)
	if err != nil {
		t.Fatal(err)
	}
	_, revertedProv, err := Canonicalize(reverted)
	if err != nil {
		t.Fatal(err)
	}
	if cleanProv == revertedProv {
		t.Error("override history must keep the provenance hash distinguishable")
	}
}

func TestCanonicalize_StableEncoding(t *testing.T) {
	fs := sampleState(t, ConfidencePayload{FinalConfidenceBP: 10000, Tier: "Medium", TierCapped: true})
	payload, err := BuildSnapshotPayload(fs, nil)
	if err != nil {
		t.Fatal(err)
	}

	json1, hash1, err := Canonicalize(payload)
	if err != nil {
		t.Fatal(err)
	}
	json2, hash2, err := Canonicalize(payload)
	if err != nil {
		t.Fatal(err)
	}

	if json1 != json2 || hash1 != hash2 {
		t.Error("canonicalization must be byte-for-byte stable")
	}
	if !strings.Contains(json1, `"schema_version"`) || !strings.Contains(json1, `"overrides_applied"`) {
		t.Error("canonical JSON missing expected keys")
	}
	// Integer-only number formatting: no floats may appear.
	if strings.Contains(json1, "e+") || strings.Contains(json1, ".5") {
		t.Error("canonical JSON must contain integers only")
	}
}

func TestRecomputeFinancialStateHash_RoundTrip(t *testing.T) {
	fs := sampleState(t, ConfidencePayload{FinalConfidenceBP: 10000, Tier: "Medium", TierCapped: true})
	payload, err := BuildSnapshotPayload(fs, []*domain.Override{
		{EntityID: "e1", Field: "role", NewRole: domain.RolePayroll, WeightBP: domain.OverrideWeightMinorBP, CreatedAt: 100, Seq: 1},
	})
	if err != nil {
		t.Fatal(err)
	}

	canonicalJSON, provHash, err := Canonicalize(payload)
	if err != nil {
		t.Fatal(err)
	}

	recomputed, err := RecomputeFinancialStateHash(canonicalJSON)
	if err != nil {
		t.Fatal(err)
	}
	if recomputed != payload.FinancialStateHash {
		t.Errorf("recomputed financial-state hash %s != stored %s", recomputed, payload.FinancialStateHash)
	}

	if RecomputeProvenanceHash(canonicalJSON) != provHash {
		t.Error("recomputed provenance hash should match")
	}
}

func TestRecomputeFinancialStateHash_BadPayload(t *testing.T) {
	if _, err := RecomputeFinancialStateHash("{not json"); err == nil {
		t.Error("expected error for malformed canonical payload")
	}
}
