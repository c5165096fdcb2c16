package confidence

import (
	"testing"

	"deal-parity/internal/domain"
)

func ov(entityID string, weightBP int64, createdAt int64, seq int64) *domain.Override {
	return &domain.Override{
		ID:        entityID + "-ov",
		DealID:    "deal-1",
		EntityID:  entityID,
		Field:     "role",
		NewRole:   domain.RoleSupplier,
		WeightBP:  weightBP,
		CreatedAt: createdAt,
		Seq:       seq,
	}
}

func TestOverridePenaltyBP(t *testing.T) {
	values := map[string]int64{"e1": 40000, "e2": 10000}
	total := int64(100000)

	tests := []struct {
		name      string
		overrides []*domain.Override
		want      int64
	}{
		{"no overrides", nil, 0},
		{
			"major on 40% entity",
			[]*domain.Override{ov("e1", domain.OverrideWeightMajorBP, 100, 1)},
			4000,
		},
		{
			"minor on 40% entity",
			[]*domain.Override{ov("e1", domain.OverrideWeightMinorBP, 100, 1)},
			2000,
		},
		{
			"two entities accumulate",
			[]*domain.Override{
				ov("e1", domain.OverrideWeightMajorBP, 100, 1),
				ov("e2", domain.OverrideWeightMajorBP, 101, 2),
			},
			5000,
		},
		{
			"revert neutralizes exactly",
			[]*domain.Override{
				ov("e1", domain.OverrideWeightMajorBP, 100, 1),
				ov("e1", domain.OverrideWeightRevertBP, 200, 2),
			},
			0,
		},
		{
			"latest wins by created_at",
			[]*domain.Override{
				ov("e1", domain.OverrideWeightRevertBP, 300, 1),
				ov("e1", domain.OverrideWeightMajorBP, 100, 2),
			},
			0,
		},
		{
			"created_at tie broken by insertion order",
			[]*domain.Override{
				ov("e1", domain.OverrideWeightMajorBP, 100, 1),
				ov("e1", domain.OverrideWeightRevertBP, 100, 2),
			},
			0,
		},
		{
			"unknown entity contributes nothing",
			[]*domain.Override{ov("ghost", domain.OverrideWeightMajorBP, 100, 1)},
			0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OverridePenaltyBP(tt.overrides, values, total)
			if got != tt.want {
				t.Errorf("penalty = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestOverridePenaltyBP_Cap(t *testing.T) {
	// One entity carries the entire volume with a major override: raw
	// impact would be 10000; the cap holds it at 7000.
	values := map[string]int64{"e1": 100000}
	overrides := []*domain.Override{ov("e1", domain.OverrideWeightMajorBP, 100, 1)}

	got := OverridePenaltyBP(overrides, values, 100000)
	if got != OverridePenaltyCapBP {
		t.Errorf("penalty = %d, want cap %d", got, OverridePenaltyCapBP)
	}
}

func TestOverridePenaltyBP_ZeroTotal(t *testing.T) {
	overrides := []*domain.Override{ov("e1", domain.OverrideWeightMajorBP, 100, 1)}
	if got := OverridePenaltyBP(overrides, map[string]int64{"e1": 100}, 0); got != 0 {
		t.Errorf("penalty with zero volume = %d, want 0", got)
	}
}

func TestComputeTier(t *testing.T) {
	tests := []struct {
		name       string
		confidence int64
		status     domain.ReconciliationStatus
		wantTier   domain.Tier
		wantCapped bool
	}{
		{"low", 6999, domain.ReconciliationOK, domain.TierLow, false},
		{"medium lower bound", 7000, domain.ReconciliationOK, domain.TierMedium, false},
		{"medium upper bound", 8499, domain.ReconciliationOK, domain.TierMedium, false},
		{"high with reconciliation", 8500, domain.ReconciliationOK, domain.TierHigh, false},
		{"high capped without reconciliation", 8500, domain.ReconciliationNotRun, domain.TierMedium, true},
		{"high capped on failed overlap", 10000, domain.ReconciliationFailedOverlap, domain.TierMedium, true},
		{"medium never capped", 8000, domain.ReconciliationNotRun, domain.TierMedium, false},
		{"zero", 0, domain.ReconciliationNotRun, domain.TierLow, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tier, capped := ComputeTier(tt.confidence, tt.status)
			if tier != tt.wantTier || capped != tt.wantCapped {
				t.Errorf("ComputeTier(%d, %s) = (%s, %v), want (%s, %v)",
					tt.confidence, tt.status, tier, capped, tt.wantTier, tt.wantCapped)
			}
		})
	}
}

func TestFinalize_FloorsAtZero(t *testing.T) {
	res := Finalize(3000, 7000, domain.ReconciliationNotRun)
	if res.FinalConfidenceBP != 0 {
		t.Errorf("final = %d, want 0", res.FinalConfidenceBP)
	}
	if res.Tier != domain.TierLow {
		t.Errorf("tier = %s, want Low", res.Tier)
	}
}

func TestDeriveOverrideWeightBP(t *testing.T) {
	tests := []struct {
		old, new domain.Role
		want     int64
	}{
		{domain.RoleRevenueOperational, domain.RoleRevenueOperational, domain.OverrideWeightRevertBP},
		{domain.RoleRevenueOperational, domain.RoleSupplier, domain.OverrideWeightMajorBP},
		{domain.RoleSupplier, domain.RoleRevenueNonOperational, domain.OverrideWeightMajorBP},
		{domain.RoleRevenueOperational, domain.RoleRevenueNonOperational, domain.OverrideWeightMinorBP},
		{domain.RoleSupplier, domain.RolePayroll, domain.OverrideWeightMinorBP},
	}

	for _, tt := range tests {
		if got := domain.DeriveOverrideWeightBP(tt.old, tt.new); got != tt.want {
			t.Errorf("DeriveOverrideWeightBP(%s, %s) = %d, want %d", tt.old, tt.new, got, tt.want)
		}
	}
}
