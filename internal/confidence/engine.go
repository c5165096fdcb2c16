// Package confidence folds the override ledger into a penalty and maps the
// final basis-point score onto a tier.
package confidence

import (
	"deal-parity/internal/domain"
)

// OverridePenaltyCapBP bounds the total override penalty so the correction
// mechanism cannot drive confidence to zero on its own.
const OverridePenaltyCapBP int64 = 7000

// Tier thresholds in basis points.
const (
	tierMediumMinBP int64 = 7000
	tierHighMinBP   int64 = 8500
)

// Result is the finalized confidence assessment.
type Result struct {
	FinalConfidenceBP int64
	Tier              domain.Tier
	TierCapped        bool
	OverridePenaltyBP int64
}

// OverridePenaltyBP computes the total override penalty in basis points.
// Per overridden entity: (entity share of non-transfer volume) x weight,
// integer arithmetic throughout, hard-capped at OverridePenaltyCapBP.
// Only the latest override per entity counts; a weight-0 revert neutralizes
// the entity's contribution exactly.
func OverridePenaltyBP(overrides []*domain.Override, entityAbsValues map[string]int64, nonTransferAbsTotal int64) int64 {
	if nonTransferAbsTotal <= 0 {
		return 0
	}

	var impactBP int64
	for entityID, ov := range domain.EffectiveOverrides(overrides) {
		val := entityAbsValues[entityID]
		if val < 0 {
			val = -val
		}
		if val == 0 {
			continue
		}
		impactBP += (val * 10000 / nonTransferAbsTotal) * ov.WeightBP / 10000
	}

	if impactBP > OverridePenaltyCapBP {
		return OverridePenaltyCapBP
	}
	return impactBP
}

// ComputeTier maps a confidence score onto a tier. High is capped down to
// Medium whenever reconciliation did not succeed; the returned bool records
// that the cap was applied. The numeric score is never altered.
func ComputeTier(confidenceBP int64, status domain.ReconciliationStatus) (domain.Tier, bool) {
	tier := domain.TierLow
	switch {
	case confidenceBP >= tierHighMinBP:
		tier = domain.TierHigh
	case confidenceBP >= tierMediumMinBP:
		tier = domain.TierMedium
	}

	if tier == domain.TierHigh && status != domain.ReconciliationOK {
		return domain.TierMedium, true
	}
	return tier, false
}

// Finalize subtracts the override penalty from the month-adjusted base,
// floors at zero, and derives the tier.
func Finalize(baseAfterMonthsBP, overridePenaltyBP int64, status domain.ReconciliationStatus) Result {
	final := baseAfterMonthsBP - overridePenaltyBP
	if final < 0 {
		final = 0
	}
	tier, capped := ComputeTier(final, status)
	return Result{
		FinalConfidenceBP: final,
		Tier:              tier,
		TierCapped:        capped,
		OverridePenaltyBP: overridePenaltyBP,
	}
}
