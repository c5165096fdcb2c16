package domain

// Override weights in basis points. Weight reflects how material the
// correction is: crossing the revenue/non-revenue boundary is major.
const (
	OverrideWeightRevertBP int64 = 0
	OverrideWeightMinorBP  int64 = 5000
	OverrideWeightMajorBP  int64 = 10000
)

// Override is one append-only manual role correction. Never updated or
// deleted; effective state is resolved at read time (latest per entity).
type Override struct {
	ID       string
	DealID   string
	EntityID string
	Field    string // currently always "role"
	OldRole  Role   // effective role at submission time, "" if unknown
	NewRole  Role
	WeightBP int64
	Reason   string
	CreatedBy string
	CreatedAt int64 // ms
	Seq       int64 // insertion order, tie-break when CreatedAt collides
}

// DeriveOverrideWeightBP derives the weight from the role transition.
// Same role is a revert (0), crossing the revenue boundary is major,
// any other transition is minor.
func DeriveOverrideWeightBP(oldRole, newRole Role) int64 {
	if oldRole == newRole {
		return OverrideWeightRevertBP
	}
	if oldRole.IsRevenue() != newRole.IsRevenue() {
		return OverrideWeightMajorBP
	}
	return OverrideWeightMinorBP
}

// EffectiveOverrides resolves "latest wins" per entity: for each entity the
// override with the greatest CreatedAt is kept, ties broken by the greater
// insertion Seq. Input order does not matter.
func EffectiveOverrides(overrides []*Override) map[string]*Override {
	latest := make(map[string]*Override, len(overrides))
	for _, ov := range overrides {
		if ov == nil || ov.EntityID == "" {
			continue
		}
		cur, ok := latest[ov.EntityID]
		if !ok || ov.CreatedAt > cur.CreatedAt || (ov.CreatedAt == cur.CreatedAt && ov.Seq > cur.Seq) {
			latest[ov.EntityID] = ov
		}
	}
	return latest
}
