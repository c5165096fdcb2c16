package domain

// Canonical version constants. These tag every analysis run and snapshot
// payload so that hash-bearing artifacts carry their contract version.
const (
	SchemaVersion = "1.0.0"
	ConfigVersion = "1.0.0"

	// MatchRuleVersion tags transfer links with the pairing rule revision.
	MatchRuleVersion = "v1_transfer_rule"

	// RoleRulesVersion tags role assignments with the classifier rule revision.
	RoleRulesVersion = "v1_rules"
)
