package domain

// Entity is a counter-party grouping with a deterministic identifier
// derived from the deal and the normalized counter-party name.
type Entity struct {
	EntityID       string
	DealID         string
	NormalizedName string
	DisplayName    string
}

// TxnEntityRecord assigns exactly one entity and one role to a transaction.
// Recomputed each run from the deterministic rules; RoleVersion tags the
// rule revision that produced the assignment.
type TxnEntityRecord struct {
	DealID      string
	TxnID       string
	EntityID    string
	Role        Role
	RoleVersion string
}
