package domain

// Role is the closed set of economic roles a transaction can carry.
// Transfers get RoleTransfer; every other transaction receives exactly one
// of the remaining roles (the classifier is total).
type Role string

const (
	RoleRevenueOperational    Role = "revenue_operational"
	RoleRevenueNonOperational Role = "revenue_non_operational"
	RolePayroll               Role = "payroll"
	RoleSupplier              Role = "supplier"
	RoleOther                 Role = "other"
	RoleTransfer              Role = "transfer"
)

// String returns the string representation of Role.
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the role is a valid value.
func (r Role) IsValid() bool {
	switch r {
	case RoleRevenueOperational, RoleRevenueNonOperational, RolePayroll, RoleSupplier, RoleOther, RoleTransfer:
		return true
	}
	return false
}

// IsRevenue reports whether the role sits on the revenue side of the
// revenue/non-revenue boundary used for override weight derivation.
func (r Role) IsRevenue() bool {
	return r == RoleRevenueOperational || r == RoleRevenueNonOperational
}
