// Package classify assigns roles to transactions and groups them into
// counter-party entities. All rules are deterministic and total: every
// non-transfer transaction receives exactly one role.
package classify

import (
	"strings"

	"deal-parity/internal/domain"
)

// Keyword groups, checked in order. Loan/capital/refund run before the
// operational-revenue group so "loan repayment" matches loan rather than
// the "payment" substring.
var (
	loanKeywords      = []string{"loan", "facility", "credit", "disbursement"}
	capitalKeywords   = []string{"capital", "director", "owner", "shareholder", "investment", "equity"}
	refundKeywords    = []string{"reversal", "refund", "chargeback"}
	revenueOpKeywords = []string{"sale", "pos", "mpesa", "payment", "client", "receipt"}
	payrollKeywords   = []string{"salary", "payroll", "wages", "staff"}
	taxKeywords       = []string{"tax", "kra", "vat", "paye"}
)

// Classify assigns a role to one transaction. Transfers are identified by
// membership in transferIDs; everything else goes through the keyword rules
// with a sign-based fallback, so the result is always a valid role.
func Classify(tx *domain.RawTransaction, transferIDs map[string]bool) domain.Role {
	if transferIDs[tx.TxnID] {
		return domain.RoleTransfer
	}

	if role, ok := keywordClassify(tx.NormalizedDescriptor, tx.SignedAmountCents); ok {
		return role
	}

	// Fallback by sign. Zero amounts are rejected at ingestion, so RoleOther
	// is unreachable for stored rows; it stays here to keep the rule total.
	switch {
	case tx.SignedAmountCents > 0:
		return domain.RoleRevenueOperational
	case tx.SignedAmountCents < 0:
		return domain.RoleSupplier
	default:
		return domain.RoleOther
	}
}

func keywordClassify(descriptor string, amountCents int64) (domain.Role, bool) {
	d := strings.ToLower(descriptor)

	if containsAny(d, loanKeywords) || containsAny(d, capitalKeywords) || containsAny(d, refundKeywords) {
		if amountCents > 0 {
			return domain.RoleRevenueNonOperational, true
		}
		return domain.RoleSupplier, true
	}

	if containsAny(d, revenueOpKeywords) {
		return domain.RoleRevenueOperational, true
	}
	if containsAny(d, payrollKeywords) {
		return domain.RolePayroll, true
	}
	if containsAny(d, taxKeywords) {
		return domain.RoleSupplier, true
	}

	return "", false
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
