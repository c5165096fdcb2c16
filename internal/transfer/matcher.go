// Package transfer pairs inflow/outflow transactions that represent
// internal movement between a deal's own accounts.
package transfer

import (
	"deal-parity/internal/domain"
)

// MatchResult holds the outcome of a matching pass.
type MatchResult struct {
	Links []*domain.TransferLink
	// TransferTxnIDs marks every transaction that ended up in a link.
	TransferTxnIDs map[string]bool
}

// MatchTransfers pairs transactions under the strict uniqueness rule.
// A pair forms only when ALL of the following hold:
//   - identical absolute amount
//   - opposite sign
//   - transaction dates within 2 calendar days inclusive
//   - different account identifiers
//   - exactly one candidate in each direction
//
// Ambiguity (two or more candidates on either side) produces no link at all:
// treating a real transfer as economic activity is safe, hiding real
// activity as a transfer is not.
//
// Input order does not affect the result. Transactions with unparseable
// dates never match.
func MatchTransfers(txs []*domain.RawTransaction) *MatchResult {
	byAbs := make(map[int64][]*domain.RawTransaction)
	var absOrder []int64
	for _, tx := range txs {
		amt := tx.AbsAmountCents()
		if _, seen := byAbs[amt]; !seen {
			absOrder = append(absOrder, amt)
		}
		byAbs[amt] = append(byAbs[amt], tx)
	}

	result := &MatchResult{TransferTxnIDs: make(map[string]bool)}

	for _, amt := range absOrder {
		group := byAbs[amt]

		var positives, negatives []*domain.RawTransaction
		for _, tx := range group {
			if tx.SignedAmountCents > 0 {
				positives = append(positives, tx)
			} else if tx.SignedAmountCents < 0 {
				negatives = append(negatives, tx)
			}
		}

		for _, pos := range positives {
			candidates := filterCandidates(negatives, pos)
			if len(candidates) != 1 {
				continue
			}
			neg := candidates[0]

			// Symmetry: pos must be the unique candidate for neg too.
			reverse := filterCandidates(positives, neg)
			if len(reverse) != 1 || reverse[0] != pos {
				continue
			}

			result.TransferTxnIDs[pos.TxnID] = true
			result.TransferTxnIDs[neg.TxnID] = true
			result.Links = append(result.Links, &domain.TransferLink{
				DealID:           pos.DealID,
				TxnOutID:         neg.TxnID,
				TxnInID:          pos.TxnID,
				AbsAmountCents:   amt,
				MatchRuleVersion: domain.MatchRuleVersion,
			})
		}
	}

	return result
}

// filterCandidates returns the members of pool on different accounts from
// ref and within 2 calendar days of it.
func filterCandidates(pool []*domain.RawTransaction, ref *domain.RawTransaction) []*domain.RawTransaction {
	var out []*domain.RawTransaction
	for _, tx := range pool {
		if tx.AccountID == ref.AccountID {
			continue
		}
		diff, err := domain.DayDiff(tx.TxnDate, ref.TxnDate)
		if err != nil || diff > 2 {
			continue
		}
		out = append(out, tx)
	}
	return out
}
