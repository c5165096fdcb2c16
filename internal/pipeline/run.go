// Package pipeline recomputes the full analysis state of a deal from its
// immutable inputs: the transaction ledger, the override ledger and the
// accrual reference. The same inputs always produce the same output,
// byte for byte.
package pipeline

import (
	"sort"

	"deal-parity/internal/canonical"
	"deal-parity/internal/classify"
	"deal-parity/internal/confidence"
	"deal-parity/internal/domain"
	"deal-parity/internal/metrics"
	"deal-parity/internal/transfer"
)

// RunOutput holds everything one deterministic pass produces.
type RunOutput struct {
	Run      *domain.AnalysisRun
	Links    []*domain.TransferLink
	Entities []*domain.Entity
	Records  []*domain.TxnEntityRecord

	Metrics    *metrics.Result
	Confidence confidence.Result

	// TxnEntity maps txn_id -> entity_id for the run's entity grouping.
	TxnEntity map[string]string
}

// Run executes the pure computation: transfer matching, entity grouping,
// classification, metrics, override folding and confidence. It touches no
// storage; callers persist the output. Input transaction order is
// irrelevant — the first step is a canonical sort.
func Run(deal *domain.Deal, txs []*domain.RawTransaction, overrides []*domain.Override, trigger string, nowMS int64) (*RunOutput, error) {
	sorted := make([]*domain.RawTransaction, len(txs))
	copy(sorted, txs)
	sortTransactions(sorted)

	match := transfer.MatchTransfers(sorted)

	entities, txnEntity := classify.BuildEntities(deal.ID, sorted)

	roles := make(map[string]domain.Role, len(sorted))
	records := make([]*domain.TxnEntityRecord, 0, len(sorted))
	var nonTransfer []*domain.RawTransaction
	for _, tx := range sorted {
		role := classify.Classify(tx, match.TransferTxnIDs)
		roles[tx.TxnID] = role
		records = append(records, &domain.TxnEntityRecord{
			DealID:      deal.ID,
			TxnID:       tx.TxnID,
			EntityID:    txnEntity[tx.TxnID],
			Role:        role,
			RoleVersion: domain.RoleRulesVersion,
		})
		if role != domain.RoleTransfer {
			nonTransfer = append(nonTransfer, tx)
		}
	}

	m := metrics.Compute(sorted, roles, deal.Accrual)

	// Penalty shares count non-transfer volume only, matching the
	// denominator the penalty is expressed against.
	entityValues := classify.EntityAbsValues(nonTransfer, txnEntity)
	penaltyBP := confidence.OverridePenaltyBP(overrides, entityValues, m.NonTransferAbsTotalCents)
	conf := confidence.Finalize(m.BaseAfterMonthsBP, penaltyBP, m.ReconciliationStatus)

	rawHash, linksHash, entitiesHash, overridesHash, err := componentHashes(sorted, match.Links, entities, overrides)
	if err != nil {
		return nil, err
	}

	run := &domain.AnalysisRun{
		DealID:        deal.ID,
		State:         domain.RunStateLiveDraft,
		SchemaVersion: domain.SchemaVersion,
		ConfigVersion: domain.ConfigVersion,
		RunTrigger:    trigger,

		NonTransferAbsTotalCents:   m.NonTransferAbsTotalCents,
		ClassifiedAbsTotalCents:    m.ClassifiedAbsTotalCents,
		BankOperationalInflowCents: m.BankOperationalInflowCents,

		CoverageBP:            m.CoverageBP,
		MissingMonthCount:     m.MissingMonthCount,
		MissingMonthPenaltyBP: m.MissingMonthPenaltyBP,
		OverridePenaltyBP:     penaltyBP,

		ReconciliationStatus: m.ReconciliationStatus,
		ReconciliationBP:     m.ReconciliationBP,

		BaseConfidenceBP:  m.BaseConfidenceBP,
		FinalConfidenceBP: conf.FinalConfidenceBP,
		Tier:              conf.Tier,
		TierCapped:        conf.TierCapped,

		RawTransactionHash: rawHash,
		TransferLinksHash:  linksHash,
		EntitiesHash:       entitiesHash,
		OverridesHash:      overridesHash,

		CreatedAt: nowMS,
	}

	return &RunOutput{
		Run:        run,
		Links:      match.Links,
		Entities:   entities,
		Records:    records,
		Metrics:    m,
		Confidence: conf,
		TxnEntity:  txnEntity,
	}, nil
}

// FinancialState assembles the outcome-only canonical view of the output.
func (o *RunOutput) FinancialState(deal *domain.Deal, txs []*domain.RawTransaction) (*canonical.FinancialState, error) {
	m := canonical.MetricsPayload{
		CoverageBP:            o.Metrics.CoverageBP,
		MissingMonthCount:     o.Metrics.MissingMonthCount,
		MissingMonthPenaltyBP: o.Metrics.MissingMonthPenaltyBP,
		ReconciliationStatus:  o.Metrics.ReconciliationStatus.String(),
		ReconciliationBP:      o.Metrics.ReconciliationBP,
	}
	c := canonical.ConfidencePayload{
		FinalConfidenceBP: o.Confidence.FinalConfidenceBP,
		Tier:              o.Confidence.Tier.String(),
		TierCapped:        o.Confidence.TierCapped,
		OverridePenaltyBP: o.Confidence.OverridePenaltyBP,
	}
	return canonical.BuildFinancialState(deal.ID, deal.Currency, txs, o.Links, o.Entities, o.Records, m, c)
}

// componentHashes derives the per-component hashes recorded on the run.
func componentHashes(
	txs []*domain.RawTransaction,
	links []*domain.TransferLink,
	entities []*domain.Entity,
	overrides []*domain.Override,
) (raw, linksHash, entitiesHash, overridesHash string, err error) {
	txPayloads := make([]canonical.TransactionPayload, 0, len(txs))
	for _, tx := range txs {
		txPayloads = append(txPayloads, canonical.TransactionToPayload(tx))
	}
	canonical.SortTransactions(txPayloads)
	if raw, err = canonical.Hash(txPayloads); err != nil {
		return
	}

	linkPayloads := make([]canonical.TransferLinkPayload, 0, len(links))
	for _, l := range links {
		linkPayloads = append(linkPayloads, canonical.LinkToPayload(l))
	}
	canonical.SortLinks(linkPayloads)
	if linksHash, err = canonical.Hash(linkPayloads); err != nil {
		return
	}

	entityPayloads := make([]canonical.EntityPayload, 0, len(entities))
	for _, e := range entities {
		entityPayloads = append(entityPayloads, canonical.EntityToPayload(e))
	}
	canonical.SortEntities(entityPayloads)
	if entitiesHash, err = canonical.Hash(entityPayloads); err != nil {
		return
	}

	ovPayloads := make([]canonical.OverridePayload, 0, len(overrides))
	for _, o := range overrides {
		ovPayloads = append(ovPayloads, canonical.OverrideToPayload(o))
	}
	canonical.SortOverrides(ovPayloads)
	overridesHash, err = canonical.Hash(ovPayloads)
	return
}

// sortTransactions orders by date, account, amount, descriptor, txn_id.
// Entity display names take the first descriptor in this order, so the
// grouping result cannot depend on arrival order.
func sortTransactions(txs []*domain.RawTransaction) {
	sort.Slice(txs, func(i, j int) bool {
		a, b := txs[i], txs[j]
		if a.TxnDate != b.TxnDate {
			return a.TxnDate < b.TxnDate
		}
		if a.AccountID != b.AccountID {
			return a.AccountID < b.AccountID
		}
		if a.SignedAmountCents != b.SignedAmountCents {
			return a.SignedAmountCents < b.SignedAmountCents
		}
		if a.NormalizedDescriptor != b.NormalizedDescriptor {
			return a.NormalizedDescriptor < b.NormalizedDescriptor
		}
		return a.TxnID < b.TxnID
	})
}
