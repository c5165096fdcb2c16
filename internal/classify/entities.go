package classify

import (
	"sort"

	"deal-parity/internal/domain"
	"deal-parity/internal/idhash"
)

// BuildEntities derives counter-party entities from normalized descriptors.
// Entity identity is content-derived (deal + normalized name), so the same
// inputs always yield the same entity set regardless of arrival order.
// Returns entities sorted by entity id and a txn_id -> entity_id map.
func BuildEntities(dealID string, txs []*domain.RawTransaction) ([]*domain.Entity, map[string]string) {
	nameToEntity := make(map[string]*domain.Entity)
	txnEntity := make(map[string]string, len(txs))

	for _, tx := range txs {
		name := domain.NormalizeDescriptor(tx.NormalizedDescriptor)
		e, ok := nameToEntity[name]
		if !ok {
			display := tx.RawDescriptor
			if display == "" {
				display = name
			}
			e = &domain.Entity{
				EntityID:       idhash.ComputeEntityID(dealID, name),
				DealID:         dealID,
				NormalizedName: name,
				DisplayName:    display,
			}
			nameToEntity[name] = e
		}
		txnEntity[tx.TxnID] = e.EntityID
	}

	entities := make([]*domain.Entity, 0, len(nameToEntity))
	for _, e := range nameToEntity {
		entities = append(entities, e)
	}
	sort.Slice(entities, func(i, j int) bool {
		return entities[i].EntityID < entities[j].EntityID
	})

	return entities, txnEntity
}

// EntityAbsValues sums absolute amounts per entity over all transactions,
// used for override penalty shares.
func EntityAbsValues(txs []*domain.RawTransaction, txnEntity map[string]string) map[string]int64 {
	values := make(map[string]int64)
	for _, tx := range txs {
		if eid, ok := txnEntity[tx.TxnID]; ok {
			values[eid] += tx.AbsAmountCents()
		}
	}
	return values
}
