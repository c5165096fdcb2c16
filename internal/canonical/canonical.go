package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"deal-parity/internal/domain"
)

// Marshal produces the canonical byte encoding: compact JSON with struct
// declaration key order and integer-only numbers. Hash equality is a
// correctness property, so nothing locale- or map-order-dependent may
// reach this function.
func Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Hash returns the hex-encoded SHA256 of the canonical encoding of v.
func Hash(v any) (string, error) {
	data, err := Marshal(v)
	if err != nil {
		return "", fmt.Errorf("canonical marshal: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// SortTransactions orders by the documented composite key:
// date, account, signed amount, normalized descriptor, txn id.
func SortTransactions(txs []TransactionPayload) {
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

// SortLinks orders by (txn_out_id, txn_in_id).
func SortLinks(links []TransferLinkPayload) {
	sort.Slice(links, func(i, j int) bool {
		if links[i].TxnOutID != links[j].TxnOutID {
			return links[i].TxnOutID < links[j].TxnOutID
		}
		return links[i].TxnInID < links[j].TxnInID
	})
}

// SortEntities orders by entity id.
func SortEntities(entities []EntityPayload) {
	sort.Slice(entities, func(i, j int) bool {
		return entities[i].EntityID < entities[j].EntityID
	})
}

// SortTxnEntityMap orders by txn id.
func SortTxnEntityMap(records []TxnEntityPayload) {
	sort.Slice(records, func(i, j int) bool {
		return records[i].TxnID < records[j].TxnID
	})
}

// SortOverrides orders the audit trail by (entity_id, created_at, seq).
func SortOverrides(overrides []OverridePayload) {
	sort.Slice(overrides, func(i, j int) bool {
		a, b := overrides[i], overrides[j]
		if a.EntityID != b.EntityID {
			return a.EntityID < b.EntityID
		}
		if a.CreatedAt != b.CreatedAt {
			return a.CreatedAt < b.CreatedAt
		}
		return a.Seq < b.Seq
	})
}

// BuildFinancialState assembles and sorts the outcome-only view.
// RawTransactionHash is derived from the sorted transaction payloads.
func BuildFinancialState(
	dealID string,
	currency string,
	txs []*domain.RawTransaction,
	links []*domain.TransferLink,
	entities []*domain.Entity,
	records []*domain.TxnEntityRecord,
	metrics MetricsPayload,
	conf ConfidencePayload,
) (*FinancialState, error) {
	txPayloads := make([]TransactionPayload, 0, len(txs))
	for _, tx := range txs {
		txPayloads = append(txPayloads, TransactionToPayload(tx))
	}
	SortTransactions(txPayloads)

	rawHash, err := Hash(txPayloads)
	if err != nil {
		return nil, err
	}

	linkPayloads := make([]TransferLinkPayload, 0, len(links))
	for _, l := range links {
		linkPayloads = append(linkPayloads, LinkToPayload(l))
	}
	SortLinks(linkPayloads)

	entityPayloads := make([]EntityPayload, 0, len(entities))
	for _, e := range entities {
		entityPayloads = append(entityPayloads, EntityToPayload(e))
	}
	SortEntities(entityPayloads)

	recordPayloads := make([]TxnEntityPayload, 0, len(records))
	for _, r := range records {
		recordPayloads = append(recordPayloads, RecordToPayload(r))
	}
	SortTxnEntityMap(recordPayloads)

	return &FinancialState{
		SchemaVersion:      domain.SchemaVersion,
		ConfigVersion:      domain.ConfigVersion,
		DealID:             dealID,
		Currency:           currency,
		RawTransactionHash: rawHash,
		Transactions:       txPayloads,
		TransferLinks:      linkPayloads,
		Entities:           entityPayloads,
		TxnEntityMap:       recordPayloads,
		Metrics:            metrics,
		Confidence:         conf,
	}, nil
}

// BuildSnapshotPayload computes the financial-state hash and attaches the
// sorted override audit trail.
func BuildSnapshotPayload(fs *FinancialState, overrides []*domain.Override) (*SnapshotPayload, error) {
	fsHash, err := Hash(fs)
	if err != nil {
		return nil, err
	}

	ovPayloads := make([]OverridePayload, 0, len(overrides))
	for _, o := range overrides {
		ovPayloads = append(ovPayloads, OverrideToPayload(o))
	}
	SortOverrides(ovPayloads)

	return &SnapshotPayload{
		FinancialState:     *fs,
		FinancialStateHash: fsHash,
		OverridesApplied:   ovPayloads,
	}, nil
}

// Canonicalize returns the canonical JSON and the provenance hash over it.
func Canonicalize(payload *SnapshotPayload) (string, string, error) {
	data, err := Marshal(payload)
	if err != nil {
		return "", "", fmt.Errorf("canonicalize snapshot payload: %w", err)
	}
	sum := sha256.Sum256(data)
	return string(data), hex.EncodeToString(sum[:]), nil
}

// RecomputeFinancialStateHash parses a stored canonical payload, rebuilds
// the outcome-only view with defensive re-sorting, and returns its hash.
// Used by snapshot verification and the legacy backfill.
func RecomputeFinancialStateHash(canonicalJSON string) (string, error) {
	var payload SnapshotPayload
	if err := json.Unmarshal([]byte(canonicalJSON), &payload); err != nil {
		return "", fmt.Errorf("parse canonical payload: %w", err)
	}

	fs := payload.FinancialState
	SortTransactions(fs.Transactions)
	SortLinks(fs.TransferLinks)
	SortEntities(fs.Entities)
	SortTxnEntityMap(fs.TxnEntityMap)

	return Hash(&fs)
}

// RecomputeProvenanceHash hashes a stored canonical payload byte-for-byte.
func RecomputeProvenanceHash(canonicalJSON string) string {
	sum := sha256.Sum256([]byte(canonicalJSON))
	return hex.EncodeToString(sum[:])
}
