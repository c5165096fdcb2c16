package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"deal-parity/internal/canonical"
	"deal-parity/internal/domain"
	"deal-parity/internal/observability"
	"deal-parity/internal/storage"
)

// Exporter freezes the current analysis state into an immutable snapshot.
// Export is idempotent: the snapshot identity is the provenance hash, so
// exporting unchanged state returns the existing snapshot.
type Exporter struct {
	service   *Service
	deals     storage.DealStore
	txns      storage.TransactionStore
	ovs       storage.OverrideStore
	snapshots storage.SnapshotStore

	clock func() time.Time
}

// NewExporter creates an Exporter on top of a pipeline service.
func NewExporter(service *Service, snapshots storage.SnapshotStore) *Exporter {
	return &Exporter{
		service:   service,
		deals:     service.deals,
		txns:      service.txns,
		ovs:       service.ovs,
		snapshots: snapshots,
		clock:     service.clock,
	}
}

// ExportResult reports what an export produced.
type ExportResult struct {
	Snapshot *domain.Snapshot
	// Deduplicated is true when the provenance hash already existed and
	// no new snapshot row was written.
	Deduplicated bool
}

// Export recomputes the deal state, canonicalizes it and stores the
// snapshot. The recompute is mandatory: a snapshot must never freeze a
// stale draft.
func (e *Exporter) Export(ctx context.Context, dealID, createdBy string) (*ExportResult, error) {
	out, err := e.service.Recompute(ctx, dealID, domain.RunTriggerExport)
	if err != nil {
		return nil, err
	}

	deal, err := e.deals.GetByID(ctx, dealID)
	if err != nil {
		return nil, fmt.Errorf("load deal: %w", err)
	}
	txs, err := e.txns.ListByDeal(ctx, dealID)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	overrides, err := e.ovs.ListByDeal(ctx, dealID)
	if err != nil {
		return nil, fmt.Errorf("load overrides: %w", err)
	}

	fs, err := out.FinancialState(deal, txs)
	if err != nil {
		return nil, fmt.Errorf("build financial state: %w", err)
	}
	payload, err := canonical.BuildSnapshotPayload(fs, overrides)
	if err != nil {
		return nil, fmt.Errorf("build snapshot payload: %w", err)
	}
	canonicalJSON, provenanceHash, err := canonical.Canonicalize(payload)
	if err != nil {
		return nil, err
	}

	snap := &domain.Snapshot{
		ID:                 uuid.NewString(),
		DealID:             dealID,
		AnalysisRunID:      out.Run.ID,
		SchemaVersion:      domain.SchemaVersion,
		ConfigVersion:      domain.ConfigVersion,
		ProvenanceHash:     provenanceHash,
		FinancialStateHash: payload.FinancialStateHash,
		CanonicalJSON:      canonicalJSON,
		CreatedBy:          createdBy,
		CreatedAt:          e.clock().UnixMilli(),
	}

	stored, err := e.snapshots.Insert(ctx, snap)
	if err != nil {
		// Lost a concurrent race on the provenance hash: the winner's
		// row is the snapshot.
		if errors.Is(err, storage.ErrDuplicateKey) {
			existing, getErr := e.snapshots.GetByProvenanceHash(ctx, provenanceHash)
			if getErr != nil {
				return nil, getErr
			}
			observability.RecordExport(true)
			return &ExportResult{Snapshot: existing, Deduplicated: true}, nil
		}
		return nil, fmt.Errorf("store snapshot: %w", err)
	}

	dedup := stored.ID != snap.ID
	observability.RecordExport(dedup)
	return &ExportResult{Snapshot: stored, Deduplicated: dedup}, nil
}
