package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"deal-parity/internal/observability"
	"deal-parity/internal/storage"
)

// ErrNoTransactions is returned when a recompute or export is requested
// for a deal with an empty ledger.
var ErrNoTransactions = errors.New("deal has no transactions")

// Service recomputes and persists the LIVE_DRAFT analysis state.
type Service struct {
	deals    storage.DealStore
	txns     storage.TransactionStore
	links    storage.TransferLinkStore
	entities storage.EntityStore
	txnMap   storage.TxnEntityMapStore
	ovs      storage.OverrideStore
	runs     storage.AnalysisRunStore

	clock   func() time.Time
	verbose bool
}

// Options for creating a Service.
type Options struct {
	DealStore         storage.DealStore
	TransactionStore  storage.TransactionStore
	TransferLinkStore storage.TransferLinkStore
	EntityStore       storage.EntityStore
	TxnEntityMapStore storage.TxnEntityMapStore
	OverrideStore     storage.OverrideStore
	AnalysisRunStore  storage.AnalysisRunStore

	Verbose bool
}

// NewService creates a pipeline service.
func NewService(opts Options) *Service {
	return &Service{
		deals:    opts.DealStore,
		txns:     opts.TransactionStore,
		links:    opts.TransferLinkStore,
		entities: opts.EntityStore,
		txnMap:   opts.TxnEntityMapStore,
		ovs:      opts.OverrideStore,
		runs:     opts.AnalysisRunStore,
		clock:    func() time.Time { return time.Now().UTC() },
		verbose:  opts.Verbose,
	}
}

// WithClock sets a custom clock function for deterministic output.
func (s *Service) WithClock(clock func() time.Time) *Service {
	s.clock = clock
	return s
}

// Recompute loads the deal's immutable inputs, runs the full pipeline and
// persists the new LIVE_DRAFT state: run, transfer links, entities and
// role assignments. The previous draft is superseded, never deleted.
func (s *Service) Recompute(ctx context.Context, dealID, trigger string) (*RunOutput, error) {
	started := s.clock()

	deal, err := s.deals.GetByID(ctx, dealID)
	if err != nil {
		return nil, fmt.Errorf("load deal: %w", err)
	}

	txs, err := s.txns.ListByDeal(ctx, dealID)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	if len(txs) == 0 {
		return nil, ErrNoTransactions
	}

	overrides, err := s.ovs.ListByDeal(ctx, dealID)
	if err != nil {
		return nil, fmt.Errorf("load overrides: %w", err)
	}

	out, err := Run(deal, txs, overrides, trigger, started.UnixMilli())
	if err != nil {
		observability.DefaultMetrics.PipelineErrors.Inc()
		return nil, fmt.Errorf("run pipeline: %w", err)
	}
	out.Run.ID = uuid.NewString()
	for _, l := range out.Links {
		l.ID = uuid.NewString()
	}

	if err := s.links.ReplaceForDeal(ctx, dealID, out.Links); err != nil {
		return nil, fmt.Errorf("persist transfer links: %w", err)
	}
	if err := s.entities.UpsertBatch(ctx, out.Entities); err != nil {
		return nil, fmt.Errorf("persist entities: %w", err)
	}
	if err := s.txnMap.ReplaceForDeal(ctx, dealID, out.Records); err != nil {
		return nil, fmt.Errorf("persist role assignments: %w", err)
	}
	if err := s.runs.Insert(ctx, out.Run); err != nil {
		return nil, fmt.Errorf("persist analysis run: %w", err)
	}

	elapsed := s.clock().Sub(started)
	observability.RecordPipelineRun(elapsed.Seconds(), len(out.Links))
	observability.DefaultMetrics.LastSuccessfulRun.Set(float64(started.Unix()))

	s.logf("recomputed deal=%s trigger=%s txns=%d links=%d confidence=%d tier=%s in %s",
		dealID, trigger, len(txs), len(out.Links), out.Run.FinalConfidenceBP, out.Run.Tier, elapsed)

	return out, nil
}

func (s *Service) logf(format string, args ...any) {
	if s.verbose {
		log.Printf("[pipeline] "+format, args...)
	}
}
