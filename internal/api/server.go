// Package api exposes the deal analysis pipeline over HTTP. Handlers stay
// thin: decode, delegate to the services, encode. All domain errors leave
// through the shared envelope in errors.go.
package api

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"deal-parity/internal/ingestion"
	"deal-parity/internal/observability"
	"deal-parity/internal/pipeline"
	"deal-parity/internal/storage"
	"deal-parity/internal/verification"
)

// Server holds the services and stores the handlers delegate to.
type Server struct {
	deals     storage.DealStore
	overrides storage.OverrideStore
	runs      storage.AnalysisRunStore
	snapshots storage.SnapshotStore
	txnMap    storage.TxnEntityMapStore

	ingest   *ingestion.Service
	pipeline *pipeline.Service
	exporter *pipeline.Exporter
	verifier *verification.SnapshotVerifier

	clock  func() time.Time
	logger *log.Logger
}

// ServerOptions contains everything a Server needs.
type ServerOptions struct {
	DealStore         storage.DealStore
	OverrideStore     storage.OverrideStore
	AnalysisRunStore  storage.AnalysisRunStore
	SnapshotStore     storage.SnapshotStore
	TxnEntityMapStore storage.TxnEntityMapStore

	Ingestion *ingestion.Service
	Pipeline  *pipeline.Service
	Exporter  *pipeline.Exporter
}

// NewServer creates a Server.
func NewServer(opts ServerOptions) *Server {
	return &Server{
		deals:     opts.DealStore,
		overrides: opts.OverrideStore,
		runs:      opts.AnalysisRunStore,
		snapshots: opts.SnapshotStore,
		txnMap:    opts.TxnEntityMapStore,
		ingest:    opts.Ingestion,
		pipeline:  opts.Pipeline,
		exporter:  opts.Exporter,
		verifier:  verification.NewSnapshotVerifier(opts.SnapshotStore),
		clock:     func() time.Time { return time.Now().UTC() },
		logger:    log.New(os.Stdout, "[api] ", log.LstdFlags),
	}
}

// WithClock sets a custom clock function for deterministic output.
func (s *Server) WithClock(clock func() time.Time) *Server {
	s.clock = clock
	return s
}

// Router assembles the chi router with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", observability.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/deals", s.handleCreateDeal)
		r.Route("/deals/{dealID}", func(r chi.Router) {
			r.Get("/", s.handleGetDeal)
			r.Put("/accrual", s.handleUpdateAccrual)
			r.Post("/transactions", s.handleIngestTransactions)
			r.Post("/overrides", s.handleCreateOverride)
			r.Get("/overrides", s.handleListOverrides)
			r.Get("/analysis", s.handleGetAnalysis)
			r.Post("/export", s.handleExport)
			r.Get("/snapshots", s.handleListSnapshots)
			r.Get("/verify", s.handleVerifyDeal)
		})
		r.Get("/snapshots/{snapshotID}", s.handleGetSnapshot)
	})

	return r
}
