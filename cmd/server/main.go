// Package main provides the unified HTTP service: deal management,
// transaction ingestion, override ledger, analysis, export and Prometheus
// metrics on a single listener.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"deal-parity/internal/api"
	"deal-parity/internal/ingestion"
	"deal-parity/internal/pipeline"
	"deal-parity/internal/storage"
	"deal-parity/internal/storage/memory"
	"deal-parity/internal/storage/migrations"
	pgstore "deal-parity/internal/storage/postgres"
)

// allStores holds all storage implementations.
type allStores struct {
	deals     storage.DealStore
	txns      storage.TransactionStore
	links     storage.TransferLinkStore
	entities  storage.EntityStore
	txnMap    storage.TxnEntityMapStore
	overrides storage.OverrideStore
	runs      storage.AnalysisRunStore
	snapshots storage.SnapshotStore
}

func main() {
	// Load .env file if it exists; system env vars win.
	_ = godotenv.Load()

	// Parse flags (env vars as defaults)
	addr := flag.String("addr", envOr("LISTEN_ADDR", ":8080"), "HTTP listen address")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	verbose := flag.Bool("verbose", false, "Verbose pipeline logging")
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		stores *allStores
		pool   *pgstore.Pool
	)
	if *useMemory {
		logger.Println("Using in-memory storage")
		stores = newMemoryStores()
	} else {
		if *postgresDSN == "" {
			logger.Fatal("--postgres-dsn is required (or pass --use-memory)")
		}
		var err error
		pool, err = pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatalf("Postgres connection failed: %v", err)
		}
		defer pool.Close()

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			logger.Fatalf("Migrations failed: %v", err)
		}
		stores = newPostgresStores(pool)
	}

	svc := pipeline.NewService(pipeline.Options{
		DealStore:         stores.deals,
		TransactionStore:  stores.txns,
		TransferLinkStore: stores.links,
		EntityStore:       stores.entities,
		TxnEntityMapStore: stores.txnMap,
		OverrideStore:     stores.overrides,
		AnalysisRunStore:  stores.runs,
		Verbose:           *verbose,
	})

	server := api.NewServer(api.ServerOptions{
		DealStore:         stores.deals,
		OverrideStore:     stores.overrides,
		AnalysisRunStore:  stores.runs,
		SnapshotStore:     stores.snapshots,
		TxnEntityMapStore: stores.txnMap,
		Ingestion:         ingestion.NewService(stores.deals, stores.txns),
		Pipeline:          svc,
		Exporter:          pipeline.NewExporter(svc, stores.snapshots),
	})

	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Printf("Shutdown error: %v", err)
		}
		cancel()
	}()

	logger.Printf("Listening on %s", *addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("HTTP server error: %v", err)
	}
	logger.Println("Shutdown complete")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newMemoryStores() *allStores {
	return &allStores{
		deals:     memory.NewDealStore(),
		txns:      memory.NewTransactionStore(),
		links:     memory.NewTransferLinkStore(),
		entities:  memory.NewEntityStore(),
		txnMap:    memory.NewTxnEntityMapStore(),
		overrides: memory.NewOverrideStore(),
		runs:      memory.NewAnalysisRunStore(),
		snapshots: memory.NewSnapshotStore(),
	}
}

func newPostgresStores(pool *pgstore.Pool) *allStores {
	return &allStores{
		deals:     pgstore.NewDealStore(pool),
		txns:      pgstore.NewTransactionStore(pool),
		links:     pgstore.NewTransferLinkStore(pool),
		entities:  pgstore.NewEntityStore(pool),
		txnMap:    pgstore.NewTxnEntityMapStore(pool),
		overrides: pgstore.NewOverrideStore(pool),
		runs:      pgstore.NewAnalysisRunStore(pool),
		snapshots: pgstore.NewSnapshotStore(pool),
	}
}
