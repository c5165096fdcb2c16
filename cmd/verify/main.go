// Package main provides offline snapshot verification: it recomputes the
// provenance and financial-state hashes of stored snapshots and reports
// divergences. Exit code 1 when any snapshot fails.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	pgstore "deal-parity/internal/storage/postgres"
	"deal-parity/internal/verification"
)

func main() {
	_ = godotenv.Load()

	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	dealID := flag.String("deal", "", "Deal ID to verify (required)")
	snapshotID := flag.String("snapshot", "", "Verify a single snapshot instead of the whole deal")
	backfill := flag.Bool("backfill", false, "Backfill missing financial-state hashes before verifying")
	flag.Parse()

	logger := log.New(os.Stdout, "[verify] ", log.LstdFlags)

	if *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required")
	}
	if *dealID == "" && *snapshotID == "" {
		logger.Fatal("--deal or --snapshot is required")
	}

	ctx := context.Background()
	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		logger.Fatalf("Postgres connection failed: %v", err)
	}
	defer pool.Close()

	verifier := verification.NewSnapshotVerifier(pgstore.NewSnapshotStore(pool))

	if *snapshotID != "" {
		result, err := verifier.VerifySnapshot(ctx, *snapshotID)
		if err != nil {
			logger.Fatalf("Verification failed: %v", err)
		}
		printResult(result)
		if !result.Match {
			os.Exit(1)
		}
		return
	}

	if *backfill {
		filled, err := verifier.BackfillFinancialStateHashes(ctx, *dealID)
		if err != nil {
			logger.Fatalf("Backfill failed: %v", err)
		}
		fmt.Printf("Backfilled %d snapshot(s)\n", filled)
	}

	report, err := verifier.VerifyDeal(ctx, *dealID)
	if err != nil {
		logger.Fatalf("Verification failed: %v", err)
	}

	fmt.Printf("Verified %d snapshot(s): %d matched, %d divergent\n",
		report.TotalSnapshots, report.MatchedSnapshots, report.DivergentSnapshots)
	for _, result := range report.Results {
		printResult(&result)
	}
	if report.DivergentSnapshots > 0 {
		os.Exit(1)
	}
}

func printResult(result *verification.VerificationResult) {
	if result.Match {
		fmt.Printf("  %s OK\n", result.SnapshotID)
		return
	}
	fmt.Printf("  %s DIVERGENT\n", result.SnapshotID)
	for _, d := range result.Divergences {
		fmt.Printf("    %s: stored %s, recomputed %s\n", d.Field, d.Expected, d.Actual)
	}
}
