package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ujpest-analytics/transferroom-sync/internal/app"
	"github.com/ujpest-analytics/transferroom-sync/internal/config"
	"github.com/ujpest-analytics/transferroom-sync/internal/observability"
	idgen "github.com/ujpest-analytics/transferroom-sync/internal/platform/id"
	"github.com/ujpest-analytics/transferroom-sync/internal/platform/logging"
	"github.com/ujpest-analytics/transferroom-sync/internal/usecase"
)

func main() {
	playersOnly := flag.Bool("players-only", false, "sync players only")
	competitionsOnly := flag.Bool("competitions-only", false, "sync competitions only")
	maxRecords := flag.Int("max-records", 0, "cap records ingested per kind (0 = no cap)")
	testMode := flag.Bool("test", false, "test mode: small capped run against the live source")
	flag.Parse()

	if *playersOnly && *competitionsOnly {
		fmt.Fprintln(os.Stderr, "-players-only and -competitions-only are mutually exclusive")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewJSON(cfg.LogLevel)
	logging.SetDefault(logger)
	defer func() {
		_ = logger.Sync()
	}()

	invocationID, err := idgen.NewRandomGenerator().NewID()
	if err != nil {
		logger.Error("generate invocation id", "error", err)
		os.Exit(1)
	}
	logger = logger.With("invocation_id", invocationID)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		logger.Error("init tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("shutdown tracing", "error", err)
		}
	}()

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("build app", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Warn("close app", "error", err)
		}
	}()

	opts := usecase.RunOptions{
		MaxRecords: *maxRecords,
		Test:       *testMode,
	}
	switch {
	case *playersOnly:
		opts.Kinds = []string{usecase.KindPlayers}
	case *competitionsOnly:
		opts.Kinds = []string{usecase.KindCompetitions}
	}

	logger.InfoContext(ctx, "sync starting",
		"kinds", opts.Kinds,
		"max_records", opts.MaxRecords,
		"test_mode", opts.Test,
	)

	report, err := application.Sync.Run(ctx, opts)
	if err != nil {
		logger.ErrorContext(ctx, "sync aborted", "error", err)
		os.Exit(1)
	}

	for _, kind := range report.Kinds {
		logger.InfoContext(ctx, "kind finished",
			"kind", kind.Kind,
			"run_id", kind.RunID,
			"status", string(kind.Status),
			"fetched", kind.Counters.Fetched,
			"inserted", kind.Counters.Inserted,
			"updated", kind.Counters.Updated,
			"failed", kind.Counters.Failed,
		)
		fmt.Printf("%s: status=%s fetched=%d inserted=%d updated=%d failed=%d\n",
			kind.Kind, kind.Status,
			kind.Counters.Fetched, kind.Counters.Inserted, kind.Counters.Updated, kind.Counters.Failed,
		)
	}

	if report.Failed() {
		os.Exit(1)
	}
}
