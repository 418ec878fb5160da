package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ammPool/internal/amm"
	"ammPool/internal/config"
	"ammPool/internal/model"
	"ammPool/internal/simulate"
	"ammPool/internal/snapshot"
	"ammPool/internal/storage"
	"ammPool/internal/storage/postgres"
)

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Replay an operation script against a local pool and emit pool logs",
		RunE:  runSimulate,
	}

	addPoolFlags(cmd)
	cmd.Flags().String("ops", "", "operation script JSONL")
	cmd.Flags().String("out", "./data/logs.jsonl", "output logs JSONL (appended)")
	cmd.Flags().String("errors", "./data/op_errors.jsonl", "failed operations JSONL")
	cmd.Flags().String("snapshot", "", "snapshot file; defaults to postgres when pg-dsn is set")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN")
	cmd.Flags().Int("batch-size", 100, "logs per storage batch")
	cmd.Flags().Int("max-retries", 3, "maximum retry attempts for storage writes")
	cmd.Flags().Duration("retry-backoff", 200*time.Millisecond, "initial retry backoff")
	cmd.Flags().String("initial-shares", "100e18", "shares minted by the first deposit")
	cmd.Flags().String("tolerance-divisor", "1000", "deposit ratio tolerance divisor")
	cmd.Flags().Bool("drain-guard", true, "shave one unit off a swap that would empty a reserve")
	cmd.Flags().String("metrics-addr", "", "serve prometheus metrics on this address")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	return cmd
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadSimulate(configFile(cmd), cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Ops == "" {
		return fmt.Errorf("ops path is required")
	}
	if cfg.Out == "" {
		return fmt.Errorf("output path is required")
	}
	poolAddr, asset1, asset2, err := cfg.Addresses()
	if err != nil {
		return err
	}
	params, err := cfg.Params()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sinks := storage.Multi{storage.NewJsonlStorage(cfg.Out)}
	var snapshots snapshot.Store
	if cfg.Snapshot != "" {
		snapshots = &snapshot.FileStore{Path: cfg.Snapshot}
	}

	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()

		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		if err := store.UpsertPools(ctx, []model.Pool{{
			ChainID: cfg.ChainID,
			Address: poolAddr.Hex(),
			Asset1:  asset1.Hex(),
			Asset2:  asset2.Hex(),
		}}); err != nil {
			return err
		}
		sinks = append(sinks, store.LogSink(ctx))
		if snapshots == nil {
			snapshots = &snapshot.DBStore{Store: store}
		}
	}

	reg := prometheus.NewRegistry()
	metrics := amm.NewMetrics(reg)
	serveMetrics(ctx, cfg.MetricsAddr, reg, logger)

	runner := simulate.NewRunner(simulate.RunConfig{
		ChainID:      cfg.ChainID,
		Pool:         poolAddr,
		Asset1:       asset1,
		Asset2:       asset2,
		Symbol1:      cfg.Symbol1,
		Symbol2:      cfg.Symbol2,
		Params:       params,
		OpsPath:      cfg.Ops,
		ErrorsPath:   cfg.Errors,
		BatchSize:    cfg.BatchSize,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	}, sinks, snapshots, metrics, logger)

	logger.Info("simulate start",
		zap.String("pool", poolAddr.Hex()),
		zap.String("ops", cfg.Ops),
		zap.String("out", cfg.Out),
		zap.String("snapshot", cfg.Snapshot),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.Bool("drain_guard", params.DrainGuard),
	)

	summary, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}
