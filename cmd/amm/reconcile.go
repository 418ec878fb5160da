package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ammPool/internal/chain"
	"ammPool/internal/config"
	"ammPool/internal/reconcile"
)

func newReconcileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Check a deployed pool against its token balances and the local pricing math",
		RunE:  runReconcile,
	}

	addPoolFlags(cmd)
	cmd.Flags().String("rpc", "", "RPC URL")
	cmd.Flags().Uint64("block", 0, "block to read at, 0 means latest")
	cmd.Flags().String("snapshot", "", "snapshot file to compare with the contract state")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN to read the snapshot from")
	cmd.Flags().StringSlice("amount", nil, "swap probe amounts (raw units, exponent notation allowed)")
	cmd.Flags().Bool("drain-guard", true, "local quotes shave one unit off a swap that would empty a reserve")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	return cmd
}

func runReconcile(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadQuery(configFile(cmd), cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	poolAddr, _, _, err := cfg.Addresses()
	if err != nil {
		return err
	}
	probes, err := cfg.ParseAmounts()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	saved, err := loadSnapshot(ctx, cfg, poolAddr)
	if err != nil {
		return err
	}

	opts := reconcile.Options{
		Probes:     probes,
		DrainGuard: cfg.DrainGuard,
		Snapshot:   saved,
	}
	if cfg.Block > 0 {
		opts.Block = new(big.Int).SetUint64(cfg.Block)
	}

	logger.Info("reconcile start",
		zap.String("rpc", cfg.RPCURL),
		zap.String("pool", poolAddr.Hex()),
		zap.Uint64("block", cfg.Block),
		zap.Int("probes", len(probes)),
		zap.Bool("snapshot", saved != nil),
	)

	report, err := reconcile.Check(ctx, chainClient, poolAddr, opts, logger)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return err
	}
	return report.Err()
}
