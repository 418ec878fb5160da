package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ammPool/internal/amm"
	"ammPool/internal/config"
	"ammPool/internal/model"
	"ammPool/internal/snapshot"
	"ammPool/internal/storage/postgres"
)

type quoteLine struct {
	AmountIn     string `json:"amount_in"`
	Out1For2     string `json:"out_1_for_2,omitempty"`
	Out2For1     string `json:"out_2_for_1,omitempty"`
	Deposit2For1 string `json:"deposit_2_for_1,omitempty"`
	Deposit1For2 string `json:"deposit_1_for_2,omitempty"`
	Error        string `json:"error,omitempty"`
}

func newQuoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Quote swaps and deposits against a saved pool snapshot",
		RunE:  runQuote,
	}

	addPoolFlags(cmd)
	cmd.Flags().String("snapshot", "", "snapshot file; defaults to postgres when pg-dsn is set")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN")
	cmd.Flags().StringSlice("amount", nil, "input amounts (raw units, exponent notation allowed)")
	cmd.Flags().Bool("drain-guard", true, "shave one unit off a swap that would empty a reserve")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	return cmd
}

func runQuote(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadQuery(configFile(cmd), cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	amounts, err := cfg.ParseAmounts()
	if err != nil {
		return err
	}
	if len(amounts) == 0 {
		return fmt.Errorf("at least one amount is required")
	}
	poolAddr, _, _, err := cfg.Addresses()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	saved, err := loadSnapshot(ctx, cfg, poolAddr)
	if err != nil {
		return err
	}
	if saved == nil {
		return fmt.Errorf("no snapshot for pool %s", poolAddr.Hex())
	}
	snap, err := snapshot.ToPool(*saved)
	if err != nil {
		return err
	}

	logger.Debug("quoting",
		zap.String("pool", poolAddr.Hex()),
		zap.String("reserve1", snap.Reserve1.Dec()),
		zap.String("reserve2", snap.Reserve2.Dec()),
		zap.Uint64("sequence", saved.Sequence),
	)

	enc := json.NewEncoder(cmd.OutOrStdout())
	for _, amount := range amounts {
		if err := enc.Encode(quoteAmount(snap, amount, cfg.DrainGuard)); err != nil {
			return err
		}
	}
	return nil
}

func quoteAmount(snap amm.Snapshot, amount *uint256.Int, drainGuard bool) quoteLine {
	line := quoteLine{AmountIn: amount.Dec()}
	render := func(v *uint256.Int, err error) string {
		if err != nil {
			if line.Error == "" {
				line.Error = amm.ErrorReason(err)
			}
			return ""
		}
		return v.Dec()
	}
	line.Out1For2 = render(amm.QuoteSwap(amount, snap.Reserve1, snap.Reserve2, drainGuard))
	line.Out2For1 = render(amm.QuoteSwap(amount, snap.Reserve2, snap.Reserve1, drainGuard))
	line.Deposit2For1 = render(amm.QuoteDeposit(amount, snap.Reserve2, snap.Reserve1))
	line.Deposit1For2 = render(amm.QuoteDeposit(amount, snap.Reserve1, snap.Reserve2))
	return line
}

// loadSnapshot reads the pool snapshot from the configured file or postgres.
// It returns nil when neither source is configured or nothing is saved.
func loadSnapshot(ctx context.Context, cfg config.QueryConfig, pool common.Address) (*model.PoolSnapshot, error) {
	var store snapshot.Store
	switch {
	case cfg.Snapshot != "":
		store = &snapshot.FileStore{Path: cfg.Snapshot}
	case cfg.PGDSN != "":
		pg, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		defer pg.Close()
		store = &snapshot.DBStore{Store: pg}
	default:
		return nil, nil
	}

	snap, found, err := store.Load(ctx, pool)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &snap, nil
}
