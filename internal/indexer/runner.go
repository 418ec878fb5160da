// Package indexer fetches pool event logs from a chain in block batches.
package indexer

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"ammPool/internal/model"
	"ammPool/internal/retry"
	"ammPool/internal/storage"
)

// LogSource is the chain access the runner needs.
type LogSource interface {
	GetChainID(ctx context.Context) (*big.Int, error)
	LatestBlockNumber(ctx context.Context) (uint64, error)
	BlockTimestamp(ctx context.Context, number uint64) (uint64, error)
	FilterLogs(ctx context.Context, fromBlock, toBlock uint64, addresses []common.Address, topic0 []common.Hash) ([]types.Log, error)
}

// RunConfig holds runtime settings for the indexer. Topic0 restricts the
// fetched logs to the pool events the decoder understands.
type RunConfig struct {
	FromBlock         uint64
	ToBlock           uint64
	Addresses         []common.Address
	Topic0            []common.Hash
	BatchSize         uint64
	CheckpointPath    string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration
}

// Runner streams pool logs from the chain and writes them to storage.
type Runner struct {
	cfg        RunConfig
	chain      LogSource
	storage    storage.Storage
	logger     *zap.Logger
	seen       map[logID]struct{}
	checkpoint *CheckpointStore
}

// NewRunner builds a Runner with its dependencies.
func NewRunner(cfg RunConfig, chainClient LogSource, storageSink storage.Storage, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:        cfg,
		chain:      chainClient,
		storage:    storageSink,
		logger:     logger,
		seen:       make(map[logID]struct{}),
		checkpoint: NewCheckpointStore(cfg.CheckpointPath, cfg.CheckpointEnabled),
	}
}

// Run fetches every range between the configured blocks, resuming after the
// checkpoint when it was written for the same pools.
func (r *Runner) Run(ctx context.Context) error {
	switch {
	case r.chain == nil:
		return fmt.Errorf("chain client is nil")
	case r.storage == nil:
		return fmt.Errorf("storage is nil")
	case len(r.cfg.Addresses) == 0:
		return fmt.Errorf("at least one pool address is required")
	}

	chainID, err := r.chain.GetChainID(ctx)
	if err != nil {
		return fmt.Errorf("get chain id: %w", err)
	}
	if !chainID.IsUint64() {
		return fmt.Errorf("chain id does not fit in uint64: %s", chainID)
	}

	from, to, err := r.bounds(ctx)
	if err != nil {
		return err
	}
	if from > to {
		r.logger.Info("nothing to sync", zap.Uint64("from", from), zap.Uint64("to", to))
		return nil
	}
	ranges, err := SplitRange(from, to, r.cfg.BatchSize)
	if err != nil {
		return err
	}

	builder := &batchBuilder{
		chainID:   chainID.Uint64(),
		seen:      r.seen,
		timestamp: r.blockTimestamp,
		logger:    r.logger,
	}
	for _, blockRange := range ranges {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.syncRange(ctx, builder, blockRange); err != nil {
			return err
		}
	}
	return nil
}

// bounds resolves the block range to sync: ToBlock 0 means the chain head.
func (r *Runner) bounds(ctx context.Context) (uint64, uint64, error) {
	from, to := r.cfg.FromBlock, r.cfg.ToBlock
	if to == 0 {
		latest, err := r.chain.LatestBlockNumber(ctx)
		if err != nil {
			return 0, 0, fmt.Errorf("get latest block: %w", err)
		}
		to = latest
	}

	cp, ok, err := r.checkpoint.Load()
	if err != nil {
		return 0, 0, err
	}
	switch {
	case !ok:
	case !cp.Covers(r.cfg.Addresses):
		r.logger.Warn("checkpoint written for a different pool set, ignoring", zap.Strings("checkpoint_pools", cp.Pools))
	case cp.LastProcessedBlock >= from:
		from = cp.LastProcessedBlock + 1
		r.logger.Info("resume from checkpoint", zap.Uint64("last_processed", cp.LastProcessedBlock), zap.Uint64("from", from))
	}
	return from, to, nil
}

func (r *Runner) syncRange(ctx context.Context, builder *batchBuilder, blockRange BlockRange) error {
	r.logger.Info("fetch logs",
		zap.Uint64("from", blockRange.From),
		zap.Uint64("to", blockRange.To),
		zap.Uint64("blocks", blockRange.Blocks()),
	)

	var logs []types.Log
	err := r.policy("filter logs").Do(ctx, func(ctx context.Context) error {
		var err error
		logs, err = r.chain.FilterLogs(ctx, blockRange.From, blockRange.To, r.cfg.Addresses, r.cfg.Topic0)
		return err
	})
	if err != nil {
		return fmt.Errorf("filter logs: %w", err)
	}

	records, err := builder.build(ctx, logs, time.Now().UTC())
	if err != nil {
		return err
	}
	if err := r.store(ctx, records); err != nil {
		return err
	}
	if err := r.checkpoint.Save(blockRange.To, r.cfg.Addresses); err != nil {
		return err
	}

	r.logger.Info("batch complete", zap.Int("logs", len(records)), zap.Uint64("from", blockRange.From), zap.Uint64("to", blockRange.To))
	return nil
}

func (r *Runner) store(ctx context.Context, records []model.LogRecord) error {
	if len(records) == 0 {
		return nil
	}
	err := r.policy("store logs").Do(ctx, func(context.Context) error {
		return r.storage.PutLogBatch(records)
	})
	if err != nil {
		return fmt.Errorf("store logs: %w", err)
	}
	return nil
}

func (r *Runner) blockTimestamp(ctx context.Context, blockNumber uint64) (uint64, error) {
	var ts uint64
	err := r.policy("block timestamp").Do(ctx, func(ctx context.Context) error {
		var err error
		ts, err = r.chain.BlockTimestamp(ctx, blockNumber)
		return err
	})
	return ts, err
}

func (r *Runner) policy(call string) retry.Policy {
	return retry.Policy{
		MaxRetries: r.cfg.MaxRetries,
		Backoff:    r.cfg.RetryBackoff,
		Notify: func(attempt int, err error, wait time.Duration) {
			r.logger.Warn(call+" failed, retrying",
				zap.Int("attempt", attempt),
				zap.Duration("wait", wait),
				zap.Error(err),
			)
		},
	}
}
