// Package simulate replays a script of ledger and pool operations against an
// in-memory pool and streams the resulting pool logs to a storage sink.
package simulate

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"ammPool/internal/amm"
	"ammPool/internal/dex"
	"ammPool/internal/ledger"
	"ammPool/internal/model"
	"ammPool/internal/retry"
	"ammPool/internal/snapshot"
	"ammPool/internal/storage"
)

// RunConfig defines a simulation run.
type RunConfig struct {
	ChainID      uint64
	Pool         common.Address
	Asset1       common.Address
	Asset2       common.Address
	Symbol1      string
	Symbol2      string
	Params       amm.Params
	OpsPath      string
	ErrorsPath   string
	BatchSize    int
	MaxRetries   int
	RetryBackoff time.Duration
}

// Summary reports what a run did.
type Summary struct {
	Operations       int    `json:"operations"`
	Applied          int    `json:"applied"`
	ExpectedFailures int    `json:"expected_failures"`
	Failed           int    `json:"failed"`
	Logs             int    `json:"logs"`
	Sequence         uint64 `json:"sequence"`
}

// Runner executes simulation scripts.
type Runner struct {
	cfg       RunConfig
	sink      storage.Storage
	snapshots snapshot.Store
	metrics   *amm.Metrics
	logger    *zap.Logger
	clock     func() time.Time

	token1   *ledger.Token
	token2   *ledger.Token
	pool     *amm.Pool
	recorder *dex.Recorder
}

// NewRunner builds a runner. snapshots and metrics may be nil.
func NewRunner(cfg RunConfig, sink storage.Storage, snapshots snapshot.Store, metrics *amm.Metrics, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &Runner{
		cfg:       cfg,
		sink:      sink,
		snapshots: snapshots,
		metrics:   metrics,
		logger:    logger,
		clock:     time.Now,
	}
}

// Pool returns the pool of the last run.
func (r *Runner) Pool() *amm.Pool {
	return r.pool
}

// Run replays the script at OpsPath. Operation failures are written to
// ErrorsPath and do not stop the run; sink, snapshot and reconciliation
// failures do.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	if r.sink == nil {
		return Summary{}, fmt.Errorf("storage sink is required")
	}
	if err := r.setup(ctx); err != nil {
		return Summary{}, err
	}

	errWriter, err := storage.NewJSONLWriter(r.cfg.ErrorsPath, false)
	if err != nil {
		return Summary{}, err
	}
	defer errWriter.Close()

	r.logger.Info("simulation start",
		zap.String("pool", r.cfg.Pool.Hex()),
		zap.String("ops", r.cfg.OpsPath),
		zap.Int("batch_size", r.cfg.BatchSize),
		zap.Uint64("sequence", r.recorder.Sequence()),
	)

	var summary Summary
	err = storage.ScanJSONL(r.cfg.OpsPath, func(lineNo int, line []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		summary.Operations++

		var op model.Operation
		if err := json.Unmarshal(line, &op); err != nil {
			summary.Failed++
			return errWriter.Write(model.OperationError{Line: lineNo, Error: err.Error()})
		}

		opErr := r.apply(op)
		expected := op.Expect != "" && opErr != nil && amm.ErrorReason(opErr) == op.Expect
		if op.Expect != "" && opErr == nil {
			opErr = fmt.Errorf("expected %s, operation succeeded", op.Expect)
		}
		switch {
		case expected:
			summary.ExpectedFailures++
		case opErr == nil:
			summary.Applied++
		default:
			summary.Failed++
			r.logger.Debug("operation failed", zap.Int("line", lineNo), zap.String("op", op.Op), zap.Error(opErr))
			if err := errWriter.Write(model.OperationError{Line: lineNo, Op: op.Op, Account: op.Account, Error: opErr.Error()}); err != nil {
				return err
			}
		}

		if r.recorder.Pending() >= r.cfg.BatchSize {
			n, err := r.flush(ctx)
			summary.Logs += n
			return err
		}
		return nil
	})
	if err != nil {
		return summary, err
	}

	n, err := r.flush(ctx)
	summary.Logs += n
	if err != nil {
		return summary, err
	}
	summary.Sequence = r.recorder.Sequence()

	if r.snapshots != nil {
		snap := snapshot.FromPool(r.pool.Snapshot(), summary.Sequence, r.clock())
		if err := r.snapshots.Save(ctx, snap); err != nil {
			return summary, fmt.Errorf("save snapshot: %w", err)
		}
	}

	r1, r2 := r.pool.Reserves()
	r.logger.Info("simulation complete",
		zap.Int("operations", summary.Operations),
		zap.Int("applied", summary.Applied),
		zap.Int("expected_failures", summary.ExpectedFailures),
		zap.Int("failed", summary.Failed),
		zap.Int("logs", summary.Logs),
		zap.String("reserve1", amm.FormatUnits(r1)),
		zap.String("reserve2", amm.FormatUnits(r2)),
		zap.String("total_shares", amm.FormatUnits(r.pool.TotalShares())),
	)
	return summary, nil
}

// setup builds the ledgers and the pool, restoring the pool from the last
// snapshot when one exists. The restored pool's reserves are minted to the
// pool account so the ledgers reconcile.
func (r *Runner) setup(ctx context.Context) error {
	r.token1 = ledger.NewToken(r.cfg.Asset1, r.cfg.Symbol1)
	r.token2 = ledger.NewToken(r.cfg.Asset2, r.cfg.Symbol2)

	encoder, err := dex.NewEncoder(r.cfg.ChainID, r.cfg.Pool)
	if err != nil {
		return err
	}

	var (
		snap  model.PoolSnapshot
		found bool
	)
	if r.snapshots != nil {
		snap, found, err = r.snapshots.Load(ctx, r.cfg.Pool)
		if err != nil {
			return fmt.Errorf("load snapshot: %w", err)
		}
	}

	start := uint64(0)
	if found {
		start = snap.Sequence
	}
	r.recorder = dex.NewRecorder(encoder, start, r.logger)

	poolCfg := amm.Config{
		Address:  r.cfg.Pool,
		Asset1:   r.cfg.Asset1,
		Asset2:   r.cfg.Asset2,
		Ledger1:  r.token1,
		Ledger2:  r.token2,
		Params:   r.cfg.Params,
		Observer: r.recorder,
		Metrics:  r.metrics,
		Logger:   r.logger.Named("pool"),
		Clock:    r.clock,
	}

	if !found {
		r.pool, err = amm.NewPool(poolCfg)
		return err
	}

	state, err := snapshot.ToPool(snap)
	if err != nil {
		return fmt.Errorf("parse snapshot: %w", err)
	}
	if r.pool, err = amm.Restore(poolCfg, state); err != nil {
		return err
	}
	if err := r.token1.Mint(r.cfg.Pool, state.Reserve1); err != nil {
		return err
	}
	if err := r.token2.Mint(r.cfg.Pool, state.Reserve2); err != nil {
		return err
	}
	r.logger.Info("pool restored from snapshot",
		zap.Uint64("sequence", snap.Sequence),
		zap.String("reserve1", state.Reserve1.Dec()),
		zap.String("reserve2", state.Reserve2.Dec()),
	)
	return nil
}

// flush writes buffered logs to the sink and checks the pool against its
// ledgers.
func (r *Runner) flush(ctx context.Context) (int, error) {
	logs, encErr := r.recorder.Drain()
	if encErr != nil {
		return 0, fmt.Errorf("encode pool logs: %w", encErr)
	}
	if len(logs) > 0 {
		policy := retry.Policy{
			MaxRetries: r.cfg.MaxRetries,
			Backoff:    r.cfg.RetryBackoff,
			Notify: func(attempt int, err error, wait time.Duration) {
				r.logger.Warn("store logs failed, retrying",
					zap.Int("attempt", attempt), zap.Duration("wait", wait), zap.Error(err))
			},
		}
		err := policy.Do(ctx, func(context.Context) error {
			return r.sink.PutLogBatch(logs)
		})
		if err != nil {
			return 0, fmt.Errorf("store logs: %w", err)
		}
	}
	if err := r.pool.Reconcile(); err != nil {
		return len(logs), err
	}
	r.logger.Debug("batch stored", zap.Int("logs", len(logs)), zap.Uint64("sequence", r.recorder.Sequence()))
	return len(logs), nil
}
