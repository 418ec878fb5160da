// Package reconcile compares a deployed pool contract with its token
// balances, a local snapshot and the local pricing rules.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"ammPool/internal/amm"
	"ammPool/internal/dex"
	"ammPool/internal/model"
)

// ErrMismatch marks a report with at least one failed check.
var ErrMismatch = errors.New("pool state mismatch")

// Options selects the checks to run.
type Options struct {
	// Block pins every read; nil reads the latest state.
	Block *big.Int
	// Probes are swap inputs quoted by both the contract and the local math.
	Probes     []*uint256.Int
	DrainGuard bool
	// Snapshot, when set, is compared with the contract state.
	Snapshot *model.PoolSnapshot
}

// QuoteCheck is one swap probe.
type QuoteCheck struct {
	Direction string `json:"direction"`
	AmountIn  string `json:"amount_in"`
	Contract  string `json:"contract"`
	Local     string `json:"local"`
	Match     bool   `json:"match"`
}

// Report is the outcome of Check.
type Report struct {
	Pool        string       `json:"pool"`
	Asset1      string       `json:"asset1"`
	Asset2      string       `json:"asset2"`
	Reserve1    string       `json:"reserve1"`
	Reserve2    string       `json:"reserve2"`
	TotalShares string       `json:"total_shares"`
	Balance1    string       `json:"balance1"`
	Balance2    string       `json:"balance2"`
	Quotes      []QuoteCheck `json:"quotes,omitempty"`
	Mismatches  []string     `json:"mismatches,omitempty"`
}

// Err returns ErrMismatch with the failed checks, or nil.
func (r Report) Err() error {
	if len(r.Mismatches) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d check(s) failed", ErrMismatch, len(r.Mismatches))
}

// Check reads pool and token state through caller and runs the checks in
// opts. Read failures abort the check; disagreements are reported. A
// contract quote that reverts is compared against the local pricing error.
func Check(ctx context.Context, caller dex.Caller, pool common.Address, opts Options, logger *zap.Logger) (Report, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	asset1, asset2, err := dex.FetchPoolAssets(ctx, caller, pool)
	if err != nil {
		return Report{}, err
	}
	state, err := dex.FetchPoolState(ctx, caller, pool, opts.Block)
	if err != nil {
		return Report{}, err
	}
	balance1, err := dex.FetchTokenBalance(ctx, caller, asset1, pool, opts.Block)
	if err != nil {
		return Report{}, fmt.Errorf("asset1 balance: %w", err)
	}
	balance2, err := dex.FetchTokenBalance(ctx, caller, asset2, pool, opts.Block)
	if err != nil {
		return Report{}, fmt.Errorf("asset2 balance: %w", err)
	}

	report := Report{
		Pool:        pool.Hex(),
		Asset1:      asset1.Hex(),
		Asset2:      asset2.Hex(),
		Reserve1:    state.Reserve1.String(),
		Reserve2:    state.Reserve2.String(),
		TotalShares: state.TotalShares.String(),
		Balance1:    balance1.String(),
		Balance2:    balance2.String(),
	}

	if balance1.Cmp(state.Reserve1) != 0 {
		report.mismatch("asset1 balance %s != reserve %s", report.Balance1, report.Reserve1)
	}
	if balance2.Cmp(state.Reserve2) != 0 {
		report.mismatch("asset2 balance %s != reserve %s", report.Balance2, report.Reserve2)
	}
	if (state.Reserve1.Sign() == 0) != (state.TotalShares.Sign() == 0) || (state.Reserve2.Sign() == 0) != (state.TotalShares.Sign() == 0) {
		report.mismatch("reserves %s/%s with %s shares", report.Reserve1, report.Reserve2, report.TotalShares)
	}

	if opts.Snapshot != nil {
		compareSnapshot(&report, *opts.Snapshot)
	}

	if len(opts.Probes) > 0 {
		r1, overflow1 := uint256.FromBig(state.Reserve1)
		r2, overflow2 := uint256.FromBig(state.Reserve2)
		if overflow1 || overflow2 {
			return Report{}, fmt.Errorf("reserves exceed 256 bits")
		}
		for _, probe := range opts.Probes {
			for _, oneForTwo := range []bool{true, false} {
				check, err := compareQuote(ctx, caller, pool, probe, r1, r2, oneForTwo, opts)
				if err != nil {
					return Report{}, fmt.Errorf("%s quote for %s: %w", check.Direction, check.AmountIn, err)
				}
				if !check.Match {
					report.mismatch("%s quote for %s: contract %s, local %s", check.Direction, check.AmountIn, check.Contract, check.Local)
				}
				report.Quotes = append(report.Quotes, check)
			}
		}
	}

	logger.Info("reconcile complete",
		zap.String("pool", report.Pool),
		zap.String("reserve1", report.Reserve1),
		zap.String("reserve2", report.Reserve2),
		zap.Int("quotes", len(report.Quotes)),
		zap.Int("mismatches", len(report.Mismatches)),
	)
	return report, nil
}

func (r *Report) mismatch(format string, args ...interface{}) {
	r.Mismatches = append(r.Mismatches, fmt.Sprintf(format, args...))
}

func compareSnapshot(report *Report, snap model.PoolSnapshot) {
	fields := []struct {
		name, local, chain string
	}{
		{"reserve1", snap.Reserve1, report.Reserve1},
		{"reserve2", snap.Reserve2, report.Reserve2},
		{"total_shares", snap.TotalShares, report.TotalShares},
	}
	for _, f := range fields {
		if f.local != f.chain {
			report.mismatch("snapshot %s %s != contract %s", f.name, f.local, f.chain)
		}
	}
}

func compareQuote(ctx context.Context, caller dex.Caller, pool common.Address, amountIn, r1, r2 *uint256.Int, oneForTwo bool, opts Options) (QuoteCheck, error) {
	check := QuoteCheck{Direction: "1_for_2", AmountIn: amountIn.Dec()}
	reserveIn, reserveOut := r1, r2
	if !oneForTwo {
		check.Direction = "2_for_1"
		reserveIn, reserveOut = r2, r1
	}

	contract, callErr := dex.FetchSwapQuote(ctx, caller, pool, oneForTwo, amountIn.ToBig(), opts.Block)
	if callErr != nil && !dex.IsRevert(callErr) {
		return check, callErr
	}
	// A reverted contract quote matches a local pricing error.
	local, localErr := amm.QuoteSwap(amountIn, reserveIn, reserveOut, opts.DrainGuard)

	check.Contract = "reverted"
	if callErr == nil {
		check.Contract = contract.String()
	}
	check.Local = "error: " + amm.ErrorReason(localErr)
	if localErr == nil {
		check.Local = local.Dec()
	}
	check.Match = (callErr != nil && localErr != nil) || (callErr == nil && localErr == nil && check.Local == check.Contract)
	return check, nil
}
