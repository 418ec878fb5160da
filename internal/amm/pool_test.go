package amm_test

import (
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ammPool/internal/amm"
	"ammPool/internal/ledger"
)

var (
	poolAddr  = common.HexToAddress("0x000000000000000000000000000000000000f001")
	asset1    = common.HexToAddress("0x000000000000000000000000000000000000a001")
	asset2    = common.HexToAddress("0x000000000000000000000000000000000000a002")
	provider1 = common.HexToAddress("0x0000000000000000000000000000000000001001")
	provider2 = common.HexToAddress("0x0000000000000000000000000000000000001002")
	trader    = common.HexToAddress("0x0000000000000000000000000000000000002001")

	fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	maxUint  = new(uint256.Int).SetAllOne()
)

type recorder struct {
	swaps     []amm.SwapEvent
	liquidity []amm.LiquidityEvent
}

func (r *recorder) ObserveSwap(ev amm.SwapEvent)           { r.swaps = append(r.swaps, ev) }
func (r *recorder) ObserveLiquidity(ev amm.LiquidityEvent) { r.liquidity = append(r.liquidity, ev) }

type fixture struct {
	pool   *amm.Pool
	token1 *ledger.Token
	token2 *ledger.Token
	events *recorder
}

// newFixture funds every account with one million units of each asset and
// approves the pool for all of it.
func newFixture(t *testing.T, params amm.Params) *fixture {
	t.Helper()

	f := &fixture{
		token1: ledger.NewToken(asset1, "AAA"),
		token2: ledger.NewToken(asset2, "BBB"),
		events: &recorder{},
	}
	for _, account := range []common.Address{provider1, provider2, trader} {
		for _, tok := range []*ledger.Token{f.token1, f.token2} {
			require.NoError(t, tok.Mint(account, amm.Units(1_000_000)))
			tok.Approve(account, poolAddr, maxUint)
		}
	}

	pool, err := amm.NewPool(amm.Config{
		Address:  poolAddr,
		Asset1:   asset1,
		Asset2:   asset2,
		Ledger1:  f.token1,
		Ledger2:  f.token2,
		Params:   params,
		Observer: f.events,
		Metrics:  amm.NewMetrics(prometheus.NewRegistry()),
		Clock:    func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	f.pool = pool
	return f
}

func (f *fixture) requireConsistent(t *testing.T) {
	t.Helper()
	require.NoError(t, f.pool.Reconcile())

	snap := f.pool.Snapshot()
	require.NoError(t, snap.Validate())
}

// seed runs the first two scenario deposits: 100000/100000 then 50000/50000.
func (f *fixture) seed(t *testing.T) {
	t.Helper()
	_, err := f.pool.AddLiquidity(provider1, amm.Units(100_000), amm.Units(100_000))
	require.NoError(t, err)
	_, err = f.pool.AddLiquidity(provider2, amm.Units(50_000), amm.Units(50_000))
	require.NoError(t, err)
}

func TestNewPoolValidation(t *testing.T) {
	tok1 := ledger.NewToken(asset1, "AAA")
	tok2 := ledger.NewToken(asset2, "BBB")

	tests := []struct {
		name string
		cfg  amm.Config
	}{
		{"missing ledger", amm.Config{Address: poolAddr, Asset1: asset1, Asset2: asset2, Ledger1: tok1}},
		{"same assets", amm.Config{Address: poolAddr, Asset1: asset1, Asset2: asset1, Ledger1: tok1, Ledger2: tok2}},
		{"zero address", amm.Config{Asset1: asset1, Asset2: asset2, Ledger1: tok1, Ledger2: tok2}},
		{"zero divisor", amm.Config{Address: poolAddr, Asset1: asset1, Asset2: asset2, Ledger1: tok1, Ledger2: tok2,
			Params: amm.Params{ToleranceDivisor: new(uint256.Int)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := amm.NewPool(tt.cfg)
			require.Error(t, err)
		})
	}
}

func TestFirstDepositMintsInitialShares(t *testing.T) {
	f := newFixture(t, amm.DefaultParams())

	shares, err := f.pool.AddLiquidity(provider1, amm.Units(100_000), amm.Units(100_000))
	require.NoError(t, err)
	assert.Equal(t, amm.Units(100), shares)
	assert.Equal(t, amm.Units(100), f.pool.TotalShares())
	assert.Equal(t, amm.Units(100), f.pool.SharesOf(provider1))

	r1, r2 := f.pool.Reserves()
	assert.Equal(t, amm.Units(100_000), r1)
	assert.Equal(t, amm.Units(100_000), r2)
	f.requireConsistent(t)

	require.Len(t, f.events.liquidity, 1)
	ev := f.events.liquidity[0]
	assert.Equal(t, amm.LiquidityDeposit, ev.Kind)
	assert.Equal(t, provider1, ev.Provider)
	assert.Equal(t, amm.Units(100), ev.Shares)
	assert.Equal(t, fixedNow, ev.Timestamp)
}

func TestSecondDepositMintsProportionalShares(t *testing.T) {
	f := newFixture(t, amm.DefaultParams())
	_, err := f.pool.AddLiquidity(provider1, amm.Units(100_000), amm.Units(100_000))
	require.NoError(t, err)

	amount2, err := f.pool.QuoteDeposit2For1(amm.Units(50_000))
	require.NoError(t, err)
	assert.Equal(t, amm.Units(50_000), amount2)

	shares, err := f.pool.AddLiquidity(provider2, amm.Units(50_000), amount2)
	require.NoError(t, err)
	assert.Equal(t, amm.Units(50), shares)
	assert.Equal(t, amm.Units(150), f.pool.TotalShares())
	f.requireConsistent(t)
}

func TestUnbalancedDepositLeavesStateUntouched(t *testing.T) {
	f := newFixture(t, amm.DefaultParams())
	_, err := f.pool.AddLiquidity(provider1, amm.Units(100_000), amm.Units(100_000))
	require.NoError(t, err)
	before := f.pool.Snapshot()

	_, err = f.pool.AddLiquidity(provider2, amm.Units(50_000), amm.Units(40_000))
	require.ErrorIs(t, err, amm.ErrUnbalancedDeposit)

	assert.Equal(t, before, f.pool.Snapshot())
	assert.Equal(t, amm.Units(1_000_000), f.token1.BalanceOf(provider2))
	assert.Equal(t, amm.Units(1_000_000), f.token2.BalanceOf(provider2))
	f.requireConsistent(t)
}

func TestDepositWithinToleranceAccepted(t *testing.T) {
	f := newFixture(t, amm.DefaultParams())
	_, err := f.pool.AddLiquidity(provider1, amm.Units(100_000), amm.Units(100_000))
	require.NoError(t, err)

	// One extra raw unit of asset 2 changes share2 by less than the tolerance.
	amount2 := new(uint256.Int).AddUint64(amm.Units(1_000), 1)
	shares, err := f.pool.AddLiquidity(provider2, amm.Units(1_000), amount2)
	require.NoError(t, err)
	assert.Equal(t, amm.Units(1), shares)
	f.requireConsistent(t)
}

func TestZeroAmountsRejected(t *testing.T) {
	f := newFixture(t, amm.DefaultParams())

	_, err := f.pool.AddLiquidity(provider1, new(uint256.Int), amm.Units(1))
	require.ErrorIs(t, err, amm.ErrInvalidAmount)
	_, err = f.pool.AddLiquidity(provider1, amm.Units(1), nil)
	require.ErrorIs(t, err, amm.ErrInvalidAmount)

	f.seed(t)
	_, _, err = f.pool.RemoveLiquidity(provider1, new(uint256.Int))
	require.ErrorIs(t, err, amm.ErrInvalidAmount)
	_, err = f.pool.Swap1For2(trader, new(uint256.Int))
	require.ErrorIs(t, err, amm.ErrInvalidAmount)
}

func TestQuotesOnEmptyPool(t *testing.T) {
	f := newFixture(t, amm.DefaultParams())

	_, err := f.pool.QuoteDeposit2For1(amm.Units(1))
	require.ErrorIs(t, err, amm.ErrDivisionByEmptyPool)
	_, err = f.pool.QuoteDeposit1For2(amm.Units(1))
	require.ErrorIs(t, err, amm.ErrDivisionByEmptyPool)
	_, err = f.pool.QuoteSwap1For2(amm.Units(1))
	require.ErrorIs(t, err, amm.ErrPoolEmpty)
	_, err = f.pool.QuoteSwap2For1(amm.Units(1))
	require.ErrorIs(t, err, amm.ErrPoolEmpty)
	_, err = f.pool.Swap2For1(trader, amm.Units(1))
	require.ErrorIs(t, err, amm.ErrPoolEmpty)
}

func TestSwapMatchesQuote(t *testing.T) {
	f := newFixture(t, amm.DefaultParams())
	f.seed(t)

	r1, r2 := f.pool.Reserves()
	kBefore := new(uint256.Int).Mul(r1, r2)

	quote, err := f.pool.QuoteSwap1For2(amm.Units(1))
	require.NoError(t, err)
	again, err := f.pool.QuoteSwap1For2(amm.Units(1))
	require.NoError(t, err)
	assert.Equal(t, quote, again)

	out, err := f.pool.Swap1For2(trader, amm.Units(1))
	require.NoError(t, err)
	assert.Equal(t, quote, out)

	r1After, r2After := f.pool.Reserves()
	assert.Equal(t, new(uint256.Int).Add(r1, amm.Units(1)), r1After)
	assert.Equal(t, new(uint256.Int).Sub(r2, out), r2After)
	kAfter := new(uint256.Int).Mul(r1After, r2After)
	assert.True(t, !kAfter.Gt(kBefore), "k grew from %s to %s", kBefore.Dec(), kAfter.Dec())

	assert.Equal(t, new(uint256.Int).Add(amm.Units(1_000_000), out), f.token2.BalanceOf(trader))
	assert.Equal(t, new(uint256.Int).Sub(amm.Units(1_000_000), amm.Units(1)), f.token1.BalanceOf(trader))
	f.requireConsistent(t)

	require.Len(t, f.events.swaps, 1)
	assert.Equal(t, amm.SwapEvent{
		Initiator:     trader,
		AssetIn:       asset1,
		AmountIn:      amm.Units(1),
		AssetOut:      asset2,
		AmountOut:     out,
		Reserve1After: r1After,
		Reserve2After: r2After,
		Timestamp:     fixedNow,
	}, f.events.swaps[0])
}

func TestSwap2For1(t *testing.T) {
	f := newFixture(t, amm.DefaultParams())
	f.seed(t)

	quote, err := f.pool.QuoteSwap2For1(amm.Units(10))
	require.NoError(t, err)
	out, err := f.pool.Swap2For1(trader, amm.Units(10))
	require.NoError(t, err)
	assert.Equal(t, quote, out)

	r1, r2 := f.pool.Reserves()
	assert.Equal(t, new(uint256.Int).Sub(amm.Units(150_000), out), r1)
	assert.Equal(t, amm.Units(150_010), r2)
	f.requireConsistent(t)

	require.Len(t, f.events.swaps, 1)
	assert.Equal(t, asset2, f.events.swaps[0].AssetIn)
	assert.Equal(t, asset1, f.events.swaps[0].AssetOut)
}

func TestSwapTooLarge(t *testing.T) {
	t.Run("input overflows reserve", func(t *testing.T) {
		f := newFixture(t, amm.DefaultParams())
		f.seed(t)

		_, err := f.pool.QuoteSwap1For2(maxUint)
		require.ErrorIs(t, err, amm.ErrSwapTooLarge)
		_, err = f.pool.Swap1For2(trader, maxUint)
		require.ErrorIs(t, err, amm.ErrSwapTooLarge)
		f.requireConsistent(t)
	})

	t.Run("full drain without guard", func(t *testing.T) {
		params := amm.DefaultParams()
		params.DrainGuard = false
		f := newFixture(t, params)
		_, err := f.pool.AddLiquidity(provider1, uint256.NewInt(10), uint256.NewInt(10))
		require.NoError(t, err)

		// 10*10/110 truncates to zero, so the whole reserve would be paid out.
		_, err = f.pool.Swap1For2(trader, uint256.NewInt(100))
		require.ErrorIs(t, err, amm.ErrSwapTooLarge)
		f.requireConsistent(t)
	})

	t.Run("guard keeps one unit", func(t *testing.T) {
		f := newFixture(t, amm.DefaultParams())
		_, err := f.pool.AddLiquidity(provider1, uint256.NewInt(10), uint256.NewInt(10))
		require.NoError(t, err)

		out, err := f.pool.Swap1For2(trader, uint256.NewInt(100))
		require.NoError(t, err)
		assert.Equal(t, uint256.NewInt(9), out)

		_, r2 := f.pool.Reserves()
		assert.Equal(t, uint256.NewInt(1), r2)
		f.requireConsistent(t)
	})
}

func TestRemoveLiquidityPaysProRata(t *testing.T) {
	f := newFixture(t, amm.DefaultParams())
	f.seed(t)
	_, err := f.pool.Swap1For2(trader, amm.Units(1))
	require.NoError(t, err)

	r1, r2 := f.pool.Reserves()
	three := uint256.NewInt(3)
	want1 := new(uint256.Int).Div(r1, three)
	want2 := new(uint256.Int).Div(r2, three)

	amount1, amount2, err := f.pool.RemoveLiquidity(provider2, amm.Units(50))
	require.NoError(t, err)
	assert.Equal(t, want1, amount1)
	assert.Equal(t, want2, amount2)
	assert.Equal(t, amm.Units(100), f.pool.TotalShares())
	assert.True(t, f.pool.SharesOf(provider2).IsZero())
	_, held := f.pool.Snapshot().Shares[provider2]
	assert.False(t, held, "empty share balance should be dropped")
	f.requireConsistent(t)

	require.Len(t, f.events.liquidity, 3)
	assert.Equal(t, amm.LiquidityWithdraw, f.events.liquidity[2].Kind)
	assert.Equal(t, amm.Units(100), f.events.liquidity[2].TotalShares)
}

func TestRemoveAllLiquidityEmptiesPool(t *testing.T) {
	f := newFixture(t, amm.DefaultParams())
	f.seed(t)

	_, _, err := f.pool.RemoveLiquidity(provider1, amm.Units(100))
	require.NoError(t, err)
	_, _, err = f.pool.RemoveLiquidity(provider2, amm.Units(50))
	require.NoError(t, err)

	r1, r2 := f.pool.Reserves()
	assert.True(t, r1.IsZero())
	assert.True(t, r2.IsZero())
	assert.True(t, f.pool.TotalShares().IsZero())
	f.requireConsistent(t)

	// An emptied pool starts over with the initial mint.
	shares, err := f.pool.AddLiquidity(trader, amm.Units(3), amm.Units(7))
	require.NoError(t, err)
	assert.Equal(t, amm.Units(100), shares)
}

func TestRemoveLiquidityInsufficientShares(t *testing.T) {
	f := newFixture(t, amm.DefaultParams())
	f.seed(t)
	before := f.pool.Snapshot()

	_, _, err := f.pool.RemoveLiquidity(provider2, amm.Units(51))
	require.ErrorIs(t, err, amm.ErrInsufficientShares)
	_, _, err = f.pool.RemoveLiquidity(trader, amm.Units(1))
	require.ErrorIs(t, err, amm.ErrInsufficientShares)
	assert.Equal(t, before, f.pool.Snapshot())
}

type faultyLedger struct {
	amm.Ledger
	failTransfer     bool
	failTransferFrom bool
}

func (l *faultyLedger) Transfer(from, to common.Address, amount *uint256.Int) bool {
	if l.failTransfer {
		return false
	}
	return l.Ledger.Transfer(from, to, amount)
}

func (l *faultyLedger) TransferFrom(from, to common.Address, amount *uint256.Int) bool {
	if l.failTransferFrom {
		return false
	}
	return l.Ledger.TransferFrom(from, to, amount)
}

func newFaultyPool(t *testing.T, f *fixture, l1, l2 amm.Ledger) *amm.Pool {
	t.Helper()
	pool, err := amm.NewPool(amm.Config{
		Address: poolAddr,
		Asset1:  asset1,
		Asset2:  asset2,
		Ledger1: l1,
		Ledger2: l2,
		Params:  amm.DefaultParams(),
	})
	require.NoError(t, err)
	return pool
}

func TestFailedPullRollsBackDeposit(t *testing.T) {
	f := newFixture(t, amm.DefaultParams())
	pool := newFaultyPool(t, f, f.token1, &faultyLedger{Ledger: f.token2, failTransferFrom: true})

	_, err := pool.AddLiquidity(provider1, amm.Units(10), amm.Units(10))
	require.ErrorIs(t, err, amm.ErrTransferFailed)
	require.NotErrorIs(t, err, amm.ErrRollbackFailed)

	assert.Equal(t, amm.Units(1_000_000), f.token1.BalanceOf(provider1))
	assert.True(t, f.token1.BalanceOf(poolAddr).IsZero())
	assert.True(t, pool.TotalShares().IsZero())
	require.NoError(t, pool.Reconcile())
}

func TestFailedPushRefundsSwapInput(t *testing.T) {
	f := newFixture(t, amm.DefaultParams())
	token2 := &faultyLedger{Ledger: f.token2}
	pool := newFaultyPool(t, f, f.token1, token2)
	_, err := pool.AddLiquidity(provider1, amm.Units(1_000), amm.Units(1_000))
	require.NoError(t, err)
	before := pool.Snapshot()

	token2.failTransfer = true
	_, err = pool.Swap1For2(trader, amm.Units(5))
	require.ErrorIs(t, err, amm.ErrTransferFailed)

	assert.Equal(t, before, pool.Snapshot())
	assert.Equal(t, amm.Units(1_000_000), f.token1.BalanceOf(trader))
	require.NoError(t, pool.Reconcile())
}

func TestFailedPushRevertsEarlierPush(t *testing.T) {
	f := newFixture(t, amm.DefaultParams())
	token2 := &faultyLedger{Ledger: f.token2}
	pool := newFaultyPool(t, f, f.token1, token2)
	_, err := pool.AddLiquidity(provider1, amm.Units(1_000), amm.Units(1_000))
	require.NoError(t, err)

	token2.failTransfer = true
	_, _, err = pool.RemoveLiquidity(provider1, amm.Units(10))
	require.ErrorIs(t, err, amm.ErrTransferFailed)

	assert.Equal(t, amm.Units(100), pool.SharesOf(provider1))
	assert.Equal(t, new(uint256.Int).Sub(amm.Units(1_000_000), amm.Units(1_000)), f.token1.BalanceOf(provider1))
	require.NoError(t, pool.Reconcile())
}

// exactDeposit approves exactly one deposit of amount per asset and makes it,
// leaving provider1 with no allowance for the pool.
func exactDeposit(t *testing.T, f *fixture, pool *amm.Pool, amount *uint256.Int) {
	t.Helper()
	f.token1.Approve(provider1, poolAddr, amount)
	f.token2.Approve(provider1, poolAddr, amount)
	_, err := pool.AddLiquidity(provider1, amount, amount)
	require.NoError(t, err)
	require.True(t, f.token1.Allowance(provider1, poolAddr).IsZero())
	require.True(t, f.token2.Allowance(provider1, poolAddr).IsZero())
}

func TestWithdrawalShortfallLeavesNothingBehind(t *testing.T) {
	f := newFixture(t, amm.DefaultParams())
	exactDeposit(t, f, f.pool, amm.Units(1_000))
	before := f.pool.Snapshot()

	// Move most of the pool's asset 2 away so the payout cannot be covered.
	require.True(t, f.token2.Transfer(poolAddr, trader, amm.Units(950)))

	_, _, err := f.pool.RemoveLiquidity(provider1, amm.Units(10))
	require.ErrorIs(t, err, amm.ErrTransferFailed)
	require.NotErrorIs(t, err, amm.ErrRollbackFailed)

	assert.Equal(t, before, f.pool.Snapshot())
	assert.Equal(t, amm.Units(100), f.pool.SharesOf(provider1))
	assert.Equal(t, amm.Units(1_000), f.token1.BalanceOf(poolAddr))
	assert.Equal(t, new(uint256.Int).Sub(amm.Units(1_000_000), amm.Units(1_000)), f.token1.BalanceOf(provider1))
	assert.Len(t, f.events.liquidity, 1)

	// With the balance restored the same withdrawal needs no allowance.
	require.True(t, f.token2.Transfer(trader, poolAddr, amm.Units(950)))
	f.requireConsistent(t)
	amount1, amount2, err := f.pool.RemoveLiquidity(provider1, amm.Units(10))
	require.NoError(t, err)
	assert.Equal(t, amm.Units(100), amount1)
	assert.Equal(t, amm.Units(100), amount2)
	f.requireConsistent(t)
}

func TestSwapShortfallKeepsInput(t *testing.T) {
	f := newFixture(t, amm.DefaultParams())
	_, err := f.pool.AddLiquidity(provider1, amm.Units(1_000), amm.Units(1_000))
	require.NoError(t, err)
	before := f.pool.Snapshot()

	require.True(t, f.token2.Transfer(poolAddr, provider2, amm.Units(999)))

	_, err = f.pool.Swap1For2(trader, amm.Units(100))
	require.ErrorIs(t, err, amm.ErrTransferFailed)
	assert.Equal(t, before, f.pool.Snapshot())
	assert.Equal(t, amm.Units(1_000_000), f.token1.BalanceOf(trader))
	assert.Equal(t, amm.Units(1_000), f.token1.BalanceOf(poolAddr))
	assert.Empty(t, f.events.swaps)
}

func TestRefusedPushWithoutAllowanceReported(t *testing.T) {
	f := newFixture(t, amm.DefaultParams())
	token2 := &faultyLedger{Ledger: f.token2}
	pool := newFaultyPool(t, f, f.token1, token2)
	exactDeposit(t, f, pool, amm.Units(1_000))

	// The balances cover the payout, but the asset 2 ledger refuses it and
	// the asset 1 payout cannot be pulled back without an allowance.
	token2.failTransfer = true
	_, _, err := pool.RemoveLiquidity(provider1, amm.Units(10))
	require.ErrorIs(t, err, amm.ErrTransferFailed)
	require.ErrorIs(t, err, amm.ErrRollbackFailed)

	assert.Equal(t, amm.Units(100), pool.SharesOf(provider1))
	require.ErrorIs(t, pool.Reconcile(), amm.ErrLedgerMismatch)
}

func TestFailedCompensationReported(t *testing.T) {
	f := newFixture(t, amm.DefaultParams())
	pool := newFaultyPool(t, f,
		&faultyLedger{Ledger: f.token1, failTransfer: true},
		&faultyLedger{Ledger: f.token2, failTransferFrom: true},
	)

	_, err := pool.AddLiquidity(provider1, amm.Units(10), amm.Units(10))
	require.ErrorIs(t, err, amm.ErrTransferFailed)
	require.ErrorIs(t, err, amm.ErrRollbackFailed)
	assert.True(t, pool.TotalShares().IsZero())

	// The stranded pull is now visible as a ledger mismatch.
	require.ErrorIs(t, pool.Reconcile(), amm.ErrLedgerMismatch)
}

type reentrantObserver struct {
	pool      *amm.Pool
	nestedErr error
	reserve1  *uint256.Int
}

func (o *reentrantObserver) ObserveSwap(amm.SwapEvent) {
	o.reserve1, _ = o.pool.Reserves()
	_, o.nestedErr = o.pool.Swap1For2(trader, amm.Units(1))
}

func (o *reentrantObserver) ObserveLiquidity(amm.LiquidityEvent) {}

func TestNestedCallRejected(t *testing.T) {
	f := newFixture(t, amm.DefaultParams())
	obs := &reentrantObserver{}
	pool, err := amm.NewPool(amm.Config{
		Address:  poolAddr,
		Asset1:   asset1,
		Asset2:   asset2,
		Ledger1:  f.token1,
		Ledger2:  f.token2,
		Observer: obs,
	})
	require.NoError(t, err)
	obs.pool = pool

	_, err = pool.AddLiquidity(provider1, amm.Units(1_000), amm.Units(1_000))
	require.NoError(t, err)
	_, err = pool.Swap1For2(trader, amm.Units(2))
	require.NoError(t, err)

	require.ErrorIs(t, obs.nestedErr, amm.ErrPoolBusy)
	assert.Equal(t, amm.Units(1_002), obs.reserve1)
	require.NoError(t, pool.Reconcile())

	// The guard is released once the outer call returns.
	_, _, err = pool.RemoveLiquidity(provider1, amm.Units(1))
	require.NoError(t, err)
}

func TestSnapshotRestore(t *testing.T) {
	f := newFixture(t, amm.DefaultParams())
	f.seed(t)
	_, err := f.pool.Swap2For1(trader, amm.Units(3))
	require.NoError(t, err)
	snap := f.pool.Snapshot()

	restored, err := amm.Restore(amm.Config{
		Address: poolAddr,
		Asset1:  asset1,
		Asset2:  asset2,
		Ledger1: f.token1,
		Ledger2: f.token2,
	}, snap)
	require.NoError(t, err)
	assert.Equal(t, snap, restored.Snapshot())
	require.NoError(t, restored.Reconcile())

	q1, err := f.pool.QuoteSwap1For2(amm.Units(7))
	require.NoError(t, err)
	q2, err := restored.QuoteSwap1For2(amm.Units(7))
	require.NoError(t, err)
	assert.Equal(t, q1, q2)
}

func TestRestoreRejectsBrokenSnapshot(t *testing.T) {
	f := newFixture(t, amm.DefaultParams())
	f.seed(t)
	cfg := amm.Config{Address: poolAddr, Asset1: asset1, Asset2: asset2, Ledger1: f.token1, Ledger2: f.token2}

	snap := f.pool.Snapshot()
	snap.Shares[provider1] = amm.Units(99)
	_, err := amm.Restore(cfg, snap)
	require.ErrorIs(t, err, amm.ErrInvalidSnapshot)

	snap = f.pool.Snapshot()
	snap.Reserve2 = new(uint256.Int)
	_, err = amm.Restore(cfg, snap)
	require.ErrorIs(t, err, amm.ErrInvalidSnapshot)

	snap = f.pool.Snapshot()
	snap.Asset1 = asset2
	_, err = amm.Restore(cfg, snap)
	require.True(t, errors.Is(err, amm.ErrInvalidSnapshot))
}
