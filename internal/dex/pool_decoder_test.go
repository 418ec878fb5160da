package dex

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"ammPool/internal/amm"
	"ammPool/internal/ledger"
	"ammPool/internal/model"
)

var (
	testPool     = common.HexToAddress("0x000000000000000000000000000000000000f001")
	testAsset1   = common.HexToAddress("0x000000000000000000000000000000000000a001")
	testAsset2   = common.HexToAddress("0x000000000000000000000000000000000000a002")
	testProvider = common.HexToAddress("0x0000000000000000000000000000000000001001")
	testTrader   = common.HexToAddress("0x0000000000000000000000000000000000002001")
)

func newRecordedPool(t *testing.T) (*amm.Pool, *Recorder) {
	t.Helper()

	token1 := ledger.NewToken(testAsset1, "AAA")
	token2 := ledger.NewToken(testAsset2, "BBB")
	max := new(uint256.Int).SetAllOne()
	for _, account := range []common.Address{testProvider, testTrader} {
		for _, tok := range []*ledger.Token{token1, token2} {
			if err := tok.Mint(account, amm.Units(1_000)); err != nil {
				t.Fatalf("mint: %v", err)
			}
			tok.Approve(account, testPool, max)
		}
	}

	encoder, err := NewEncoder(31337, testPool)
	if err != nil {
		t.Fatalf("new encoder: %v", err)
	}
	rec := NewRecorder(encoder, 0, nil)
	pool, err := amm.NewPool(amm.Config{
		Address:  testPool,
		Asset1:   testAsset1,
		Asset2:   testAsset2,
		Ledger1:  token1,
		Ledger2:  token2,
		Observer: rec,
		Clock:    func() time.Time { return time.Unix(1_700_000_000, 0) },
	})
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	return pool, rec
}

func testDecodeContext() DecodeContext {
	cache := NewPoolMetaCache()
	cache.Set(testPool, model.PoolMeta{
		Asset1:    testAsset1.Hex(),
		Asset2:    testAsset2.Hex(),
		Symbol1:   "AAA",
		Symbol2:   "BBB",
		Decimals1: 18,
		Decimals2: 18,
	})
	return DecodeContext{Context: context.Background(), PoolMetaCache: cache}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	pool, rec := newRecordedPool(t)

	if _, err := pool.AddLiquidity(testProvider, amm.Units(100), amm.Units(400)); err != nil {
		t.Fatalf("add liquidity: %v", err)
	}
	out, err := pool.Swap1For2(testTrader, amm.Units(10))
	if err != nil {
		t.Fatalf("swap: %v", err)
	}
	if _, _, err := pool.RemoveLiquidity(testProvider, amm.Units(50)); err != nil {
		t.Fatalf("remove liquidity: %v", err)
	}

	logs, err := rec.Drain()
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(logs) != 3 {
		t.Fatalf("expected 3 logs, got %d", len(logs))
	}
	if rec.Pending() != 0 || rec.Sequence() != 3 {
		t.Fatalf("recorder not drained: pending=%d seq=%d", rec.Pending(), rec.Sequence())
	}

	decoder, err := NewPoolDecoder()
	if err != nil {
		t.Fatalf("new decoder: %v", err)
	}
	ctx := testDecodeContext()

	events := make([]*model.PoolEvent, 0, len(logs))
	for i, log := range logs {
		if log.BlockNumber != uint64(i+1) {
			t.Fatalf("log %d block number %d", i, log.BlockNumber)
		}
		if !decoder.CanDecode(log.Topic0()) {
			t.Fatalf("log %d topic0 not recognized: %s", i, log.Topic0())
		}
		ev, err := decoder.Decode(log, ctx)
		if err != nil {
			t.Fatalf("decode log %d: %v", i, err)
		}
		events = append(events, ev)
	}

	deposit, ok := events[0].Decoded.(model.LiquidityEventData)
	if !ok || events[0].EventName != model.EventDeposit {
		t.Fatalf("unexpected first event: %s %T", events[0].EventName, events[0].Decoded)
	}
	if deposit.Provider != testProvider.Hex() || deposit.Amount1 != amm.Units(100).Dec() ||
		deposit.Shares != amm.Units(100).Dec() || deposit.TotalShares != amm.Units(100).Dec() {
		t.Fatalf("unexpected deposit: %+v", deposit)
	}
	if deposit.Timestamp != 1_700_000_000 {
		t.Fatalf("unexpected timestamp: %d", deposit.Timestamp)
	}

	swap, ok := events[1].Decoded.(model.SwapEventData)
	if !ok {
		t.Fatalf("unexpected second event: %T", events[1].Decoded)
	}
	if swap.Initiator != testTrader.Hex() || swap.AssetIn != testAsset1.Hex() || swap.AssetOut != testAsset2.Hex() {
		t.Fatalf("unexpected swap parties: %+v", swap)
	}
	if swap.AmountIn != amm.Units(10).Dec() || swap.AmountOut != out.Dec() {
		t.Fatalf("unexpected swap amounts: %+v", swap)
	}
	if swap.Reserve1After != amm.Units(110).Dec() {
		t.Fatalf("unexpected reserve1 after swap: %s", swap.Reserve1After)
	}

	withdraw, ok := events[2].Decoded.(model.LiquidityEventData)
	if !ok || events[2].EventName != model.EventWithdraw {
		t.Fatalf("unexpected third event: %s %T", events[2].EventName, events[2].Decoded)
	}
	if withdraw.Shares != amm.Units(50).Dec() || withdraw.TotalShares != amm.Units(50).Dec() {
		t.Fatalf("unexpected withdraw: %+v", withdraw)
	}
	if events[2].PoolMeta.Symbol2 != "BBB" {
		t.Fatalf("pool meta not attached: %+v", events[2].PoolMeta)
	}
}

func TestDecodeRejectsMalformedLogs(t *testing.T) {
	decoder, err := NewPoolDecoder()
	if err != nil {
		t.Fatalf("new decoder: %v", err)
	}
	ctx := testDecodeContext()

	if decoder.CanDecode("") || decoder.CanDecode("0x1234") {
		t.Fatalf("unexpected topic accepted")
	}
	if _, err := decoder.Decode(model.LogRecord{Address: testPool.Hex()}, ctx); err == nil {
		t.Fatalf("expected error for missing topics")
	}

	swapTopic := decoder.Topics()[0].Hex()
	bad := model.LogRecord{Address: testPool.Hex(), Topics: []string{swapTopic}, Data: "0x00"}
	if _, err := decoder.Decode(bad, ctx); err == nil {
		t.Fatalf("expected error for truncated data")
	}

	unknown := model.LogRecord{
		Address: common.HexToAddress("0xbeef").Hex(),
		Topics:  []string{swapTopic},
		Data:    "0x",
	}
	if _, err := decoder.Decode(unknown, ctx); err == nil {
		t.Fatalf("expected error for pool without metadata")
	}
}
