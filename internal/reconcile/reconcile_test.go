package reconcile

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"ammPool/internal/amm"
	"ammPool/internal/dex"
	"ammPool/internal/model"
)

var (
	pool   = common.HexToAddress("0x000000000000000000000000000000000000f001")
	asset1 = common.HexToAddress("0x000000000000000000000000000000000000a001")
	asset2 = common.HexToAddress("0x000000000000000000000000000000000000a002")
)

type call struct {
	to       common.Address
	selector []byte
	out      []byte
}

type fakeChain struct {
	calls []call
	// failing answers every call with this selector with failErr.
	failing []byte
	failErr error
}

func (f *fakeChain) set(t *testing.T, to common.Address, parsed abi.ABI, method string, values ...interface{}) {
	t.Helper()
	out, err := parsed.Methods[method].Outputs.Pack(values...)
	if err != nil {
		t.Fatalf("pack %s: %v", method, err)
	}
	f.calls = append(f.calls, call{to: to, selector: parsed.Methods[method].ID, out: out})
}

func (f *fakeChain) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if f.failing != nil && bytes.Equal(msg.Data[:4], f.failing) {
		return nil, f.failErr
	}
	for _, c := range f.calls {
		if *msg.To == c.to && bytes.Equal(msg.Data[:4], c.selector) {
			return c.out, nil
		}
	}
	return nil, errors.New("execution reverted")
}

func newChain(t *testing.T, balance2 *big.Int) *fakeChain {
	t.Helper()
	poolABI, err := dex.PoolABI()
	if err != nil {
		t.Fatalf("pool abi: %v", err)
	}
	erc20, err := dex.ERC20ABI()
	if err != nil {
		t.Fatalf("erc20 abi: %v", err)
	}

	r1, r2 := amm.Units(100), amm.Units(400)
	quote, err := amm.QuoteSwap(amm.Units(10), r1, r2, true)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}

	chain := &fakeChain{}
	chain.set(t, pool, poolABI, "token1", asset1)
	chain.set(t, pool, poolABI, "token2", asset2)
	chain.set(t, pool, poolABI, "token1Balance", r1.ToBig())
	chain.set(t, pool, poolABI, "token2Balance", r2.ToBig())
	chain.set(t, pool, poolABI, "totalShares", amm.Units(100).ToBig())
	chain.set(t, pool, poolABI, "calculateToken1Swap", quote.ToBig())
	chain.set(t, pool, poolABI, "calculateToken2Swap", big.NewInt(1))
	chain.set(t, asset1, erc20, "balanceOf", r1.ToBig())
	chain.set(t, asset2, erc20, "balanceOf", balance2)
	return chain
}

func TestCheckConsistentPool(t *testing.T) {
	chain := newChain(t, amm.Units(400).ToBig())
	snap := &model.PoolSnapshot{
		Reserve1:    amm.Units(100).Dec(),
		Reserve2:    amm.Units(400).Dec(),
		TotalShares: amm.Units(100).Dec(),
	}

	report, err := Check(context.Background(), chain, pool, Options{Snapshot: snap}, nil)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if err := report.Err(); err != nil {
		t.Fatalf("unexpected mismatches: %v", report.Mismatches)
	}
	if report.Asset1 != asset1.Hex() || report.Balance2 != amm.Units(400).Dec() {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestCheckReportsMismatches(t *testing.T) {
	chain := newChain(t, amm.Units(399).ToBig())
	opts := Options{
		Probes:     []*uint256.Int{amm.Units(10)},
		DrainGuard: true,
		Snapshot:   &model.PoolSnapshot{Reserve1: "1", Reserve2: amm.Units(400).Dec(), TotalShares: amm.Units(100).Dec()},
	}

	report, err := Check(context.Background(), chain, pool, opts, nil)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !errors.Is(report.Err(), ErrMismatch) {
		t.Fatalf("expected ErrMismatch, got %v", report.Err())
	}
	if len(report.Quotes) != 2 || !report.Quotes[0].Match || report.Quotes[1].Match {
		t.Fatalf("unexpected quotes: %+v", report.Quotes)
	}
	// asset2 balance, snapshot reserve1 and the 2_for_1 quote.
	if len(report.Mismatches) != 3 {
		t.Fatalf("expected 3 mismatches, got %v", report.Mismatches)
	}
	if !strings.Contains(report.Mismatches[0], "asset2 balance") {
		t.Fatalf("unexpected first mismatch: %s", report.Mismatches[0])
	}
}

func TestCheckFailsWhenPoolUnreadable(t *testing.T) {
	if _, err := Check(context.Background(), &fakeChain{}, pool, Options{}, nil); err == nil {
		t.Fatalf("expected error for unreadable pool")
	}
}

func TestCheckAbortsOnQuoteReadFailure(t *testing.T) {
	poolABI, err := dex.PoolABI()
	if err != nil {
		t.Fatalf("pool abi: %v", err)
	}
	chain := newChain(t, amm.Units(400).ToBig())
	chain.failing = poolABI.Methods["calculateToken2Swap"].ID
	chain.failErr = errors.New("read tcp 127.0.0.1:8545: i/o timeout")

	opts := Options{Probes: []*uint256.Int{amm.Units(10)}, DrainGuard: true}
	if _, err := Check(context.Background(), chain, pool, opts, nil); err == nil || !strings.Contains(err.Error(), "i/o timeout") {
		t.Fatalf("expected quote read failure, got %v", err)
	}

	chain.failErr = errors.New("execution reverted")
	report, err := Check(context.Background(), chain, pool, opts, nil)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(report.Quotes) != 2 || report.Quotes[1].Contract != "reverted" || report.Quotes[1].Match {
		t.Fatalf("unexpected quotes: %+v", report.Quotes)
	}
}
