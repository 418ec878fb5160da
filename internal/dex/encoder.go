package dex

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"

	"ammPool/internal/amm"
	"ammPool/internal/model"
)

// Encoder turns pool notifications into the logs the pool contract would
// emit, so simulated runs feed the same decode and aggregate pipeline as
// indexed chains.
type Encoder struct {
	chainID uint64
	pool    common.Address
	poolABI abi.ABI
	now     func() time.Time
}

// NewEncoder returns an encoder for the pool at address.
func NewEncoder(chainID uint64, pool common.Address) (*Encoder, error) {
	poolABI, err := PoolABI()
	if err != nil {
		return nil, fmt.Errorf("parse pool abi: %w", err)
	}
	return &Encoder{chainID: chainID, pool: pool, poolABI: poolABI, now: time.Now}, nil
}

// EncodeSwap builds the Swap log for ev. The sequence number stands in for
// the block number.
func (e *Encoder) EncodeSwap(ev amm.SwapEvent, seq uint64) (model.LogRecord, error) {
	event := e.poolABI.Events[model.EventSwap]
	ts := unixSeconds(ev.Timestamp)
	data, err := event.Inputs.NonIndexed().Pack(
		ev.Initiator,
		ev.AssetIn,
		toBig(ev.AmountIn),
		ev.AssetOut,
		toBig(ev.AmountOut),
		toBig(ev.Reserve1After),
		toBig(ev.Reserve2After),
		new(big.Int).SetUint64(ts),
	)
	if err != nil {
		return model.LogRecord{}, fmt.Errorf("pack swap: %w", err)
	}
	return e.record(seq, ts, []string{event.ID.Hex()}, data), nil
}

// EncodeLiquidity builds the Deposit or Withdraw log for ev.
func (e *Encoder) EncodeLiquidity(ev amm.LiquidityEvent, seq uint64) (model.LogRecord, error) {
	name := ev.Kind.String()
	event, ok := e.poolABI.Events[name]
	if !ok {
		return model.LogRecord{}, fmt.Errorf("unknown liquidity kind %d", ev.Kind)
	}
	ts := unixSeconds(ev.Timestamp)
	data, err := event.Inputs.NonIndexed().Pack(
		toBig(ev.Amount1),
		toBig(ev.Amount2),
		toBig(ev.Shares),
		toBig(ev.Reserve1After),
		toBig(ev.Reserve2After),
		toBig(ev.TotalShares),
		new(big.Int).SetUint64(ts),
	)
	if err != nil {
		return model.LogRecord{}, fmt.Errorf("pack %s: %w", name, err)
	}
	topics := []string{
		event.ID.Hex(),
		common.BytesToHash(ev.Provider.Bytes()).Hex(),
	}
	return e.record(seq, ts, topics, data), nil
}

func (e *Encoder) record(seq, ts uint64, topics []string, data []byte) model.LogRecord {
	return model.LogRecord{
		ChainID:     e.chainID,
		BlockNumber: seq,
		Address:     e.pool.Hex(),
		Topics:      topics,
		Data:        hexutil.Encode(data),
		Timestamp:   ts,
		IngestedAt:  e.now().UTC().Format(time.RFC3339),
	}
}

func toBig(v *uint256.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v.ToBig()
}

func unixSeconds(t time.Time) uint64 {
	if t.IsZero() || t.Unix() < 0 {
		return 0
	}
	return uint64(t.Unix())
}
