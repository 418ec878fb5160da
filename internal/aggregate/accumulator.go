package aggregate

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"ammPool/internal/model"
)

// Accumulator holds aggregate values for one pool window.
type Accumulator struct {
	ChainID       uint64
	PoolAddress   string
	PoolMeta      model.PoolMeta
	WindowStart   uint64
	WindowEnd     uint64
	SwapCount     uint64
	DepositCount  uint64
	WithdrawCount uint64
	Volume1       *big.Int
	Volume2       *big.Int
	Reserve1      *big.Int
	Reserve2      *big.Int
	// TotalShares is nil until a liquidity event is seen for the pool.
	TotalShares *big.Int
	LastBlock   uint64
	LastLog     uint64
	FirstBlock  uint64
}

func NewAccumulator(record model.PoolEventRecord, windowStart, windowEnd uint64) *Accumulator {
	return &Accumulator{
		ChainID:     record.ChainID,
		PoolAddress: record.Address,
		PoolMeta:    record.PoolMeta,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		Volume1:     big.NewInt(0),
		Volume2:     big.NewInt(0),
		FirstBlock:  record.BlockNumber,
	}
}

// AddEvent folds one decoded pool event into the window. Closing reserves
// follow the latest event by block and log index.
func (a *Accumulator) AddEvent(record model.PoolEventRecord) error {
	if a.FirstBlock == 0 || record.BlockNumber < a.FirstBlock {
		a.FirstBlock = record.BlockNumber
	}
	latest := a.Reserve1 == nil || record.BlockNumber > a.LastBlock ||
		(record.BlockNumber == a.LastBlock && record.LogIndex >= a.LastLog)

	var reserve1, reserve2, totalShares string
	switch strings.ToLower(record.EventName) {
	case "swap":
		var swap model.SwapEventData
		if err := json.Unmarshal(record.Decoded, &swap); err != nil {
			return fmt.Errorf("decode swap: %w", err)
		}
		if err := a.applySwap(swap); err != nil {
			return err
		}
		reserve1, reserve2 = swap.Reserve1After, swap.Reserve2After
	case "deposit", "withdraw":
		var liq model.LiquidityEventData
		if err := json.Unmarshal(record.Decoded, &liq); err != nil {
			return fmt.Errorf("decode %s: %w", strings.ToLower(record.EventName), err)
		}
		if strings.EqualFold(record.EventName, model.EventDeposit) {
			a.DepositCount++
		} else {
			a.WithdrawCount++
		}
		reserve1, reserve2, totalShares = liq.Reserve1After, liq.Reserve2After, liq.TotalShares
	default:
		return nil
	}

	if !latest {
		return nil
	}
	r1, err := parseBigInt(reserve1)
	if err != nil {
		return err
	}
	r2, err := parseBigInt(reserve2)
	if err != nil {
		return err
	}
	a.Reserve1, a.Reserve2 = r1, r2
	if totalShares != "" {
		if a.TotalShares, err = parseBigInt(totalShares); err != nil {
			return err
		}
	}
	a.LastBlock, a.LastLog = record.BlockNumber, record.LogIndex
	return nil
}

// applySwap counts both legs of a swap toward the volume of their asset.
func (a *Accumulator) applySwap(swap model.SwapEventData) error {
	amountIn, err := parseBigInt(swap.AmountIn)
	if err != nil {
		return err
	}
	amountOut, err := parseBigInt(swap.AmountOut)
	if err != nil {
		return err
	}

	if strings.EqualFold(swap.AssetIn, a.PoolMeta.Asset1) {
		a.Volume1.Add(a.Volume1, amountIn)
		a.Volume2.Add(a.Volume2, amountOut)
	} else {
		a.Volume2.Add(a.Volume2, amountIn)
		a.Volume1.Add(a.Volume1, amountOut)
	}
	a.SwapCount++
	return nil
}

func parseBigInt(value string) (*big.Int, error) {
	if value == "" {
		return big.NewInt(0), nil
	}
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok || parsed.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount: %s", value)
	}
	return parsed, nil
}
