package amm

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// SwapEvent is emitted after every successful swap. Field order is part of
// the compatibility surface for indexers and must not change.
type SwapEvent struct {
	Initiator     common.Address
	AssetIn       common.Address
	AmountIn      *uint256.Int
	AssetOut      common.Address
	AmountOut     *uint256.Int
	Reserve1After *uint256.Int
	Reserve2After *uint256.Int
	Timestamp     time.Time
}

// LiquidityKind distinguishes deposits from withdrawals.
type LiquidityKind uint8

const (
	LiquidityDeposit LiquidityKind = iota + 1
	LiquidityWithdraw
)

func (k LiquidityKind) String() string {
	switch k {
	case LiquidityDeposit:
		return "Deposit"
	case LiquidityWithdraw:
		return "Withdraw"
	default:
		return "Unknown"
	}
}

// LiquidityEvent is emitted after every successful deposit or withdrawal.
type LiquidityEvent struct {
	Kind          LiquidityKind
	Provider      common.Address
	Amount1       *uint256.Int
	Amount2       *uint256.Int
	Shares        *uint256.Int
	Reserve1After *uint256.Int
	Reserve2After *uint256.Int
	TotalShares   *uint256.Int
	Timestamp     time.Time
}

// Observer receives pool notifications. Implementations must not call back
// into a mutating pool operation.
type Observer interface {
	ObserveSwap(SwapEvent)
	ObserveLiquidity(LiquidityEvent)
}

type nopObserver struct{}

func (nopObserver) ObserveSwap(SwapEvent)           {}
func (nopObserver) ObserveLiquidity(LiquidityEvent) {}
