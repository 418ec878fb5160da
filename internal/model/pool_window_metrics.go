package model

import "time"

// PoolWindowMetrics stores aggregated metrics for a pool window.
// Volumes and reserves are decimal strings scaled by the asset decimals.
type PoolWindowMetrics struct {
	ChainID          uint64
	PoolAddress      string
	WindowSizeSecs   int64
	WindowStart      time.Time
	WindowEnd        time.Time
	SwapCount        uint64
	DepositCount     uint64
	WithdrawCount    uint64
	Volume1          string
	Volume2          string
	Reserve1Close    string
	Reserve2Close    string
	TotalSharesClose *string
	PriceClose       *string
	LastBlock        uint64
}
