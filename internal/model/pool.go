package model

import "time"

// Pool is a pool registry row.
type Pool struct {
	ChainID        uint64 `json:"chain_id"`
	Address        string `json:"address"`
	Asset1         string `json:"asset1"`
	Asset2         string `json:"asset2"`
	FirstSeenBlock uint64 `json:"first_seen_block"`
}

// PoolMeta describes the two assets of a pool.
type PoolMeta struct {
	Asset1    string `json:"asset1"`
	Asset2    string `json:"asset2"`
	Symbol1   string `json:"symbol1,omitempty"`
	Symbol2   string `json:"symbol2,omitempty"`
	Decimals1 uint8  `json:"decimals1"`
	Decimals2 uint8  `json:"decimals2"`
}

// TokenMeta captures ERC20 metadata.
type TokenMeta struct {
	Address  string `json:"address"`
	Decimals uint8  `json:"decimals"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
}

// PoolSnapshot is the persisted form of a pool's accounting state.
// Amounts are base-10 strings of raw 18-decimal integers.
type PoolSnapshot struct {
	Address     string            `json:"address"`
	Asset1      string            `json:"asset1"`
	Asset2      string            `json:"asset2"`
	Reserve1    string            `json:"reserve1"`
	Reserve2    string            `json:"reserve2"`
	TotalShares string            `json:"total_shares"`
	Shares      map[string]string `json:"shares"`
	Sequence    uint64            `json:"sequence"`
	UpdatedAt   time.Time         `json:"updated_at"`
}
