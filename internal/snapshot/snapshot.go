// Package snapshot persists pool state between runs.
package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"ammPool/internal/amm"
	"ammPool/internal/model"
)

// Store loads and saves the snapshot of one pool.
type Store interface {
	Load(ctx context.Context, pool common.Address) (model.PoolSnapshot, bool, error)
	Save(ctx context.Context, snap model.PoolSnapshot) error
}

// FromPool converts an in-memory snapshot into its persisted form.
func FromPool(snap amm.Snapshot, sequence uint64, now time.Time) model.PoolSnapshot {
	shares := make(map[string]string, len(snap.Shares))
	for account, balance := range snap.Shares {
		shares[account.Hex()] = balance.Dec()
	}
	return model.PoolSnapshot{
		Address:     snap.Address.Hex(),
		Asset1:      snap.Asset1.Hex(),
		Asset2:      snap.Asset2.Hex(),
		Reserve1:    snap.Reserve1.Dec(),
		Reserve2:    snap.Reserve2.Dec(),
		TotalShares: snap.TotalShares.Dec(),
		Shares:      shares,
		Sequence:    sequence,
		UpdatedAt:   now.UTC(),
	}
}

// ToPool parses a persisted snapshot. The result is not validated; amm.Restore
// does that.
func ToPool(snap model.PoolSnapshot) (amm.Snapshot, error) {
	out := amm.Snapshot{Shares: make(map[common.Address]*uint256.Int, len(snap.Shares))}

	var err error
	if out.Address, err = parseAddress("pool", snap.Address); err != nil {
		return amm.Snapshot{}, err
	}
	if out.Asset1, err = parseAddress("asset1", snap.Asset1); err != nil {
		return amm.Snapshot{}, err
	}
	if out.Asset2, err = parseAddress("asset2", snap.Asset2); err != nil {
		return amm.Snapshot{}, err
	}
	if out.Reserve1, err = parseAmount("reserve1", snap.Reserve1); err != nil {
		return amm.Snapshot{}, err
	}
	if out.Reserve2, err = parseAmount("reserve2", snap.Reserve2); err != nil {
		return amm.Snapshot{}, err
	}
	if out.TotalShares, err = parseAmount("total_shares", snap.TotalShares); err != nil {
		return amm.Snapshot{}, err
	}
	for account, balance := range snap.Shares {
		addr, err := parseAddress("share holder", account)
		if err != nil {
			return amm.Snapshot{}, err
		}
		amount, err := parseAmount("shares of "+account, balance)
		if err != nil {
			return amm.Snapshot{}, err
		}
		out.Shares[addr] = amount
	}
	return out, nil
}

func parseAddress(field, value string) (common.Address, error) {
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("%s: invalid address %q", field, value)
	}
	return common.HexToAddress(value), nil
}

func parseAmount(field, value string) (*uint256.Int, error) {
	if value == "" {
		return new(uint256.Int), nil
	}
	v, err := uint256.FromDecimal(value)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return v, nil
}
