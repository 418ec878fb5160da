package amm

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Snapshot is a point-in-time copy of a pool's accounting state.
type Snapshot struct {
	Address     common.Address
	Asset1      common.Address
	Asset2      common.Address
	Reserve1    *uint256.Int
	Reserve2    *uint256.Int
	TotalShares *uint256.Int
	Shares      map[common.Address]*uint256.Int
}

// Snapshot returns a deep copy of the pool state.
func (p *Pool) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	shares := make(map[common.Address]*uint256.Int, len(p.st.shares))
	for account, balance := range p.st.shares {
		shares[account] = clone(balance)
	}
	return Snapshot{
		Address:     p.address,
		Asset1:      p.asset1,
		Asset2:      p.asset2,
		Reserve1:    clone(p.st.reserve1),
		Reserve2:    clone(p.st.reserve2),
		TotalShares: clone(p.st.totalShares),
		Shares:      shares,
	}
}

// Validate checks the empty-or-funded invariant and share conservation.
func (s Snapshot) Validate() error {
	r1, r2, total := clone(s.Reserve1), clone(s.Reserve2), clone(s.TotalShares)
	if r1.IsZero() != r2.IsZero() || r1.IsZero() != total.IsZero() {
		return fmt.Errorf("reserves %s/%s with %s shares: %w", r1.Dec(), r2.Dec(), total.Dec(), ErrInvalidSnapshot)
	}

	sum := new(uint256.Int)
	for account, balance := range s.Shares {
		if balance == nil {
			return fmt.Errorf("nil share balance for %s: %w", account.Hex(), ErrInvalidSnapshot)
		}
		var overflow bool
		sum, overflow = sum.AddOverflow(sum, balance)
		if overflow {
			return fmt.Errorf("share sum: %w", errors.Join(ErrInvalidSnapshot, ErrOverflow))
		}
	}
	if !sum.Eq(total) {
		return fmt.Errorf("shares sum to %s, total is %s: %w", sum.Dec(), total.Dec(), ErrInvalidSnapshot)
	}
	return nil
}

// Restore builds a pool from cfg and loads snap into it. The snapshot must
// belong to the same pool and assets as cfg.
func Restore(cfg Config, snap Snapshot) (*Pool, error) {
	if snap.Address != cfg.Address || snap.Asset1 != cfg.Asset1 || snap.Asset2 != cfg.Asset2 {
		return nil, fmt.Errorf("snapshot of pool %s does not match configured pool %s: %w",
			snap.Address.Hex(), cfg.Address.Hex(), ErrInvalidSnapshot)
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}

	p, err := NewPool(cfg)
	if err != nil {
		return nil, err
	}
	p.st.reserve1 = clone(snap.Reserve1)
	p.st.reserve2 = clone(snap.Reserve2)
	p.st.totalShares = clone(snap.TotalShares)
	for account, balance := range snap.Shares {
		if balance.IsZero() {
			continue
		}
		p.st.shares[account] = clone(balance)
	}
	return p, nil
}

// Reconcile compares both reserves with the pool's balance on its ledgers.
func (p *Pool) Reconcile() error {
	reserve1, reserve2 := p.Reserves()

	var errs []error
	if balance := p.ledger1.BalanceOf(p.address); !clone(balance).Eq(reserve1) {
		errs = append(errs, fmt.Errorf("asset %s: reserve %s, ledger %s: %w",
			p.asset1.Hex(), reserve1.Dec(), clone(balance).Dec(), ErrLedgerMismatch))
	}
	if balance := p.ledger2.BalanceOf(p.address); !clone(balance).Eq(reserve2) {
		errs = append(errs, fmt.Errorf("asset %s: reserve %s, ledger %s: %w",
			p.asset2.Hex(), reserve2.Dec(), clone(balance).Dec(), ErrLedgerMismatch))
	}
	return errors.Join(errs...)
}
