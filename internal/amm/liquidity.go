package amm

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
)

const (
	OpAddLiquidity    = "add_liquidity"
	OpRemoveLiquidity = "remove_liquidity"
	OpSwap1For2       = "swap_1_for_2"
	OpSwap2For1       = "swap_2_for_1"
)

// AddLiquidity pulls amount1 and amount2 from caller and mints pool shares.
// The first deposit mints Params.InitialShares; later deposits must match the
// reserve ratio within the tolerance.
func (p *Pool) AddLiquidity(caller common.Address, amount1, amount2 *uint256.Int) (minted *uint256.Int, err error) {
	if err := p.enter(); err != nil {
		p.metrics.observeFailure(OpAddLiquidity, err)
		return nil, err
	}
	defer p.exit()
	defer func() { p.metrics.observeFailure(OpAddLiquidity, err) }()

	if isZero(amount1) || isZero(amount2) {
		return nil, ErrInvalidAmount
	}

	st := p.view()
	minted, err = p.sharesForDeposit(st, amount1, amount2)
	if err != nil {
		return nil, err
	}

	reserve1, overflow1 := new(uint256.Int).AddOverflow(st.reserve1, amount1)
	reserve2, overflow2 := new(uint256.Int).AddOverflow(st.reserve2, amount2)
	totalShares, overflow3 := new(uint256.Int).AddOverflow(st.totalShares, minted)
	if overflow1 || overflow2 || overflow3 {
		return nil, fmt.Errorf("deposit: %w", ErrOverflow)
	}

	j := newJournal(p.address)
	if err = j.pull(p.ledger1, p.asset1, caller, amount1); err != nil {
		return nil, p.abort(OpAddLiquidity, j, err)
	}
	if err = j.pull(p.ledger2, p.asset2, caller, amount2); err != nil {
		return nil, p.abort(OpAddLiquidity, j, err)
	}

	p.commit(OpAddLiquidity, func(s *state) {
		s.reserve1 = reserve1
		s.reserve2 = reserve2
		s.totalShares = totalShares
		s.shares[caller] = new(uint256.Int).Add(s.sharesOf(caller), minted)
	})

	p.logger.Debug("liquidity added",
		zap.String("provider", caller.Hex()),
		zap.String("amount1", amount1.Dec()),
		zap.String("amount2", amount2.Dec()),
		zap.String("shares", minted.Dec()),
	)
	p.observer.ObserveLiquidity(LiquidityEvent{
		Kind:          LiquidityDeposit,
		Provider:      caller,
		Amount1:       clone(amount1),
		Amount2:       clone(amount2),
		Shares:        clone(minted),
		Reserve1After: clone(reserve1),
		Reserve2After: clone(reserve2),
		TotalShares:   clone(totalShares),
		Timestamp:     p.clock(),
	})
	return clone(minted), nil
}

func (p *Pool) sharesForDeposit(st state, amount1, amount2 *uint256.Int) (*uint256.Int, error) {
	if st.totalShares.IsZero() {
		return clone(p.params.InitialShares), nil
	}

	share1, err := mulDiv(st.totalShares, amount1, st.reserve1)
	if err != nil {
		return nil, fmt.Errorf("share estimate for asset 1: %w", err)
	}
	share2, err := mulDiv(st.totalShares, amount2, st.reserve2)
	if err != nil {
		return nil, fmt.Errorf("share estimate for asset 2: %w", err)
	}

	d := p.params.ToleranceDivisor
	if !new(uint256.Int).Div(share1, d).Eq(new(uint256.Int).Div(share2, d)) {
		return nil, fmt.Errorf("shares %s vs %s: %w", share1.Dec(), share2.Dec(), ErrUnbalancedDeposit)
	}
	if share1.IsZero() {
		return nil, fmt.Errorf("deposit mints no shares: %w", ErrInvalidAmount)
	}
	return share1, nil
}

// RemoveLiquidity burns shareAmount of caller's shares and pays out the
// matching slice of both reserves, rounded down.
func (p *Pool) RemoveLiquidity(caller common.Address, shareAmount *uint256.Int) (amount1, amount2 *uint256.Int, err error) {
	if err := p.enter(); err != nil {
		p.metrics.observeFailure(OpRemoveLiquidity, err)
		return nil, nil, err
	}
	defer p.exit()
	defer func() { p.metrics.observeFailure(OpRemoveLiquidity, err) }()

	if isZero(shareAmount) {
		return nil, nil, ErrInvalidAmount
	}

	st := p.view()
	balance := p.SharesOf(caller)
	if balance.Lt(shareAmount) {
		return nil, nil, fmt.Errorf("balance %s, requested %s: %w", balance.Dec(), shareAmount.Dec(), ErrInsufficientShares)
	}

	// shareAmount <= totalShares, so neither quotient can overflow.
	amount1, err = mulDiv(shareAmount, st.reserve1, st.totalShares)
	if err != nil {
		return nil, nil, err
	}
	amount2, err = mulDiv(shareAmount, st.reserve2, st.totalShares)
	if err != nil {
		return nil, nil, err
	}

	j := newJournal(p.address)
	if err = j.covers(p.ledger1, p.asset1, amount1); err != nil {
		return nil, nil, err
	}
	if err = j.covers(p.ledger2, p.asset2, amount2); err != nil {
		return nil, nil, err
	}
	if err = j.push(p.ledger1, p.asset1, caller, amount1); err != nil {
		return nil, nil, p.abort(OpRemoveLiquidity, j, err)
	}
	if err = j.push(p.ledger2, p.asset2, caller, amount2); err != nil {
		return nil, nil, p.abort(OpRemoveLiquidity, j, err)
	}

	reserve1 := new(uint256.Int).Sub(st.reserve1, amount1)
	reserve2 := new(uint256.Int).Sub(st.reserve2, amount2)
	totalShares := new(uint256.Int).Sub(st.totalShares, shareAmount)
	p.commit(OpRemoveLiquidity, func(s *state) {
		s.reserve1 = reserve1
		s.reserve2 = reserve2
		s.totalShares = totalShares
		left := new(uint256.Int).Sub(s.sharesOf(caller), shareAmount)
		if left.IsZero() {
			delete(s.shares, caller)
		} else {
			s.shares[caller] = left
		}
	})

	p.logger.Debug("liquidity removed",
		zap.String("provider", caller.Hex()),
		zap.String("shares", shareAmount.Dec()),
		zap.String("amount1", amount1.Dec()),
		zap.String("amount2", amount2.Dec()),
	)
	p.observer.ObserveLiquidity(LiquidityEvent{
		Kind:          LiquidityWithdraw,
		Provider:      caller,
		Amount1:       clone(amount1),
		Amount2:       clone(amount2),
		Shares:        clone(shareAmount),
		Reserve1After: clone(reserve1),
		Reserve2After: clone(reserve2),
		TotalShares:   clone(totalShares),
		Timestamp:     p.clock(),
	})
	return amount1, amount2, nil
}
