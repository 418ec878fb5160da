package amm

import (
	"fmt"

	"github.com/holiman/uint256"
)

// QuoteDeposit2For1 returns the amount of asset 2 that keeps the reserve
// ratio unchanged for a deposit of amount1.
func (p *Pool) QuoteDeposit2For1(amount1 *uint256.Int) (*uint256.Int, error) {
	st := p.view()
	return QuoteDeposit(amount1, st.reserve2, st.reserve1)
}

// QuoteDeposit1For2 returns the amount of asset 1 that keeps the reserve
// ratio unchanged for a deposit of amount2.
func (p *Pool) QuoteDeposit1For2(amount2 *uint256.Int) (*uint256.Int, error) {
	st := p.view()
	return QuoteDeposit(amount2, st.reserve1, st.reserve2)
}

// QuoteSwap1For2 returns the asset 2 output for amountIn of asset 1.
func (p *Pool) QuoteSwap1For2(amountIn *uint256.Int) (*uint256.Int, error) {
	st := p.view()
	return QuoteSwap(amountIn, st.reserve1, st.reserve2, p.params.DrainGuard)
}

// QuoteSwap2For1 returns the asset 1 output for amountIn of asset 2.
func (p *Pool) QuoteSwap2For1(amountIn *uint256.Int) (*uint256.Int, error) {
	st := p.view()
	return QuoteSwap(amountIn, st.reserve2, st.reserve1, p.params.DrainGuard)
}

// QuoteDeposit returns amount * reserveOther / reserveSame, the counterpart
// deposit that keeps the reserve ratio unchanged.
func QuoteDeposit(amount, reserveOther, reserveSame *uint256.Int) (*uint256.Int, error) {
	if amount == nil {
		return nil, ErrInvalidAmount
	}
	if reserveSame.IsZero() {
		return nil, ErrDivisionByEmptyPool
	}
	out, err := mulDiv(amount, reserveOther, reserveSame)
	if err != nil {
		return nil, fmt.Errorf("deposit quote for %s: %w", amount.Dec(), err)
	}
	return out, nil
}

// QuoteSwap prices amountIn against the constant product of the two reserves.
// The output reserve is recomputed by division so truncation always favors
// the pool.
func QuoteSwap(amountIn, reserveIn, reserveOut *uint256.Int, drainGuard bool) (*uint256.Int, error) {
	if isZero(amountIn) {
		return nil, ErrInvalidAmount
	}
	if reserveIn.IsZero() || reserveOut.IsZero() {
		return nil, ErrPoolEmpty
	}

	reserveInAfter, overflow := new(uint256.Int).AddOverflow(reserveIn, amountIn)
	if overflow {
		return nil, fmt.Errorf("input %s overflows reserve %s: %w", amountIn.Dec(), reserveIn.Dec(), ErrSwapTooLarge)
	}
	// reserveIn/reserveInAfter < 1, so the quotient fits in 256 bits.
	reserveOutAfter, err := mulDiv(reserveIn, reserveOut, reserveInAfter)
	if err != nil {
		return nil, err
	}

	amountOut := new(uint256.Int).Sub(reserveOut, reserveOutAfter)
	if drainGuard && amountOut.Eq(reserveOut) {
		amountOut.SubUint64(amountOut, 1)
	}
	if !amountOut.Lt(reserveOut) {
		return nil, fmt.Errorf("output %s drains reserve %s: %w", amountOut.Dec(), reserveOut.Dec(), ErrSwapTooLarge)
	}
	return amountOut, nil
}
