package amm

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
)

// Swap1For2 sells amountIn of asset 1 for asset 2 and returns the amount received.
func (p *Pool) Swap1For2(caller common.Address, amountIn *uint256.Int) (*uint256.Int, error) {
	return p.swap(OpSwap1For2, caller, amountIn, true)
}

// Swap2For1 sells amountIn of asset 2 for asset 1 and returns the amount received.
func (p *Pool) Swap2For1(caller common.Address, amountIn *uint256.Int) (*uint256.Int, error) {
	return p.swap(OpSwap2For1, caller, amountIn, false)
}

func (p *Pool) swap(op string, caller common.Address, amountIn *uint256.Int, oneForTwo bool) (amountOut *uint256.Int, err error) {
	if err := p.enter(); err != nil {
		p.metrics.observeFailure(op, err)
		return nil, err
	}
	defer p.exit()
	defer func() { p.metrics.observeFailure(op, err) }()

	st := p.view()
	reserveIn, reserveOut := st.reserve1, st.reserve2
	assetIn, assetOut := p.asset1, p.asset2
	if !oneForTwo {
		reserveIn, reserveOut = st.reserve2, st.reserve1
		assetIn, assetOut = p.asset2, p.asset1
	}

	amountOut, err = QuoteSwap(amountIn, reserveIn, reserveOut, p.params.DrainGuard)
	if err != nil {
		return nil, err
	}

	j := newJournal(p.address)
	if err = j.covers(p.ledgerFor(assetOut), assetOut, amountOut); err != nil {
		return nil, err
	}
	if err = j.pull(p.ledgerFor(assetIn), assetIn, caller, amountIn); err != nil {
		return nil, p.abort(op, j, err)
	}
	if err = j.push(p.ledgerFor(assetOut), assetOut, caller, amountOut); err != nil {
		return nil, p.abort(op, j, err)
	}

	// quoteSwap already rejected an overflowing input reserve.
	newIn := new(uint256.Int).Add(reserveIn, amountIn)
	newOut := new(uint256.Int).Sub(reserveOut, amountOut)
	reserve1, reserve2 := newIn, newOut
	if !oneForTwo {
		reserve1, reserve2 = newOut, newIn
	}
	p.commit(op, func(s *state) {
		s.reserve1 = reserve1
		s.reserve2 = reserve2
	})

	p.logger.Debug("swap executed",
		zap.String("initiator", caller.Hex()),
		zap.String("asset_in", assetIn.Hex()),
		zap.String("amount_in", amountIn.Dec()),
		zap.String("amount_out", amountOut.Dec()),
	)
	p.observer.ObserveSwap(SwapEvent{
		Initiator:     caller,
		AssetIn:       assetIn,
		AmountIn:      clone(amountIn),
		AssetOut:      assetOut,
		AmountOut:     clone(amountOut),
		Reserve1After: clone(reserve1),
		Reserve2After: clone(reserve2),
		Timestamp:     p.clock(),
	})
	return amountOut, nil
}
