package simulate

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"ammPool/internal/amm"
	"ammPool/internal/ledger"
	"ammPool/internal/model"
)

func (r *Runner) apply(op model.Operation) error {
	if !common.IsHexAddress(op.Account) {
		return fmt.Errorf("invalid account %q", op.Account)
	}
	account := common.HexToAddress(op.Account)

	switch strings.ToLower(op.Op) {
	case model.OpMint:
		tokens, err := r.tokensFor(op.Asset)
		if err != nil {
			return err
		}
		amount, err := amm.ParseAmount(op.Amount)
		if err != nil {
			return err
		}
		for _, tok := range tokens {
			if err := tok.Mint(account, amount); err != nil {
				return err
			}
		}
		return nil

	case model.OpApprove:
		tokens, err := r.tokensFor(op.Asset)
		if err != nil {
			return err
		}
		amount, err := parseAmountOrMax(op.Amount)
		if err != nil {
			return err
		}
		for _, tok := range tokens {
			tok.Approve(account, r.cfg.Pool, amount)
		}
		return nil

	case model.OpAdd:
		amount1, err := amm.ParseAmount(op.Amount1)
		if err != nil {
			return fmt.Errorf("amount1: %w", err)
		}
		var amount2 *uint256.Int
		if op.Amount2 == "" {
			// Pair with the ratio-preserving counterpart.
			if amount2, err = r.pool.QuoteDeposit2For1(amount1); err != nil {
				return err
			}
		} else if amount2, err = amm.ParseAmount(op.Amount2); err != nil {
			return fmt.Errorf("amount2: %w", err)
		}
		_, err = r.pool.AddLiquidity(account, amount1, amount2)
		return err

	case model.OpRemove:
		var shares *uint256.Int
		if strings.EqualFold(op.Shares, "all") {
			shares = r.pool.SharesOf(account)
		} else {
			var err error
			if shares, err = amm.ParseAmount(op.Shares); err != nil {
				return fmt.Errorf("shares: %w", err)
			}
		}
		_, _, err := r.pool.RemoveLiquidity(account, shares)
		return err

	case model.OpSwap:
		amount, err := amm.ParseAmount(op.Amount)
		if err != nil {
			return err
		}
		switch op.Asset {
		case "1":
			_, err = r.pool.Swap1For2(account, amount)
		case "2":
			_, err = r.pool.Swap2For1(account, amount)
		default:
			return fmt.Errorf("swap asset must be 1 or 2, got %q", op.Asset)
		}
		return err

	default:
		return fmt.Errorf("unknown operation %q", op.Op)
	}
}

// tokensFor selects the ledgers named by asset; empty means both.
func (r *Runner) tokensFor(asset string) ([]*ledger.Token, error) {
	switch strings.ToLower(asset) {
	case "1":
		return []*ledger.Token{r.token1}, nil
	case "2":
		return []*ledger.Token{r.token2}, nil
	case "both", "":
		return []*ledger.Token{r.token1, r.token2}, nil
	}
	return nil, fmt.Errorf("unknown asset %q", asset)
}

func parseAmountOrMax(input string) (*uint256.Int, error) {
	if strings.EqualFold(strings.TrimSpace(input), "max") {
		return new(uint256.Int).SetAllOne(), nil
	}
	return amm.ParseAmount(input)
}
