package amm

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
)

type transfer struct {
	ledger  Ledger
	asset   common.Address
	account common.Address
	amount  *uint256.Int
	inbound bool
}

// journal records the ledger transfers of one operation so they can be
// compensated when a later step fails.
type journal struct {
	pool common.Address
	done []transfer
}

func newJournal(pool common.Address) *journal {
	return &journal{pool: pool}
}

// pull moves amount from owner into the pool. Zero amounts are skipped.
func (j *journal) pull(ledger Ledger, asset, owner common.Address, amount *uint256.Int) error {
	if isZero(amount) {
		return nil
	}
	if !ledger.TransferFrom(owner, j.pool, amount) {
		return fmt.Errorf("pull %s of %s from %s: %w", amount.Dec(), asset.Hex(), owner.Hex(), ErrTransferFailed)
	}
	j.done = append(j.done, transfer{ledger: ledger, asset: asset, account: owner, amount: amount, inbound: true})
	return nil
}

// push moves amount from the pool to recipient. Zero amounts are skipped.
func (j *journal) push(ledger Ledger, asset, recipient common.Address, amount *uint256.Int) error {
	if isZero(amount) {
		return nil
	}
	if !ledger.Transfer(j.pool, recipient, amount) {
		return fmt.Errorf("push %s of %s to %s: %w", amount.Dec(), asset.Hex(), recipient.Hex(), ErrTransferFailed)
	}
	j.done = append(j.done, transfer{ledger: ledger, asset: asset, account: recipient, amount: amount})
	return nil
}

// covers fails unless the pool's ledger balance can pay amount. It runs
// before any transfer of the operation.
func (j *journal) covers(ledger Ledger, asset common.Address, amount *uint256.Int) error {
	if isZero(amount) {
		return nil
	}
	held := ledger.BalanceOf(j.pool)
	if held == nil {
		held = new(uint256.Int)
	}
	if held.Lt(amount) {
		return fmt.Errorf("pool holds %s of %s, owes %s: %w", held.Dec(), asset.Hex(), amount.Dec(), ErrTransferFailed)
	}
	return nil
}

// rollback reverses completed transfers, newest first. A pushed amount is
// taken back through the recipient's allowance to the pool.
func (j *journal) rollback() error {
	var errs []error
	for i := len(j.done) - 1; i >= 0; i-- {
		t := j.done[i]
		var ok bool
		if t.inbound {
			ok = t.ledger.Transfer(j.pool, t.account, t.amount)
		} else {
			ok = t.ledger.TransferFrom(t.account, j.pool, t.amount)
		}
		if !ok {
			errs = append(errs, fmt.Errorf("reverse %s of %s for %s", t.amount.Dec(), t.asset.Hex(), t.account.Hex()))
		}
	}
	j.done = nil
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrRollbackFailed, errors.Join(errs...))
	}
	return nil
}

// abort compensates the journal and returns cause, joined with the rollback
// failure if compensation did not complete.
func (p *Pool) abort(op string, j *journal, cause error) error {
	if rbErr := j.rollback(); rbErr != nil {
		p.logger.Error("rollback failed, ledger and reserves may diverge",
			zap.String("operation", op),
			zap.NamedError("cause", cause),
			zap.Error(rbErr),
		)
		return errors.Join(cause, rbErr)
	}
	return cause
}
