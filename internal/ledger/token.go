// Package ledger provides an in-memory fungible token ledger with
// ERC-20 balance and allowance semantics.
package ledger

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var ErrOverflow = errors.New("token supply overflow")

type allowanceKey struct {
	owner   common.Address
	spender common.Address
}

// Token is one asset's balance ledger. All methods are safe for concurrent use.
type Token struct {
	address common.Address
	symbol  string

	mu         sync.RWMutex
	supply     *uint256.Int
	balances   map[common.Address]*uint256.Int
	allowances map[allowanceKey]*uint256.Int
}

func NewToken(address common.Address, symbol string) *Token {
	return &Token{
		address:    address,
		symbol:     symbol,
		supply:     new(uint256.Int),
		balances:   make(map[common.Address]*uint256.Int),
		allowances: make(map[allowanceKey]*uint256.Int),
	}
}

func (t *Token) Address() common.Address { return t.address }
func (t *Token) Symbol() string          { return t.symbol }

// TotalSupply returns the amount minted so far.
func (t *Token) TotalSupply() *uint256.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return new(uint256.Int).Set(t.supply)
}

// Mint credits amount to account.
func (t *Token) Mint(account common.Address, amount *uint256.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	supply, overflow := new(uint256.Int).AddOverflow(t.supply, amount)
	if overflow {
		return fmt.Errorf("mint %s %s: %w", amount.Dec(), t.symbol, ErrOverflow)
	}
	t.supply = supply
	t.balances[account] = new(uint256.Int).Add(t.balanceLocked(account), amount)
	return nil
}

// Approve sets the amount spender may move out of owner's balance.
func (t *Token) Approve(owner, spender common.Address, amount *uint256.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.allowances[allowanceKey{owner, spender}] = new(uint256.Int).Set(amount)
}

// Allowance returns what spender may still move out of owner's balance.
func (t *Token) Allowance(owner, spender common.Address) *uint256.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if v, ok := t.allowances[allowanceKey{owner, spender}]; ok {
		return new(uint256.Int).Set(v)
	}
	return new(uint256.Int)
}

func (t *Token) BalanceOf(account common.Address) *uint256.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return new(uint256.Int).Set(t.balanceLocked(account))
}

// Transfer moves amount from `from` to `to`. It fails when from's balance is short.
func (t *Token) Transfer(from, to common.Address, amount *uint256.Int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.moveLocked(from, to, amount)
}

// TransferFrom moves amount from `from` to `to`, spending the allowance from
// granted to `to`. Balance and allowance are debited together or not at all.
func (t *Token) TransferFrom(from, to common.Address, amount *uint256.Int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := allowanceKey{from, to}
	allowed, ok := t.allowances[key]
	if !ok || allowed.Lt(amount) {
		return false
	}
	if !t.moveLocked(from, to, amount) {
		return false
	}
	t.allowances[key] = new(uint256.Int).Sub(allowed, amount)
	return true
}

func (t *Token) moveLocked(from, to common.Address, amount *uint256.Int) bool {
	if amount == nil {
		return false
	}
	balance := t.balanceLocked(from)
	if balance.Lt(amount) {
		return false
	}
	t.balances[from] = new(uint256.Int).Sub(balance, amount)
	t.balances[to] = new(uint256.Int).Add(t.balanceLocked(to), amount)
	return true
}

func (t *Token) balanceLocked(account common.Address) *uint256.Int {
	if v, ok := t.balances[account]; ok {
		return v
	}
	return new(uint256.Int)
}
