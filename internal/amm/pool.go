// Package amm implements a two-asset constant-product liquidity pool.
//
// A Pool mirrors its reserves against two external token ledgers. Every
// mutating operation follows the same shape: validate, compute deltas,
// perform the ledger transfers, then commit the new state. A failed transfer
// compensates the transfers already made and leaves the pool untouched.
package amm

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
)

// Ledger is the token ledger of one pool asset.
//
// TransferFrom moves amount from `from` to `to`, spending the allowance that
// `from` granted to `to`. Transfer moves amount out of `from`, which is always
// the pool account when called by the pool. A false return aborts the
// current pool operation.
type Ledger interface {
	TransferFrom(from, to common.Address, amount *uint256.Int) bool
	Transfer(from, to common.Address, amount *uint256.Int) bool
	BalanceOf(account common.Address) *uint256.Int
}

// Params are the pool's fixed pricing constants.
type Params struct {
	// InitialShares is minted to the first liquidity provider.
	InitialShares *uint256.Int
	// ToleranceDivisor truncates both share estimates of a deposit before comparing them.
	ToleranceDivisor *uint256.Int
	// DrainGuard lowers a swap output that would empty the output reserve by one.
	DrainGuard bool
}

// DefaultParams returns 100 initial shares, a 1/1000 tolerance and the drain guard enabled.
func DefaultParams() Params {
	return Params{
		InitialShares:    Units(100),
		ToleranceDivisor: uint256.NewInt(1000),
		DrainGuard:       true,
	}
}

// Config wires a pool to its ledgers and collaborators.
type Config struct {
	Address  common.Address
	Asset1   common.Address
	Asset2   common.Address
	Ledger1  Ledger
	Ledger2  Ledger
	Params   Params
	Observer Observer
	Metrics  *Metrics
	Logger   *zap.Logger
	Clock    func() time.Time
}

type state struct {
	reserve1    *uint256.Int
	reserve2    *uint256.Int
	totalShares *uint256.Int
	shares      map[common.Address]*uint256.Int
}

func (s *state) sharesOf(account common.Address) *uint256.Int {
	return clone(s.shares[account])
}

// Pool is a constant-product pool over two assets. Reads are safe from any
// goroutine; mutating operations are serialized by the caller, and an
// operation started while another is in progress fails with ErrPoolBusy.
type Pool struct {
	address  common.Address
	asset1   common.Address
	asset2   common.Address
	ledger1  Ledger
	ledger2  Ledger
	params   Params
	observer Observer
	metrics  *Metrics
	logger   *zap.Logger
	clock    func() time.Time

	busy atomic.Bool

	mu sync.RWMutex
	st state
}

// NewPool builds an empty pool.
func NewPool(cfg Config) (*Pool, error) {
	if cfg.Ledger1 == nil || cfg.Ledger2 == nil {
		return nil, fmt.Errorf("both asset ledgers are required")
	}
	if cfg.Asset1 == cfg.Asset2 {
		return nil, fmt.Errorf("pool assets must differ: %s", cfg.Asset1.Hex())
	}
	if cfg.Address == (common.Address{}) {
		return nil, fmt.Errorf("pool address is required")
	}

	params := cfg.Params
	defaults := DefaultParams()
	if params.InitialShares == nil {
		params.InitialShares = defaults.InitialShares
	}
	if params.ToleranceDivisor == nil {
		params.ToleranceDivisor = defaults.ToleranceDivisor
	}
	if params.InitialShares.IsZero() {
		return nil, fmt.Errorf("initial shares must be greater than zero")
	}
	if params.ToleranceDivisor.IsZero() {
		return nil, fmt.Errorf("tolerance divisor must be greater than zero")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	observer := cfg.Observer
	if observer == nil {
		observer = nopObserver{}
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Pool{
		address:  cfg.Address,
		asset1:   cfg.Asset1,
		asset2:   cfg.Asset2,
		ledger1:  cfg.Ledger1,
		ledger2:  cfg.Ledger2,
		params:   params,
		observer: observer,
		metrics:  cfg.Metrics,
		logger:   logger.With(zap.String("pool", cfg.Address.Hex())),
		clock:    clock,
		st: state{
			reserve1:    new(uint256.Int),
			reserve2:    new(uint256.Int),
			totalShares: new(uint256.Int),
			shares:      make(map[common.Address]*uint256.Int),
		},
	}, nil
}

// Address returns the pool's ledger account.
func (p *Pool) Address() common.Address { return p.address }

// Assets returns the identifiers of asset 1 and asset 2.
func (p *Pool) Assets() (common.Address, common.Address) { return p.asset1, p.asset2 }

// Params returns the pool's pricing constants.
func (p *Pool) Params() Params {
	return Params{
		InitialShares:    clone(p.params.InitialShares),
		ToleranceDivisor: clone(p.params.ToleranceDivisor),
		DrainGuard:       p.params.DrainGuard,
	}
}

// Reserves returns copies of both reserves.
func (p *Pool) Reserves() (*uint256.Int, *uint256.Int) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return clone(p.st.reserve1), clone(p.st.reserve2)
}

// TotalShares returns the number of outstanding shares.
func (p *Pool) TotalShares() *uint256.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return clone(p.st.totalShares)
}

// SharesOf returns the share balance of account, zero when it holds none.
func (p *Pool) SharesOf(account common.Address) *uint256.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.st.sharesOf(account)
}

// view returns a copy of the reserve and supply counters.
func (p *Pool) view() state {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return state{
		reserve1:    clone(p.st.reserve1),
		reserve2:    clone(p.st.reserve2),
		totalShares: clone(p.st.totalShares),
	}
}

func (p *Pool) enter() error {
	if !p.busy.CompareAndSwap(false, true) {
		return ErrPoolBusy
	}
	return nil
}

func (p *Pool) exit() {
	p.busy.Store(false)
}

// commit applies fn under the write lock and records metrics for op.
func (p *Pool) commit(op string, fn func(st *state)) {
	p.mu.Lock()
	fn(&p.st)
	p.metrics.observeCommit(op, &p.st)
	p.mu.Unlock()
}

func (p *Pool) ledgerFor(asset common.Address) Ledger {
	if asset == p.asset1 {
		return p.ledger1
	}
	return p.ledger2
}
