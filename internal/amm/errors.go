package amm

import "errors"

var (
	// ErrTransferFailed is returned when a token ledger refuses a pull or a push.
	ErrTransferFailed = errors.New("token transfer failed")
	// ErrPoolEmpty is returned when a swap is quoted against a pool with a zero reserve.
	ErrPoolEmpty = errors.New("pool is empty")
	// ErrDivisionByEmptyPool is returned when a deposit is quoted against an empty pool.
	ErrDivisionByEmptyPool = errors.New("deposit quote on empty pool")
	// ErrUnbalancedDeposit is returned when the two deposit amounts imply different share counts.
	ErrUnbalancedDeposit = errors.New("deposit amounts do not match the reserve ratio")
	// ErrSwapTooLarge is returned when a swap would drain (or over-drain) the output reserve.
	ErrSwapTooLarge = errors.New("swap amount too large")
	// ErrInsufficientShares is returned when a withdrawal exceeds the caller's shares.
	ErrInsufficientShares = errors.New("insufficient shares")

	// ErrInvalidAmount is returned for nil or zero amounts.
	ErrInvalidAmount = errors.New("amount must be non-nil and greater than zero")
	// ErrPoolBusy is returned when an operation starts while another one is still in progress.
	ErrPoolBusy = errors.New("pool operation already in progress")
	// ErrRollbackFailed is returned when a compensating transfer could not be applied.
	ErrRollbackFailed = errors.New("rollback of completed transfers failed")
	// ErrOverflow is returned when a reserve or share counter would exceed 256 bits.
	ErrOverflow = errors.New("uint256 overflow")
	// ErrLedgerMismatch is returned when a reserve differs from the pool's ledger balance.
	ErrLedgerMismatch = errors.New("reserve does not match ledger balance")
	// ErrInvalidSnapshot is returned when a snapshot violates the pool invariants.
	ErrInvalidSnapshot = errors.New("invalid pool snapshot")
)
