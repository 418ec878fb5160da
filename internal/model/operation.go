package model

// Operation kinds accepted in a simulation script.
const (
	OpMint    = "mint"
	OpApprove = "approve"
	OpAdd     = "add"
	OpRemove  = "remove"
	OpSwap    = "swap"
)

// Operation is one line of a simulation script. Amounts accept raw integers
// or exponent notation such as "100000e18".
type Operation struct {
	Op      string `json:"op"`
	Account string `json:"account"`
	// Asset selects "1", "2" or, for mint and approve, "both".
	Asset   string `json:"asset,omitempty"`
	Amount  string `json:"amount,omitempty"`
	Amount1 string `json:"amount1,omitempty"`
	Amount2 string `json:"amount2,omitempty"`
	Shares  string `json:"shares,omitempty"`
	// Expect, when set, names the error the operation must fail with.
	Expect string `json:"expect,omitempty"`
}

// OperationError records a script line that failed.
type OperationError struct {
	Line    int    `json:"line"`
	Op      string `json:"op,omitempty"`
	Account string `json:"account,omitempty"`
	Error   string `json:"error"`
}

// DecodeError records a decode failure for a log line.
type DecodeError struct {
	ChainID     uint64 `json:"chain_id"`
	BlockNumber uint64 `json:"block_number"`
	TxHash      string `json:"tx_hash,omitempty"`
	LogIndex    uint64 `json:"log_index"`
	Address     string `json:"address"`
	Topic0      string `json:"topic0"`
	Error       string `json:"error"`
}
