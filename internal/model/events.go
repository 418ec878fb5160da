package model

// Event names as they appear in the pool ABI.
const (
	EventSwap     = "Swap"
	EventDeposit  = "Deposit"
	EventWithdraw = "Withdraw"
)

// SwapEventData is the decoded Swap event payload. Amounts are base-10 strings.
type SwapEventData struct {
	Initiator     string `json:"initiator"`
	AssetIn       string `json:"asset_in"`
	AmountIn      string `json:"amount_in"`
	AssetOut      string `json:"asset_out"`
	AmountOut     string `json:"amount_out"`
	Reserve1After string `json:"reserve1_after"`
	Reserve2After string `json:"reserve2_after"`
	Timestamp     uint64 `json:"timestamp"`
}

// LiquidityEventData is the decoded payload of a Deposit or Withdraw event.
type LiquidityEventData struct {
	Provider      string `json:"provider"`
	Amount1       string `json:"amount1"`
	Amount2       string `json:"amount2"`
	Shares        string `json:"shares"`
	Reserve1After string `json:"reserve1_after"`
	Reserve2After string `json:"reserve2_after"`
	TotalShares   string `json:"total_shares"`
	Timestamp     uint64 `json:"timestamp"`
}
