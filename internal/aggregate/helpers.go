package aggregate

import (
	"math/big"

	"ammPool/internal/amm"
)

const ratioScale = 18

func formatTokenAmount(value *big.Int, decimals uint8) string {
	if value == nil {
		return "0"
	}
	if decimals == 0 {
		return value.String()
	}
	denom := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	return new(big.Rat).SetFrac(value, denom).FloatString(int(decimals))
}

// computePrice returns the closing price of asset 1 in units of asset 2,
// adjusted for both assets' decimals, or nil for an empty pool.
func computePrice(reserve1, reserve2 *big.Int, decimals1, decimals2 uint8) *string {
	if reserve1 == nil || reserve2 == nil || reserve1.Sign() == 0 {
		return nil
	}
	num := new(big.Int).Mul(reserve2, pow10(decimals1))
	den := new(big.Int).Mul(reserve1, pow10(decimals2))
	val := new(big.Rat).SetFrac(num, den).FloatString(ratioScale)
	return &val
}

func pow10(n uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

// assetDecimals falls back to the pool's share decimals when metadata is
// missing.
func assetDecimals(decimals uint8, symbol string) uint8 {
	if decimals == 0 && symbol == "" {
		return amm.Decimals
	}
	return decimals
}
