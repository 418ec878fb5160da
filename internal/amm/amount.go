package amm

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/holiman/uint256"
)

// Decimals is the fixed-point precision shared by reserves, deposits and shares.
const Decimals = 18

// Unit is 10^18, one whole token or share.
var Unit = new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(Decimals))

// Units returns n * 10^18.
func Units(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(n), Unit)
}

// ParseAmount parses a raw integer amount. A trailing exponent is accepted,
// so "100000e18" is one hundred thousand whole units.
func ParseAmount(input string) (*uint256.Int, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("empty amount")
	}

	mantissa, exponent, hasExp := strings.Cut(strings.ToLower(input), "e")
	value, err := uint256.FromDecimal(mantissa)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", input, err)
	}
	if !hasExp {
		return value, nil
	}

	exp, err := strconv.ParseUint(exponent, 10, 8)
	if err != nil {
		return nil, fmt.Errorf("invalid exponent in %q: %w", input, err)
	}
	if exp > 77 {
		return nil, fmt.Errorf("amount %q: %w", input, ErrOverflow)
	}
	scale := new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(exp))
	out, overflow := new(uint256.Int).MulOverflow(value, scale)
	if overflow {
		return nil, fmt.Errorf("amount %q: %w", input, ErrOverflow)
	}
	return out, nil
}

// FormatUnits renders a raw amount as a decimal string with 18 fractional digits.
func FormatUnits(value *uint256.Int) string {
	if value == nil {
		return "0"
	}
	rat := new(big.Rat).SetFrac(value.ToBig(), Unit.ToBig())
	return rat.FloatString(Decimals)
}

// mulDiv returns floor(x*y/d) using a 512-bit intermediate product.
func mulDiv(x, y, d *uint256.Int) (*uint256.Int, error) {
	out, overflow := new(uint256.Int).MulDivOverflow(x, y, d)
	if overflow {
		return nil, ErrOverflow
	}
	return out, nil
}

func isZero(v *uint256.Int) bool {
	return v == nil || v.IsZero()
}

func clone(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return new(uint256.Int).Set(v)
}
