package amm

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteSwap(t *testing.T) {
	tests := []struct {
		name       string
		in         *uint256.Int
		reserveIn  *uint256.Int
		reserveOut *uint256.Int
		guard      bool
		want       *uint256.Int
		wantErr    error
	}{
		{
			name:       "truncates toward pool",
			in:         uint256.NewInt(10),
			reserveIn:  uint256.NewInt(100),
			reserveOut: uint256.NewInt(100),
			guard:      true,
			// 100*100/110 = 90.9 -> 90, out = 10
			want: uint256.NewInt(10),
		},
		{
			name:       "uneven reserves",
			in:         uint256.NewInt(1_000),
			reserveIn:  uint256.NewInt(3_000),
			reserveOut: uint256.NewInt(7_000),
			guard:      true,
			// 3000*7000/4000 = 5250, out = 1750
			want: uint256.NewInt(1_750),
		},
		{
			name:       "drain guard",
			in:         uint256.NewInt(1_000),
			reserveIn:  uint256.NewInt(2),
			reserveOut: uint256.NewInt(3),
			guard:      true,
			want:       uint256.NewInt(2),
		},
		{
			name:       "drain without guard",
			in:         uint256.NewInt(1_000),
			reserveIn:  uint256.NewInt(2),
			reserveOut: uint256.NewInt(3),
			wantErr:    ErrSwapTooLarge,
		},
		{
			name:       "input overflow",
			in:         new(uint256.Int).SetAllOne(),
			reserveIn:  uint256.NewInt(1),
			reserveOut: uint256.NewInt(1),
			guard:      true,
			wantErr:    ErrSwapTooLarge,
		},
		{
			name:       "single unit output reserve",
			in:         uint256.NewInt(5),
			reserveIn:  uint256.NewInt(1),
			reserveOut: uint256.NewInt(1),
			guard:      true,
			// 1*1/6 = 0, full drain lowered to 0
			want: uint256.NewInt(0),
		},
		{
			name:       "empty input reserve",
			in:         uint256.NewInt(5),
			reserveIn:  uint256.NewInt(0),
			reserveOut: uint256.NewInt(9),
			wantErr:    ErrPoolEmpty,
		},
		{
			name:       "zero input",
			in:         uint256.NewInt(0),
			reserveIn:  uint256.NewInt(9),
			reserveOut: uint256.NewInt(9),
			wantErr:    ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := QuoteSwap(tt.in, tt.reserveIn, tt.reserveOut, tt.guard)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuoteDeposit(t *testing.T) {
	got, err := QuoteDeposit(uint256.NewInt(7), uint256.NewInt(10), uint256.NewInt(3))
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(23), got)

	_, err = QuoteDeposit(uint256.NewInt(7), uint256.NewInt(10), new(uint256.Int))
	require.ErrorIs(t, err, ErrDivisionByEmptyPool)

	max := new(uint256.Int).SetAllOne()
	_, err = QuoteDeposit(max, max, uint256.NewInt(1))
	require.ErrorIs(t, err, ErrOverflow)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    *uint256.Int
		wantErr bool
	}{
		{in: "0", want: new(uint256.Int)},
		{in: "12345", want: uint256.NewInt(12345)},
		{in: "100000e18", want: Units(100_000)},
		{in: " 5E3 ", want: uint256.NewInt(5_000)},
		{in: "", wantErr: true},
		{in: "-1", wantErr: true},
		{in: "1.5", wantErr: true},
		{in: "1e", wantErr: true},
		{in: "1e78", wantErr: true},
		{in: "1e77", want: new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(77))},
		{in: "2e77", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseAmount(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("ParseAmount(%q) expected error, got %s", tt.in, got.Dec())
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseAmount(%q) error: %v", tt.in, err)
		}
		if !got.Eq(tt.want) {
			t.Fatalf("ParseAmount(%q) = %s, want %s", tt.in, got.Dec(), tt.want.Dec())
		}
	}
}

func TestFormatUnits(t *testing.T) {
	assert.Equal(t, "100.000000000000000000", FormatUnits(Units(100)))
	assert.Equal(t, "0.000000000000000001", FormatUnits(uint256.NewInt(1)))
	assert.Equal(t, "0", FormatUnits(nil))
}
