package ledger

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	pool  = common.HexToAddress("0x00000000000000000000000000000000000000f0")
)

func TestTransferFromSpendsAllowance(t *testing.T) {
	tok := NewToken(common.HexToAddress("0x01"), "AAA")
	if err := tok.Mint(alice, uint256.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}

	if tok.TransferFrom(alice, pool, uint256.NewInt(10)) {
		t.Fatalf("transfer without approval succeeded")
	}

	tok.Approve(alice, pool, uint256.NewInt(30))
	if !tok.TransferFrom(alice, pool, uint256.NewInt(25)) {
		t.Fatalf("approved transfer failed")
	}
	if got := tok.Allowance(alice, pool).Uint64(); got != 5 {
		t.Fatalf("allowance = %d, want 5", got)
	}
	if got := tok.BalanceOf(alice).Uint64(); got != 75 {
		t.Fatalf("alice balance = %d, want 75", got)
	}
	if got := tok.BalanceOf(pool).Uint64(); got != 25 {
		t.Fatalf("pool balance = %d, want 25", got)
	}
	if tok.TransferFrom(alice, pool, uint256.NewInt(6)) {
		t.Fatalf("transfer above allowance succeeded")
	}
}

func TestTransferFromInsufficientBalanceKeepsAllowance(t *testing.T) {
	tok := NewToken(common.HexToAddress("0x01"), "AAA")
	if err := tok.Mint(alice, uint256.NewInt(5)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	tok.Approve(alice, pool, uint256.NewInt(50))

	if tok.TransferFrom(alice, pool, uint256.NewInt(6)) {
		t.Fatalf("transfer above balance succeeded")
	}
	if got := tok.Allowance(alice, pool).Uint64(); got != 50 {
		t.Fatalf("allowance = %d, want 50", got)
	}
	if got := tok.BalanceOf(alice).Uint64(); got != 5 {
		t.Fatalf("alice balance = %d, want 5", got)
	}
}

func TestTransfer(t *testing.T) {
	tok := NewToken(common.HexToAddress("0x01"), "AAA")
	if err := tok.Mint(pool, uint256.NewInt(40)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if !tok.Transfer(pool, alice, uint256.NewInt(40)) {
		t.Fatalf("transfer failed")
	}
	if tok.Transfer(pool, alice, uint256.NewInt(1)) {
		t.Fatalf("transfer from empty balance succeeded")
	}
	if got := tok.TotalSupply().Uint64(); got != 40 {
		t.Fatalf("supply = %d, want 40", got)
	}
}

func TestMintOverflow(t *testing.T) {
	tok := NewToken(common.HexToAddress("0x01"), "AAA")
	max := new(uint256.Int).SetAllOne()
	if err := tok.Mint(alice, max); err != nil {
		t.Fatalf("mint max: %v", err)
	}
	if err := tok.Mint(alice, uint256.NewInt(1)); err == nil {
		t.Fatalf("expected overflow error")
	}
}
