package state

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"dsponsor/storage"
)

func testAddr(fill byte) common.Address {
	var addr common.Address
	for i := range addr {
		addr[i] = fill
	}
	return addr
}

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	ledger, err := NewLedger(storage.NewMemDB())
	if err != nil {
		t.Fatalf("new ledger: %v", err)
	}
	return ledger
}

func TestNativeTransfer(t *testing.T) {
	ledger := newTestLedger(t)
	alice := testAddr(0x01)
	bob := testAddr(0x02)

	if err := ledger.NativeMint(alice, big.NewInt(1000)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := ledger.NativeTransfer(alice, bob, big.NewInt(400)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if got := ledger.NativeBalanceOf(alice); got.Cmp(big.NewInt(600)) != 0 {
		t.Fatalf("alice balance = %s, want 600", got)
	}
	if got := ledger.NativeBalanceOf(bob); got.Cmp(big.NewInt(400)) != 0 {
		t.Fatalf("bob balance = %s, want 400", got)
	}

	if err := ledger.NativeTransfer(alice, bob, big.NewInt(601)); !errors.Is(err, ErrInsufficientNative) {
		t.Fatalf("overdraft error = %v, want ErrInsufficientNative", err)
	}
	if err := ledger.NativeTransfer(alice, bob, big.NewInt(-1)); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("negative error = %v, want ErrNegativeAmount", err)
	}
}

func TestTokenTransferAndBalances(t *testing.T) {
	ledger := newTestLedger(t)
	token := testAddr(0x10)
	alice := testAddr(0x01)
	bob := testAddr(0x02)

	if err := ledger.TokenMint(token, alice, big.NewInt(100)); err != nil {
		t.Fatalf("token mint: %v", err)
	}
	if err := ledger.Transfer(token, alice, bob, big.NewInt(30)); err != nil {
		t.Fatalf("token transfer: %v", err)
	}
	if got := ledger.BalanceOf(token, alice); got.Cmp(big.NewInt(70)) != 0 {
		t.Fatalf("alice token balance = %s, want 70", got)
	}
	if got := ledger.BalanceOf(token, bob); got.Cmp(big.NewInt(30)) != 0 {
		t.Fatalf("bob token balance = %s, want 30", got)
	}
	if err := ledger.Transfer(token, alice, bob, big.NewInt(71)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("overdraft error = %v, want ErrInsufficientBalance", err)
	}
}

func TestTransferFromConsumesAllowance(t *testing.T) {
	ledger := newTestLedger(t)
	token := testAddr(0x10)
	owner := testAddr(0x01)
	spender := testAddr(0x02)
	sink := testAddr(0x03)

	if err := ledger.TokenMint(token, owner, big.NewInt(500)); err != nil {
		t.Fatalf("token mint: %v", err)
	}
	if err := ledger.Approve(token, owner, spender, big.NewInt(200)); err != nil {
		t.Fatalf("approve: %v", err)
	}

	if err := ledger.TransferFrom(token, spender, owner, sink, big.NewInt(100)); err != nil {
		t.Fatalf("transferFrom: %v", err)
	}
	if got := ledger.Allowance(token, owner, spender); got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("allowance = %s, want 100", got)
	}
	if got := ledger.BalanceOf(token, sink); got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("sink balance = %s, want 100", got)
	}

	if err := ledger.TransferFrom(token, spender, owner, sink, big.NewInt(100)); err != nil {
		t.Fatalf("second transferFrom: %v", err)
	}
	if err := ledger.TransferFrom(token, spender, owner, sink, big.NewInt(1)); !errors.Is(err, ErrInsufficientAllowance) {
		t.Fatalf("exhausted allowance error = %v, want ErrInsufficientAllowance", err)
	}
}

func TestTransferFromRequiresBalance(t *testing.T) {
	ledger := newTestLedger(t)
	token := testAddr(0x10)
	owner := testAddr(0x01)
	spender := testAddr(0x02)
	sink := testAddr(0x03)

	if err := ledger.TokenMint(token, owner, big.NewInt(50)); err != nil {
		t.Fatalf("token mint: %v", err)
	}
	if err := ledger.Approve(token, owner, spender, big.NewInt(1000)); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := ledger.TransferFrom(token, spender, owner, sink, big.NewInt(51)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("error = %v, want ErrInsufficientBalance", err)
	}
	if got := ledger.Allowance(token, owner, spender); got.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("allowance mutated on failed transfer: %s", got)
	}
}

func TestLedgerPersistsAcrossInstances(t *testing.T) {
	db := storage.NewMemDB()
	ledger, err := NewLedger(db)
	if err != nil {
		t.Fatalf("new ledger: %v", err)
	}
	alice := testAddr(0x01)
	token := testAddr(0x10)
	if err := ledger.NativeMint(alice, big.NewInt(42)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := ledger.TokenMint(token, alice, big.NewInt(7)); err != nil {
		t.Fatalf("token mint: %v", err)
	}

	reopened, err := NewLedger(db)
	if err != nil {
		t.Fatalf("reopen ledger: %v", err)
	}
	if got := reopened.NativeBalanceOf(alice); got.Cmp(big.NewInt(42)) != 0 {
		t.Fatalf("native balance after reopen = %s, want 42", got)
	}
	if got := reopened.BalanceOf(token, alice); got.Cmp(big.NewInt(7)) != 0 {
		t.Fatalf("token balance after reopen = %s, want 7", got)
	}
}
