package state

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"

	"dsponsor/storage"
)

var (
	// ErrNegativeAmount rejects transfers and approvals of negative values.
	ErrNegativeAmount = errors.New("state: negative amount")
	// ErrInsufficientNative signals a native debit exceeding the balance.
	ErrInsufficientNative = errors.New("state: insufficient native balance")
	// ErrInsufficientBalance mirrors the ERC20 transfer failure text so the
	// mint pipeline propagates the same message a token contract would raise.
	ErrInsufficientBalance = errors.New("ERC20: transfer amount exceeds balance")
	// ErrInsufficientAllowance mirrors the ERC20 allowance failure text.
	ErrInsufficientAllowance = errors.New("ERC20: insufficient allowance")
)

const accountKeyPrefix = "acct/"

// tokenBalance and allowanceEntry are stored as sorted-insertion slices since
// RLP has no map encoding.
type tokenBalance struct {
	Token  common.Address
	Amount *big.Int
}

type allowanceEntry struct {
	Token   common.Address
	Spender common.Address
	Amount  *big.Int
}

type account struct {
	Native     *big.Int
	Tokens     []tokenBalance
	Allowances []allowanceEntry
}

// Ledger is the account substrate shared by every campaign: native balances
// plus per-token balances and allowances, keyed by 20-byte address. It
// implements the currency-transfer and balance-query capabilities consumed by
// the mint gateway and the treasury splitter.
type Ledger struct {
	mu sync.RWMutex
	db storage.Database
}

// NewLedger creates a ledger backed by the supplied key-value store.
func NewLedger(db storage.Database) (*Ledger, error) {
	if db == nil {
		return nil, fmt.Errorf("state: database required")
	}
	return &Ledger{db: db}, nil
}

func accountKey(addr common.Address) []byte {
	return append([]byte(accountKeyPrefix), addr.Bytes()...)
}

func (l *Ledger) loadAccount(addr common.Address) (*account, error) {
	data, err := l.db.Get(accountKey(addr))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return &account{Native: big.NewInt(0)}, nil
	}
	if err != nil {
		return nil, err
	}
	acc := new(account)
	if err := rlp.DecodeBytes(data, acc); err != nil {
		return nil, fmt.Errorf("state: decode account %s: %w", addr.Hex(), err)
	}
	if acc.Native == nil {
		acc.Native = big.NewInt(0)
	}
	return acc, nil
}

func (l *Ledger) storeAccount(addr common.Address, acc *account) error {
	if acc.Native == nil {
		acc.Native = big.NewInt(0)
	}
	encoded, err := rlp.EncodeToBytes(acc)
	if err != nil {
		return fmt.Errorf("state: encode account %s: %w", addr.Hex(), err)
	}
	return l.db.Put(accountKey(addr), encoded)
}

func (acc *account) tokenAmount(token common.Address) *big.Int {
	for i := range acc.Tokens {
		if acc.Tokens[i].Token == token {
			return acc.Tokens[i].Amount
		}
	}
	return nil
}

func (acc *account) setTokenAmount(token common.Address, amount *big.Int) {
	for i := range acc.Tokens {
		if acc.Tokens[i].Token == token {
			acc.Tokens[i].Amount = amount
			return
		}
	}
	acc.Tokens = append(acc.Tokens, tokenBalance{Token: token, Amount: amount})
}

func (acc *account) allowanceAmount(token, spender common.Address) *big.Int {
	for i := range acc.Allowances {
		if acc.Allowances[i].Token == token && acc.Allowances[i].Spender == spender {
			return acc.Allowances[i].Amount
		}
	}
	return nil
}

func (acc *account) setAllowance(token, spender common.Address, amount *big.Int) {
	for i := range acc.Allowances {
		if acc.Allowances[i].Token == token && acc.Allowances[i].Spender == spender {
			acc.Allowances[i].Amount = amount
			return
		}
	}
	acc.Allowances = append(acc.Allowances, allowanceEntry{Token: token, Spender: spender, Amount: amount})
}

func checkAmount(amount *big.Int) (*big.Int, error) {
	if amount == nil {
		return big.NewInt(0), nil
	}
	if amount.Sign() < 0 {
		return nil, ErrNegativeAmount
	}
	return new(big.Int).Set(amount), nil
}

// NativeBalanceOf returns the native-currency balance of addr.
func (l *Ledger) NativeBalanceOf(addr common.Address) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	acc, err := l.loadAccount(addr)
	if err != nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(acc.Native)
}

// NativeMint credits freshly issued native funds to an account. Used by the
// daemon bootstrap and tests; there is no corresponding burn.
func (l *Ledger) NativeMint(to common.Address, amount *big.Int) error {
	amt, err := checkAmount(amount)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	acc, err := l.loadAccount(to)
	if err != nil {
		return err
	}
	acc.Native = new(big.Int).Add(acc.Native, amt)
	return l.storeAccount(to, acc)
}

// NativeTransfer moves native funds between two accounts.
func (l *Ledger) NativeTransfer(from, to common.Address, amount *big.Int) error {
	amt, err := checkAmount(amount)
	if err != nil {
		return err
	}
	if amt.Sign() == 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fromAcc, err := l.loadAccount(from)
	if err != nil {
		return err
	}
	if fromAcc.Native.Cmp(amt) < 0 {
		return ErrInsufficientNative
	}
	if from == to {
		return nil
	}
	toAcc, err := l.loadAccount(to)
	if err != nil {
		return err
	}
	fromAcc.Native = new(big.Int).Sub(fromAcc.Native, amt)
	toAcc.Native = new(big.Int).Add(toAcc.Native, amt)
	if err := l.storeAccount(from, fromAcc); err != nil {
		return err
	}
	return l.storeAccount(to, toAcc)
}

// BalanceOf returns the balance addr holds in the given token.
func (l *Ledger) BalanceOf(token, addr common.Address) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	acc, err := l.loadAccount(addr)
	if err != nil {
		return big.NewInt(0)
	}
	if bal := acc.tokenAmount(token); bal != nil {
		return new(big.Int).Set(bal)
	}
	return big.NewInt(0)
}

// TokenMint credits freshly issued token units to an account.
func (l *Ledger) TokenMint(token, to common.Address, amount *big.Int) error {
	amt, err := checkAmount(amount)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	acc, err := l.loadAccount(to)
	if err != nil {
		return err
	}
	bal := acc.tokenAmount(token)
	if bal == nil {
		bal = big.NewInt(0)
	}
	acc.setTokenAmount(token, new(big.Int).Add(bal, amt))
	return l.storeAccount(to, acc)
}

// Transfer moves token units between two accounts.
func (l *Ledger) Transfer(token, from, to common.Address, amount *big.Int) error {
	amt, err := checkAmount(amount)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.transferLocked(token, from, to, amt)
}

func (l *Ledger) transferLocked(token, from, to common.Address, amt *big.Int) error {
	if amt.Sign() == 0 {
		return nil
	}
	fromAcc, err := l.loadAccount(from)
	if err != nil {
		return err
	}
	fromBal := fromAcc.tokenAmount(token)
	if fromBal == nil || fromBal.Cmp(amt) < 0 {
		return ErrInsufficientBalance
	}
	if from == to {
		return nil
	}
	toAcc, err := l.loadAccount(to)
	if err != nil {
		return err
	}
	toBal := toAcc.tokenAmount(token)
	if toBal == nil {
		toBal = big.NewInt(0)
	}
	fromAcc.setTokenAmount(token, new(big.Int).Sub(fromBal, amt))
	toAcc.setTokenAmount(token, new(big.Int).Add(toBal, amt))
	if err := l.storeAccount(from, fromAcc); err != nil {
		return err
	}
	return l.storeAccount(to, toAcc)
}

// Approve lets owner authorise spender to move up to amount of token on the
// owner's behalf. A fresh approval overwrites any prior allowance.
func (l *Ledger) Approve(token, owner, spender common.Address, amount *big.Int) error {
	amt, err := checkAmount(amount)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	acc, err := l.loadAccount(owner)
	if err != nil {
		return err
	}
	acc.setAllowance(token, spender, amt)
	return l.storeAccount(owner, acc)
}

// Allowance reports how much of token spender may still move out of owner.
func (l *Ledger) Allowance(token, owner, spender common.Address) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	acc, err := l.loadAccount(owner)
	if err != nil {
		return big.NewInt(0)
	}
	if amt := acc.allowanceAmount(token, spender); amt != nil {
		return new(big.Int).Set(amt)
	}
	return big.NewInt(0)
}

// TransferFrom moves token units from an account by consuming the allowance
// previously granted to spender.
func (l *Ledger) TransferFrom(token, spender, from, to common.Address, amount *big.Int) error {
	amt, err := checkAmount(amount)
	if err != nil {
		return err
	}
	if amt.Sign() == 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fromAcc, err := l.loadAccount(from)
	if err != nil {
		return err
	}
	allowed := fromAcc.allowanceAmount(token, spender)
	if allowed == nil || allowed.Cmp(amt) < 0 {
		return ErrInsufficientAllowance
	}
	if err := l.transferLocked(token, from, to, amt); err != nil {
		return err
	}
	// The transfer rewrites the from account; reload before adjusting the
	// allowance so the balance update is not lost.
	fromAcc, err = l.loadAccount(from)
	if err != nil {
		return err
	}
	allowed = fromAcc.allowanceAmount(token, spender)
	fromAcc.setAllowance(token, spender, new(big.Int).Sub(allowed, amt))
	return l.storeAccount(from, fromAcc)
}
