package splitter

import (
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"dsponsor/core/events"
)

var (
	// ErrLengthMismatch rejects construction with unequal payee and share
	// lists.
	ErrLengthMismatch = errors.New("splitter: payees and shares length mismatch")
	// ErrNoPayees rejects construction with an empty payee list.
	ErrNoPayees = errors.New("splitter: no payees")
	// ErrZeroAddressPayee rejects a zero-address payee.
	ErrZeroAddressPayee = errors.New("splitter: account is the zero address")
	// ErrZeroShares rejects a payee with a zero share count.
	ErrZeroShares = errors.New("splitter: shares are 0")
	// ErrDuplicatePayee rejects a payee listed twice.
	ErrDuplicatePayee = errors.New("splitter: account already has shares")
	// ErrNoShares signals a release for an account outside the payee set.
	ErrNoShares = errors.New("splitter: account has no shares")
	// ErrNotDuePayment signals a release when the account's entitlement has
	// already been paid out in full.
	ErrNotDuePayment = errors.New("splitter: account is not due payment")
)

// Ledger is the balance and transfer capability the splitter consumes. The
// production implementation is core/state.Ledger.
type Ledger interface {
	NativeBalanceOf(addr common.Address) *big.Int
	NativeTransfer(from, to common.Address, amount *big.Int) error
	BalanceOf(token, addr common.Address) *big.Int
	Transfer(token, from, to common.Address, amount *big.Int) error
}

type tokenPayee struct {
	token common.Address
	payee common.Address
}

// Splitter is a pull-payment treasury: funds accumulate on its module
// account and each payee withdraws its proportional entitlement on demand.
// Entitlements are computed from the lifetime total (current balance plus
// everything already released), so funds sent directly to the account
// without notification still split correctly.
type Splitter struct {
	mu sync.Mutex

	addr   common.Address
	ledger Ledger

	payees      []common.Address
	shares      map[common.Address]*big.Int
	totalShares *big.Int

	released      map[common.Address]*big.Int
	totalReleased *big.Int

	tokenReleased      map[tokenPayee]*big.Int
	tokenTotalReleased map[common.Address]*big.Int

	emitter events.Emitter
}

// NewSplitter creates a treasury over the given module account. The payee and
// share lists must be the same non-zero length, with non-zero addresses,
// positive shares and no duplicates.
func NewSplitter(addr common.Address, ledger Ledger, payees []common.Address, shares []*big.Int) (*Splitter, error) {
	if len(payees) != len(shares) {
		return nil, ErrLengthMismatch
	}
	if len(payees) == 0 {
		return nil, ErrNoPayees
	}
	s := &Splitter{
		addr:               addr,
		ledger:             ledger,
		shares:             make(map[common.Address]*big.Int, len(payees)),
		totalShares:        big.NewInt(0),
		released:           make(map[common.Address]*big.Int),
		totalReleased:      big.NewInt(0),
		tokenReleased:      make(map[tokenPayee]*big.Int),
		tokenTotalReleased: make(map[common.Address]*big.Int),
		emitter:            events.NoopEmitter{},
	}
	for i, payee := range payees {
		if payee == (common.Address{}) {
			return nil, ErrZeroAddressPayee
		}
		if shares[i] == nil || shares[i].Sign() <= 0 {
			return nil, ErrZeroShares
		}
		if _, dup := s.shares[payee]; dup {
			return nil, ErrDuplicatePayee
		}
		s.payees = append(s.payees, payee)
		s.shares[payee] = new(big.Int).Set(shares[i])
		s.totalShares.Add(s.totalShares, shares[i])
	}
	return s, nil
}

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (s *Splitter) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		s.emitter = events.NoopEmitter{}
		return
	}
	s.emitter = emitter
}

// Address returns the treasury's module account on the ledger.
func (s *Splitter) Address() common.Address { return s.addr }

// Payees returns the payee set in registration order.
func (s *Splitter) Payees() []common.Address {
	out := make([]common.Address, len(s.payees))
	copy(out, s.payees)
	return out
}

// TotalShares returns the sum of all registered shares.
func (s *Splitter) TotalShares() *big.Int {
	return new(big.Int).Set(s.totalShares)
}

// Shares returns the share count held by an account, zero for non-payees.
func (s *Splitter) Shares(account common.Address) *big.Int {
	if shares, ok := s.shares[account]; ok {
		return new(big.Int).Set(shares)
	}
	return big.NewInt(0)
}

// Released returns the native amount already paid out to an account.
func (s *Splitter) Released(account common.Address) *big.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.releasedLocked(account)
}

func (s *Splitter) releasedLocked(account common.Address) *big.Int {
	if rel, ok := s.released[account]; ok {
		return new(big.Int).Set(rel)
	}
	return big.NewInt(0)
}

// TotalReleased returns the native amount paid out across all payees.
func (s *Splitter) TotalReleased() *big.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return new(big.Int).Set(s.totalReleased)
}

// TokenReleased returns the token amount already paid out to an account.
func (s *Splitter) TokenReleased(token, account common.Address) *big.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokenReleasedLocked(token, account)
}

func (s *Splitter) tokenReleasedLocked(token, account common.Address) *big.Int {
	if rel, ok := s.tokenReleased[tokenPayee{token, account}]; ok {
		return new(big.Int).Set(rel)
	}
	return big.NewInt(0)
}

// TokenTotalReleased returns the token amount paid out across all payees.
func (s *Splitter) TokenTotalReleased(token common.Address) *big.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rel, ok := s.tokenTotalReleased[token]; ok {
		return new(big.Int).Set(rel)
	}
	return big.NewInt(0)
}

func pendingPayment(shares, totalShares, totalReceived, alreadyReleased *big.Int) *big.Int {
	entitled := new(big.Int).Mul(totalReceived, shares)
	entitled.Div(entitled, totalShares)
	return entitled.Sub(entitled, alreadyReleased)
}

// Releasable returns the native amount an account may withdraw right now.
func (s *Splitter) Releasable(account common.Address) *big.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.releasableLocked(account)
}

func (s *Splitter) releasableLocked(account common.Address) *big.Int {
	shares, ok := s.shares[account]
	if !ok {
		return big.NewInt(0)
	}
	totalReceived := new(big.Int).Add(s.ledger.NativeBalanceOf(s.addr), s.totalReleased)
	return pendingPayment(shares, s.totalShares, totalReceived, s.releasedLocked(account))
}

// Release pays out the account's pending native entitlement and returns the
// amount moved.
func (s *Splitter) Release(account common.Address) (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.shares[account]; !ok {
		return nil, ErrNoShares
	}
	pending := s.releasableLocked(account)
	if pending.Sign() == 0 {
		return nil, ErrNotDuePayment
	}
	if err := s.ledger.NativeTransfer(s.addr, account, pending); err != nil {
		return nil, err
	}
	s.released[account] = new(big.Int).Add(s.releasedLocked(account), pending)
	s.totalReleased.Add(s.totalReleased, pending)
	s.emitter.Emit(events.PaymentReleased{Treasury: s.addr, Payee: account, Amount: pending})
	return pending, nil
}

// ReleasableToken returns the token amount an account may withdraw right now.
func (s *Splitter) ReleasableToken(token, account common.Address) *big.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.releasableTokenLocked(token, account)
}

func (s *Splitter) releasableTokenLocked(token, account common.Address) *big.Int {
	shares, ok := s.shares[account]
	if !ok {
		return big.NewInt(0)
	}
	totalReleased := s.tokenTotalReleased[token]
	if totalReleased == nil {
		totalReleased = big.NewInt(0)
	}
	totalReceived := new(big.Int).Add(s.ledger.BalanceOf(token, s.addr), totalReleased)
	return pendingPayment(shares, s.totalShares, totalReceived, s.tokenReleasedLocked(token, account))
}

// ReleaseToken pays out the account's pending token entitlement and returns
// the amount moved.
func (s *Splitter) ReleaseToken(token, account common.Address) (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.shares[account]; !ok {
		return nil, ErrNoShares
	}
	pending := s.releasableTokenLocked(token, account)
	if pending.Sign() == 0 {
		return nil, ErrNotDuePayment
	}
	if err := s.ledger.Transfer(token, s.addr, account, pending); err != nil {
		return nil, err
	}
	s.tokenReleased[tokenPayee{token, account}] = new(big.Int).Add(s.tokenReleasedLocked(token, account), pending)
	total := s.tokenTotalReleased[token]
	if total == nil {
		total = big.NewInt(0)
		s.tokenTotalReleased[token] = total
	}
	total.Add(total, pending)
	s.emitter.Emit(events.TokenPaymentReleased{Treasury: s.addr, Token: token, Payee: account, Amount: pending})
	return pending, nil
}
