package nft

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"dsponsor/core/events"
	"dsponsor/core/types"
)

var (
	errTransferExceedsBalance = errors.New("ERC20: transfer amount exceeds balance")
	errInsufficientAllowance  = errors.New("ERC20: insufficient allowance")
	errInsufficientNative     = errors.New("insufficient native balance")
)

type balanceKey struct {
	token common.Address
	addr  common.Address
}

// mockLedger mimics the account substrate: native balances plus token
// balances and per-owner allowances granted to the gateway.
type mockLedger struct {
	native     map[common.Address]*big.Int
	tokens     map[balanceKey]*big.Int
	allowances map[balanceKey]*big.Int
}

func newMockLedger() *mockLedger {
	return &mockLedger{
		native:     make(map[common.Address]*big.Int),
		tokens:     make(map[balanceKey]*big.Int),
		allowances: make(map[balanceKey]*big.Int),
	}
}

func (m *mockLedger) nativeBalance(addr common.Address) *big.Int {
	if bal, ok := m.native[addr]; ok {
		return bal
	}
	zero := big.NewInt(0)
	m.native[addr] = zero
	return zero
}

func (m *mockLedger) fundNative(addr common.Address, amount int64) {
	m.native[addr] = big.NewInt(amount)
}

func (m *mockLedger) fundToken(token, addr common.Address, amount int64) {
	m.tokens[balanceKey{token, addr}] = big.NewInt(amount)
}

func (m *mockLedger) approve(token, owner common.Address, amount int64) {
	m.allowances[balanceKey{token, owner}] = big.NewInt(amount)
}

func (m *mockLedger) tokenBalance(token, addr common.Address) *big.Int {
	if bal, ok := m.tokens[balanceKey{token, addr}]; ok {
		return bal
	}
	zero := big.NewInt(0)
	m.tokens[balanceKey{token, addr}] = zero
	return zero
}

func (m *mockLedger) NativeTransfer(from, to common.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	fromBal := m.nativeBalance(from)
	if fromBal.Cmp(amount) < 0 {
		return errInsufficientNative
	}
	m.native[from] = new(big.Int).Sub(fromBal, amount)
	m.native[to] = new(big.Int).Add(m.nativeBalance(to), amount)
	return nil
}

func (m *mockLedger) TransferFrom(token, spender, from, to common.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	allowed, ok := m.allowances[balanceKey{token, from}]
	if !ok || allowed.Cmp(amount) < 0 {
		return errInsufficientAllowance
	}
	fromBal := m.tokenBalance(token, from)
	if fromBal.Cmp(amount) < 0 {
		return errTransferExceedsBalance
	}
	m.allowances[balanceKey{token, from}] = new(big.Int).Sub(allowed, amount)
	m.tokens[balanceKey{token, from}] = new(big.Int).Sub(fromBal, amount)
	m.tokens[balanceKey{token, to}] = new(big.Int).Add(m.tokenBalance(token, to), amount)
	return nil
}

type capturingEmitter struct {
	events []*types.Event
}

func (c *capturingEmitter) Emit(evt events.Event) {
	c.events = append(c.events, evt.Event())
}

func (c *capturingEmitter) last() *types.Event {
	if len(c.events) == 0 {
		return nil
	}
	return c.events[len(c.events)-1]
}

func addr(fill byte) common.Address {
	var a common.Address
	for i := range a {
		a[i] = fill
	}
	return a
}

var (
	controller  = addr(0xC0)
	treasury    = addr(0xEE)
	gatewayAddr = addr(0x6A)
	buyer       = addr(0xB1)
	recipient   = addr(0xB2)
	token       = addr(0x20)
)

func newTestEngine(t *testing.T, maxSupply uint64, ledger Ledger) *Engine {
	t.Helper()
	engine, err := NewEngine("DSponsorNFT-test", "DNFTTEST", maxSupply, controller, treasury, gatewayAddr, ledger)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func TestNewEngineValidation(t *testing.T) {
	ledger := newMockLedger()
	if _, err := NewEngine("t", "t", 1, common.Address{}, treasury, gatewayAddr, ledger); !errors.Is(err, ErrCannotBeZeroAddress) {
		t.Fatalf("zero controller error = %v", err)
	}
	if _, err := NewEngine("t", "t", 1, controller, common.Address{}, gatewayAddr, ledger); !errors.Is(err, ErrCannotBeZeroAddress) {
		t.Fatalf("zero treasury error = %v", err)
	}
	if _, err := NewEngine("t", "t", 0, controller, treasury, gatewayAddr, ledger); !errors.Is(err, ErrMaxSupplyZero) {
		t.Fatalf("zero supply error = %v", err)
	}
}

func TestSupportsInterface(t *testing.T) {
	engine := newTestEngine(t, 5, newMockLedger())
	supported := [][4]byte{InterfaceERC165, InterfaceERC721, InterfaceERC721Metadata, InterfaceERC2981}
	for _, id := range supported {
		if !engine.SupportsInterface(id) {
			t.Fatalf("interface %x should be supported", id)
		}
	}
	unsupported := [][4]byte{
		{0x80, 0xac, 0x58, 0xcf}, // dummy
		{0x78, 0x0e, 0x9d, 0x63}, // ERC721Enumerable
		{0x4e, 0x23, 0x12, 0xe0}, // ERC1155Receiver
		{0x36, 0x37, 0x2b, 0x07}, // ERC20
	}
	for _, id := range unsupported {
		if engine.SupportsInterface(id) {
			t.Fatalf("interface %x should not be supported", id)
		}
	}
}

func TestSetPriceControllerOnly(t *testing.T) {
	engine := newTestEngine(t, 5, newMockLedger())
	if err := engine.SetPrice(buyer, token, true, big.NewInt(100)); !errors.Is(err, ErrForbiddenControllerOperation) {
		t.Fatalf("non-controller setPrice error = %v", err)
	}
	if err := engine.SetPrice(controller, token, true, big.NewInt(100)); err != nil {
		t.Fatalf("setPrice: %v", err)
	}

	enabled, amount := engine.MintPrice(token)
	if !enabled || amount.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("price = (%v, %s)", enabled, amount)
	}

	// Unknown currencies report (false, 0).
	enabled, amount = engine.MintPrice(addr(0x77))
	if enabled || amount.Sign() != 0 {
		t.Fatalf("unknown price = (%v, %s)", enabled, amount)
	}

	// Disabling keeps the stored amount.
	if err := engine.SetPrice(controller, token, false, big.NewInt(100)); err != nil {
		t.Fatalf("disable price: %v", err)
	}
	enabled, amount = engine.MintPrice(token)
	if enabled || amount.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("disabled price = (%v, %s)", enabled, amount)
	}
}

func TestPayAndMintWithToken(t *testing.T) {
	ledger := newMockLedger()
	engine := newTestEngine(t, 5, ledger)
	emitter := &capturingEmitter{}
	engine.SetEmitter(emitter)

	if err := engine.SetPrice(controller, token, true, big.NewInt(100)); err != nil {
		t.Fatalf("setPrice: %v", err)
	}
	ledger.fundToken(token, buyer, 1000)
	ledger.approve(token, buyer, 200)

	slotID, err := engine.PayAndMint(buyer, token, recipient, []byte("referralData"), nil)
	if err != nil {
		t.Fatalf("first mint: %v", err)
	}
	if slotID != 0 {
		t.Fatalf("first slot id = %d, want 0", slotID)
	}
	if got := ledger.tokenBalance(token, treasury); got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("treasury balance = %s, want 100", got)
	}
	if got := ledger.tokenBalance(token, buyer); got.Cmp(big.NewInt(900)) != 0 {
		t.Fatalf("buyer balance = %s, want 900", got)
	}
	if owner, err := engine.OwnerOf(0); err != nil || owner != recipient {
		t.Fatalf("owner of slot 0 = (%s, %v)", owner.Hex(), err)
	}
	if got := engine.BalanceOf(recipient); got != 1 {
		t.Fatalf("recipient slot balance = %d", got)
	}

	evt := emitter.last()
	if evt.Type != "nft.minted" || evt.Attributes["amountPaid"] != "100" || evt.Attributes["slotId"] != "0" {
		t.Fatalf("mint event = %+v", evt)
	}
	if evt.Attributes["payer"] != buyer.Hex() || evt.Attributes["recipient"] != recipient.Hex() {
		t.Fatalf("mint event principals = %+v", evt.Attributes)
	}

	// Remaining allowance covers exactly one more mint.
	slotID, err = engine.PayAndMint(buyer, token, recipient, nil, nil)
	if err != nil {
		t.Fatalf("second mint: %v", err)
	}
	if slotID != 1 {
		t.Fatalf("second slot id = %d, want 1", slotID)
	}

	// Exhausted allowance propagates the transfer failure unmodified.
	if _, err := engine.PayAndMint(buyer, token, recipient, nil, nil); !errors.Is(err, errInsufficientAllowance) {
		t.Fatalf("third mint error = %v, want allowance failure", err)
	}
	if got := engine.TotalSupply(); got != 2 {
		t.Fatalf("total supply = %d, want 2", got)
	}
}

func TestPayAndMintWithNative(t *testing.T) {
	ledger := newMockLedger()
	engine := newTestEngine(t, 5, ledger)

	if err := engine.SetPrice(controller, NativeCurrency, true, big.NewInt(100)); err != nil {
		t.Fatalf("setPrice: %v", err)
	}
	ledger.fundNative(buyer, 1000)

	// Below price.
	if _, err := engine.PayAndMint(buyer, NativeCurrency, recipient, nil, big.NewInt(99)); !errors.Is(err, ErrAmountValueTooLow) {
		t.Fatalf("underpaid error = %v", err)
	}

	// Exact price: full amount forwarded to treasury.
	if _, err := engine.PayAndMint(buyer, NativeCurrency, recipient, nil, big.NewInt(100)); err != nil {
		t.Fatalf("exact mint: %v", err)
	}
	if got := ledger.nativeBalance(treasury); got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("treasury = %s, want 100", got)
	}

	// Excess stays with the gateway account, not refunded.
	if _, err := engine.PayAndMint(buyer, NativeCurrency, recipient, nil, big.NewInt(150)); err != nil {
		t.Fatalf("overpaid mint: %v", err)
	}
	if got := ledger.nativeBalance(treasury); got.Cmp(big.NewInt(200)) != 0 {
		t.Fatalf("treasury = %s, want 200", got)
	}
	if got := ledger.nativeBalance(gatewayAddr); got.Cmp(big.NewInt(50)) != 0 {
		t.Fatalf("gateway = %s, want 50", got)
	}
	if got := ledger.nativeBalance(buyer); got.Cmp(big.NewInt(750)) != 0 {
		t.Fatalf("buyer = %s, want 750", got)
	}
}

func TestPayAndMintFree(t *testing.T) {
	ledger := newMockLedger()
	engine := newTestEngine(t, 5, ledger)

	if err := engine.SetPrice(controller, NativeCurrency, true, big.NewInt(0)); err != nil {
		t.Fatalf("setPrice native: %v", err)
	}
	if err := engine.SetPrice(controller, token, true, big.NewInt(0)); err != nil {
		t.Fatalf("setPrice token: %v", err)
	}

	if _, err := engine.PayAndMint(buyer, NativeCurrency, recipient, nil, nil); err != nil {
		t.Fatalf("free native mint: %v", err)
	}
	if _, err := engine.PayAndMint(buyer, token, recipient, nil, nil); err != nil {
		t.Fatalf("free token mint: %v", err)
	}
	if got := engine.TotalSupply(); got != 2 {
		t.Fatalf("total supply = %d", got)
	}
	if got := ledger.nativeBalance(treasury); got.Sign() != 0 {
		t.Fatalf("treasury should be empty, got %s", got)
	}
}

func TestPayAndMintArgumentValidation(t *testing.T) {
	engine := newTestEngine(t, 5, newMockLedger())

	if _, err := engine.PayAndMint(buyer, token, common.Address{}, nil, nil); !errors.Is(err, ErrCannotBeZeroAddress) {
		t.Fatalf("zero recipient error = %v", err)
	}

	var fcErr ForbiddenCurrencyError
	_, err := engine.PayAndMint(buyer, token, recipient, nil, nil)
	if !errors.Is(err, ErrForbiddenCurrency) {
		t.Fatalf("unpriced currency error = %v", err)
	}
	if !errors.As(err, &fcErr) || fcErr.Currency != token {
		t.Fatalf("error should carry the rejected currency, got %v", err)
	}

	if err := engine.SetPrice(controller, token, false, big.NewInt(5)); err != nil {
		t.Fatalf("setPrice: %v", err)
	}
	if _, err := engine.PayAndMint(buyer, token, recipient, nil, nil); !errors.Is(err, ErrForbiddenCurrency) {
		t.Fatalf("disabled currency error = %v", err)
	}
}

func TestPayAndMintSupplyCap(t *testing.T) {
	ledger := newMockLedger()
	engine := newTestEngine(t, 3, ledger)

	if err := engine.SetPrice(controller, token, true, big.NewInt(2)); err != nil {
		t.Fatalf("setPrice: %v", err)
	}
	ledger.fundToken(token, buyer, 1000)
	ledger.approve(token, buyer, 1000000)

	for i := uint64(0); i < 3; i++ {
		slotID, err := engine.PayAndMint(buyer, token, recipient, nil, nil)
		if err != nil {
			t.Fatalf("mint %d: %v", i, err)
		}
		if slotID != i {
			t.Fatalf("slot id = %d, want %d", slotID, i)
		}
	}
	if _, err := engine.PayAndMint(buyer, token, recipient, nil, nil); !errors.Is(err, ErrMaxSupplyExceeded) {
		t.Fatalf("cap error = %v", err)
	}
}

// reentrantLedger plays the part of a malicious currency implementation that
// calls back into the gateway during payment collection.
type reentrantLedger struct {
	engine   *Engine
	inner    error
	attempts int
}

func (r *reentrantLedger) NativeTransfer(from, to common.Address, amount *big.Int) error {
	return nil
}

func (r *reentrantLedger) TransferFrom(token, spender, from, to common.Address, amount *big.Int) error {
	r.attempts++
	_, r.inner = r.engine.PayAndMint(from, token, from, nil, nil)
	return r.inner
}

func TestPayAndMintReentrancyGuard(t *testing.T) {
	ledger := &reentrantLedger{}
	engine := newTestEngine(t, 10, ledger)
	ledger.engine = engine

	if err := engine.SetPrice(controller, token, true, big.NewInt(100)); err != nil {
		t.Fatalf("setPrice: %v", err)
	}

	if _, err := engine.PayAndMint(buyer, token, recipient, nil, nil); !errors.Is(err, ErrReentrancy) {
		t.Fatalf("outer mint error = %v, want ErrReentrancy", err)
	}
	if !errors.Is(ledger.inner, ErrReentrancy) {
		t.Fatalf("inner mint error = %v, want ErrReentrancy", ledger.inner)
	}
	if got := engine.TotalSupply(); got != 0 {
		t.Fatalf("total supply = %d, want 0", got)
	}

	// The guard clears after the failed attempt.
	if err := engine.SetPrice(controller, token, true, big.NewInt(0)); err != nil {
		t.Fatalf("reprice: %v", err)
	}
	if _, err := engine.PayAndMint(buyer, token, recipient, nil, nil); err != nil {
		t.Fatalf("mint after guard clear: %v", err)
	}
}

func TestURIResolution(t *testing.T) {
	ledger := newMockLedger()
	engine := newTestEngine(t, 5, ledger)

	if err := engine.SetPrice(controller, token, true, big.NewInt(0)); err != nil {
		t.Fatalf("setPrice: %v", err)
	}
	if _, err := engine.PayAndMint(buyer, token, recipient, nil, nil); err != nil {
		t.Fatalf("mint: %v", err)
	}

	if err := engine.SetBaseURI(buyer, "baseURI"); !errors.Is(err, ErrForbiddenControllerOperation) {
		t.Fatalf("non-controller setBaseURI error = %v", err)
	}
	if err := engine.SetContractURI(buyer, "x"); !errors.Is(err, ErrForbiddenControllerOperation) {
		t.Fatalf("non-controller setContractURI error = %v", err)
	}
	if err := engine.SetTokenURI(buyer, 0, "x"); !errors.Is(err, ErrForbiddenControllerOperation) {
		t.Fatalf("non-controller setTokenURI error = %v", err)
	}

	if err := engine.SetBaseURI(controller, "baseURI"); err != nil {
		t.Fatalf("setBaseURI: %v", err)
	}
	if err := engine.SetContractURI(controller, "contractURI"); err != nil {
		t.Fatalf("setContractURI: %v", err)
	}
	if got := engine.ContractURI(); got != "contractURI" {
		t.Fatalf("contractURI = %q", got)
	}

	// No override: base plus decimal id.
	if got, err := engine.TokenURI(0); err != nil || got != "baseURI0" {
		t.Fatalf("tokenURI = (%q, %v)", got, err)
	}

	if err := engine.SetTokenURI(controller, 0, "tokenURI1"); err != nil {
		t.Fatalf("setTokenURI: %v", err)
	}
	if got, err := engine.TokenURI(0); err != nil || got != "baseURItokenURI1" {
		t.Fatalf("tokenURI with override = (%q, %v)", got, err)
	}

	// Overrides may target not-yet-minted slots below the cap; beyond the
	// cap they are invalid.
	if err := engine.SetTokenURI(controller, 1, "tokenURI2"); err != nil {
		t.Fatalf("setTokenURI unminted: %v", err)
	}
	if err := engine.SetTokenURI(controller, 5, "maxURI"); !errors.Is(err, ErrInvalidTokenID) {
		t.Fatalf("setTokenURI beyond cap error = %v", err)
	}

	// Empty base returns the raw override.
	if err := engine.SetBaseURI(controller, ""); err != nil {
		t.Fatalf("clear base: %v", err)
	}
	if got, err := engine.TokenURI(0); err != nil || got != "tokenURI1" {
		t.Fatalf("tokenURI with empty base = (%q, %v)", got, err)
	}

	// Unminted slots do not resolve.
	if _, err := engine.TokenURI(1); !errors.Is(err, ErrInvalidTokenID) {
		t.Fatalf("unminted tokenURI error = %v", err)
	}
	if _, err := engine.URI(1); !errors.Is(err, ErrInvalidTokenID) {
		t.Fatalf("unminted uri error = %v", err)
	}
}

func TestRoyalty(t *testing.T) {
	engine := newTestEngine(t, 5, newMockLedger())

	if err := engine.SetRoyalty(buyer, 100); !errors.Is(err, ErrForbiddenControllerOperation) {
		t.Fatalf("non-controller setRoyalty error = %v", err)
	}

	receiver, amount := engine.RoyaltyInfo(0, big.NewInt(100))
	if receiver != (common.Address{}) || amount.Sign() != 0 {
		t.Fatalf("unset royalty = (%s, %s)", receiver.Hex(), amount)
	}

	if err := engine.SetRoyalty(controller, 500); err != nil {
		t.Fatalf("setRoyalty: %v", err)
	}
	receiver, amount = engine.RoyaltyInfo(0, big.NewInt(100))
	if receiver != treasury || amount.Cmp(big.NewInt(5)) != 0 {
		t.Fatalf("royalty = (%s, %s)", receiver.Hex(), amount)
	}

	if err := engine.SetRoyalty(controller, 10001); !errors.Is(err, ErrRoyaltyTooHigh) {
		t.Fatalf("excessive royalty error = %v", err)
	}
}
