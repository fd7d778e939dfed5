package nft

import (
	"math/big"
	"strconv"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"dsponsor/core/events"
)

// Engine is the priced mint gateway for one campaign collection: a
// per-currency price table, sequential slot allocation up to a fixed supply
// cap, URI metadata and the secondary-sale royalty policy. Proceeds are
// forwarded to the campaign treasury in the same operation that mints.
//
// The engine owns a module account (addr) on the ledger; excess native
// payment above the configured price accumulates there and is never
// refunded.
type Engine struct {
	mu sync.RWMutex

	name      string
	symbol    string
	maxSupply uint64

	controller common.Address
	treasury   common.Address
	addr       common.Address
	ledger     Ledger

	prices    map[common.Address]PriceEntry
	owners    map[uint64]common.Address
	balances  map[common.Address]uint64
	nextID    uint64
	royalties uint32

	baseURI     string
	contractURI string
	tokenURIs   map[uint64]string

	minting bool

	emitter events.Emitter
}

// NewEngine creates a mint gateway. maxSupply must be positive; controller,
// treasury and the gateway's own ledger address must be non-zero.
func NewEngine(name, symbol string, maxSupply uint64, controller, treasury, addr common.Address, ledger Ledger) (*Engine, error) {
	if controller == (common.Address{}) || treasury == (common.Address{}) || addr == (common.Address{}) {
		return nil, ErrCannotBeZeroAddress
	}
	if maxSupply == 0 {
		return nil, ErrMaxSupplyZero
	}
	return &Engine{
		name:       name,
		symbol:     symbol,
		maxSupply:  maxSupply,
		controller: controller,
		treasury:   treasury,
		addr:       addr,
		ledger:     ledger,
		prices:     make(map[common.Address]PriceEntry),
		owners:     make(map[uint64]common.Address),
		balances:   make(map[common.Address]uint64),
		tokenURIs:  make(map[uint64]string),
		emitter:    events.NoopEmitter{},
	}, nil
}

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) Name() string   { return e.name }
func (e *Engine) Symbol() string { return e.symbol }

// Address returns the gateway's module account on the ledger.
func (e *Engine) Address() common.Address { return e.addr }

// Controller returns the principal allowed to configure pricing, URIs and
// royalty.
func (e *Engine) Controller() common.Address { return e.controller }

// Treasury returns the proceeds destination.
func (e *Engine) Treasury() common.Address { return e.treasury }

// MaxSupply returns the fixed supply cap.
func (e *Engine) MaxSupply() uint64 { return e.maxSupply }

// TotalSupply returns the number of slots minted so far.
func (e *Engine) TotalSupply() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.nextID
}

// OwnerOf returns the current owner of a minted slot.
func (e *Engine) OwnerOf(slotID uint64) (common.Address, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	owner, ok := e.owners[slotID]
	if !ok {
		return common.Address{}, ErrInvalidTokenID
	}
	return owner, nil
}

// BalanceOf returns how many slots addr owns.
func (e *Engine) BalanceOf(addr common.Address) uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.balances[addr]
}

// SupportsInterface reports the ERC165 self-description: identity, metadata
// and royalty query capabilities. Enumeration is deliberately not reported.
func (e *Engine) SupportsInterface(id [4]byte) bool {
	switch id {
	case InterfaceERC165, InterfaceERC721, InterfaceERC721Metadata, InterfaceERC2981:
		return true
	default:
		return false
	}
}

func (e *Engine) requireController(caller common.Address) error {
	if caller != e.controller {
		return ErrForbiddenControllerOperation
	}
	return nil
}

// SetPrice overwrites the price entry for a currency; controller only.
func (e *Engine) SetPrice(caller, currency common.Address, enabled bool, amount *big.Int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireController(caller); err != nil {
		return err
	}
	if amount == nil {
		amount = big.NewInt(0)
	}
	e.prices[currency] = PriceEntry{Enabled: enabled, Amount: new(big.Int).Set(amount)}
	e.emitter.Emit(events.MintPriceChanged{Currency: currency, Enabled: enabled, Amount: amount})
	return nil
}

// MintPrice returns the pricing entry for a currency. Unknown currencies
// report (false, 0).
func (e *Engine) MintPrice(currency common.Address) (bool, *big.Int) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	entry, ok := e.prices[currency]
	if !ok {
		return false, big.NewInt(0)
	}
	return entry.Enabled, new(big.Int).Set(entry.Amount)
}

// PayAndMint charges payer in the requested currency and mints the next
// sequential slot to recipient. value is the attached native amount and is
// ignored for token currencies. Exactly the configured price is forwarded to
// the treasury; excess native value stays with the gateway account.
//
// The in-progress guard makes re-entrant invocations (via a malicious
// currency or treasury implementation) fail fast. Counters are committed
// only after payment succeeds, so a failed transfer leaves no partial state.
func (e *Engine) PayAndMint(payer, currency, recipient common.Address, referralData []byte, value *big.Int) (uint64, error) {
	e.mu.Lock()
	if recipient == (common.Address{}) {
		e.mu.Unlock()
		return 0, ErrCannotBeZeroAddress
	}
	entry, ok := e.prices[currency]
	if !ok || !entry.Enabled {
		e.mu.Unlock()
		return 0, ForbiddenCurrencyError{Currency: currency}
	}
	if e.nextID >= e.maxSupply {
		e.mu.Unlock()
		return 0, ErrMaxSupplyExceeded
	}
	if e.minting {
		e.mu.Unlock()
		return 0, ErrReentrancy
	}
	e.minting = true
	price := new(big.Int).Set(entry.Amount)
	e.mu.Unlock()

	payErr := e.collectPayment(payer, currency, price, value)

	e.mu.Lock()
	e.minting = false
	if payErr != nil {
		e.mu.Unlock()
		return 0, payErr
	}
	slotID := e.nextID
	e.nextID++
	e.owners[slotID] = recipient
	e.balances[recipient]++
	e.mu.Unlock()

	e.emitter.Emit(events.SlotMinted{
		Currency:     currency,
		AmountPaid:   price,
		Recipient:    recipient,
		ReferralData: referralData,
		Payer:        payer,
		SlotID:       slotID,
	})
	return slotID, nil
}

func (e *Engine) collectPayment(payer, currency common.Address, price, value *big.Int) error {
	if currency == NativeCurrency {
		attached := big.NewInt(0)
		if value != nil {
			attached = new(big.Int).Set(value)
		}
		if attached.Cmp(price) < 0 {
			return ErrAmountValueTooLow
		}
		if err := e.ledger.NativeTransfer(payer, e.addr, attached); err != nil {
			return err
		}
		if price.Sign() > 0 {
			return e.ledger.NativeTransfer(e.addr, e.treasury, price)
		}
		return nil
	}
	if price.Sign() > 0 {
		// Transfer failures from the currency implementation propagate
		// unmodified.
		return e.ledger.TransferFrom(currency, e.addr, payer, e.treasury, price)
	}
	return nil
}

// SetBaseURI replaces the URI prefix for all slots; controller only.
func (e *Engine) SetBaseURI(caller common.Address, baseURI string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireController(caller); err != nil {
		return err
	}
	e.baseURI = baseURI
	return nil
}

// SetContractURI replaces the collection-level metadata URI; controller only.
func (e *Engine) SetContractURI(caller common.Address, contractURI string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireController(caller); err != nil {
		return err
	}
	e.contractURI = contractURI
	return nil
}

// ContractURI returns the collection-level metadata URI.
func (e *Engine) ContractURI() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.contractURI
}

// SetTokenURI sets a per-slot URI override; controller only. The slot id
// must be below the supply cap but need not be minted yet.
func (e *Engine) SetTokenURI(caller common.Address, slotID uint64, uri string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireController(caller); err != nil {
		return err
	}
	if slotID >= e.maxSupply {
		return ErrInvalidTokenID
	}
	e.tokenURIs[slotID] = uri
	return nil
}

// TokenURI resolves the metadata URI for a minted slot: with an empty base
// the override is returned as-is; otherwise the base is concatenated with
// the override, or with the decimal slot id when no override is set.
func (e *Engine) TokenURI(slotID uint64) (string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if _, minted := e.owners[slotID]; !minted {
		return "", ErrInvalidTokenID
	}
	override := e.tokenURIs[slotID]
	if e.baseURI == "" {
		return override, nil
	}
	if override != "" {
		return e.baseURI + override, nil
	}
	return e.baseURI + strconv.FormatUint(slotID, 10), nil
}

// URI is an alias of TokenURI kept for 1155-style consumers.
func (e *Engine) URI(slotID uint64) (string, error) {
	return e.TokenURI(slotID)
}

// SetRoyalty sets the secondary-sale fee in basis points; controller only.
func (e *Engine) SetRoyalty(caller common.Address, feeBps uint32) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireController(caller); err != nil {
		return err
	}
	if feeBps > royaltyDenominator {
		return ErrRoyaltyTooHigh
	}
	e.royalties = feeBps
	e.emitter.Emit(events.RoyaltyUpdated{FeeBps: feeBps, Receiver: e.treasury})
	return nil
}

// RoyaltyInfo reports the royalty recipient and amount for a sale. With no
// fee configured it reports the zero address and zero.
func (e *Engine) RoyaltyInfo(slotID uint64, salePrice *big.Int) (common.Address, *big.Int) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.royalties == 0 {
		return common.Address{}, big.NewInt(0)
	}
	if salePrice == nil {
		salePrice = big.NewInt(0)
	}
	amount := new(big.Int).Mul(salePrice, big.NewInt(int64(e.royalties)))
	amount.Div(amount, big.NewInt(royaltyDenominator))
	return e.treasury, amount
}
