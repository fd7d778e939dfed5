package nft

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// NativeCurrency is the distinguished currency identifier for the native
// coin; token currencies use their contract address.
var NativeCurrency = common.Address{}

// ERC165 interface identifiers the gateway self-reports.
var (
	InterfaceERC165         = [4]byte{0x01, 0xff, 0xc9, 0xa7}
	InterfaceERC721         = [4]byte{0x80, 0xac, 0x58, 0xcd}
	InterfaceERC721Metadata = [4]byte{0x5b, 0x5e, 0x13, 0x9f}
	InterfaceERC2981        = [4]byte{0x2a, 0x55, 0x20, 0x5a}
)

// royaltyDenominator is the basis-point scale for secondary-sale fees.
const royaltyDenominator = 10_000

// PriceEntry is the per-currency mint pricing record. Disabled currencies
// keep their last configured amount but reject payment attempts.
type PriceEntry struct {
	Enabled bool
	Amount  *big.Int
}

// Ledger is the currency-movement capability consumed by the gateway. The
// production implementation is core/state.Ledger; tests substitute doubles,
// including deliberately re-entrant ones.
type Ledger interface {
	NativeTransfer(from, to common.Address, amount *big.Int) error
	TransferFrom(token, spender, from, to common.Address, amount *big.Int) error
}
