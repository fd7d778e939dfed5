package factory

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"dsponsor/native/nft"
	"dsponsor/native/splitter"
	"dsponsor/native/sponsor"
)

// Ledger is the account capability the factory passes down to the campaign
// modules it deploys. core/state.Ledger satisfies it.
type Ledger interface {
	NativeBalanceOf(addr common.Address) *big.Int
	NativeTransfer(from, to common.Address, amount *big.Int) error
	BalanceOf(token, addr common.Address) *big.Int
	Transfer(token, from, to common.Address, amount *big.Int) error
	TransferFrom(token, spender, from, to common.Address, amount *big.Int) error
}

// PriceSetting is an initial price-table row applied to a freshly deployed
// mint gateway.
type PriceSetting struct {
	Currency common.Address
	Enabled  bool
	Amount   *big.Int
}

// NFTParams describes the mint gateway side of a campaign.
type NFTParams struct {
	Name        string
	Symbol      string
	MaxSupply   uint64
	Controller  common.Address
	BaseURI     string
	ContractURI string
	RoyaltyBps  uint32
	Prices      []PriceSetting
}

// Campaign is one deployed sponsorship campaign. Gateway and Treasury are nil
// for campaigns bound to an external collection; DataStore is nil for
// mint-only campaigns.
type Campaign struct {
	ID uint64

	Controller common.Address
	Sponsee    common.Address
	RulesURI   string

	Gateway     *nft.Engine
	GatewayAddr common.Address

	Treasury     *splitter.Splitter
	TreasuryAddr common.Address

	DataStore     *sponsor.Engine
	DataStoreAddr common.Address

	CollectionAddr common.Address
}
