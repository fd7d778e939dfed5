package events

import (
	"encoding/hex"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"dsponsor/core/types"
)

const (
	TypeMintPriceChanged = "nft.mint_price_changed"
	TypeSlotMinted       = "nft.minted"
	TypeRoyaltyUpdated   = "nft.royalty_updated"
)

// MintPriceChanged mirrors MintPriceChange: the controller reconfigured the
// price entry for a currency. The zero currency address is the native coin.
type MintPriceChanged struct {
	Currency common.Address
	Enabled  bool
	Amount   *big.Int
}

func (MintPriceChanged) EventType() string { return TypeMintPriceChanged }

func (e MintPriceChanged) Event() *types.Event {
	return &types.Event{
		Type: TypeMintPriceChanged,
		Attributes: map[string]string{
			"currency": e.Currency.Hex(),
			"enabled":  formatBool(e.Enabled),
			"amount":   formatAmount(e.Amount),
		},
	}
}

// SlotMinted mirrors Mint: a buyer paid for and received the next slot.
type SlotMinted struct {
	Currency     common.Address
	AmountPaid   *big.Int
	Recipient    common.Address
	ReferralData []byte
	Payer        common.Address
	SlotID       uint64
}

func (SlotMinted) EventType() string { return TypeSlotMinted }

func (e SlotMinted) Event() *types.Event {
	return &types.Event{
		Type: TypeSlotMinted,
		Attributes: map[string]string{
			"currency":     e.Currency.Hex(),
			"amountPaid":   formatAmount(e.AmountPaid),
			"recipient":    e.Recipient.Hex(),
			"referralData": hex.EncodeToString(e.ReferralData),
			"payer":        e.Payer.Hex(),
			"slotId":       formatUint(e.SlotID),
		},
	}
}

// RoyaltyUpdated records a change of the secondary-sale royalty fee.
type RoyaltyUpdated struct {
	FeeBps   uint32
	Receiver common.Address
}

func (RoyaltyUpdated) EventType() string { return TypeRoyaltyUpdated }

func (e RoyaltyUpdated) Event() *types.Event {
	return &types.Event{
		Type: TypeRoyaltyUpdated,
		Attributes: map[string]string{
			"feeBps":   formatUint(uint64(e.FeeBps)),
			"receiver": e.Receiver.Hex(),
		},
	}
}
