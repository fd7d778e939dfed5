package events

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"dsponsor/core/types"
)

const (
	TypePaymentReleased      = "treasury.released"
	TypeTokenPaymentReleased = "treasury.token_released"
)

// PaymentReleased records a native-currency payout from a treasury splitter.
type PaymentReleased struct {
	Treasury common.Address
	Payee    common.Address
	Amount   *big.Int
}

func (PaymentReleased) EventType() string { return TypePaymentReleased }

func (e PaymentReleased) Event() *types.Event {
	return &types.Event{
		Type: TypePaymentReleased,
		Attributes: map[string]string{
			"treasury": e.Treasury.Hex(),
			"payee":    e.Payee.Hex(),
			"amount":   formatAmount(e.Amount),
		},
	}
}

// TokenPaymentReleased records a token payout from a treasury splitter.
type TokenPaymentReleased struct {
	Treasury common.Address
	Token    common.Address
	Payee    common.Address
	Amount   *big.Int
}

func (TokenPaymentReleased) EventType() string { return TypeTokenPaymentReleased }

func (e TokenPaymentReleased) Event() *types.Event {
	return &types.Event{
		Type: TypeTokenPaymentReleased,
		Attributes: map[string]string{
			"treasury": e.Treasury.Hex(),
			"token":    e.Token.Hex(),
			"payee":    e.Payee.Hex(),
			"amount":   formatAmount(e.Amount),
		},
	}
}
