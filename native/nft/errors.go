package nft

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrCannotBeZeroAddress rejects zero controller, treasury or recipient
	// principals.
	ErrCannotBeZeroAddress = errors.New("nft: cannot be zero address")
	// ErrMaxSupplyZero rejects construction with no mintable slots.
	ErrMaxSupplyZero = errors.New("nft: max supply should be greater than 0")
	// ErrMaxSupplyExceeded signals the supply cap has been reached.
	ErrMaxSupplyExceeded = errors.New("nft: max supply exceeded")
	// ErrForbiddenControllerOperation signals a configuration call by a
	// principal other than the controller.
	ErrForbiddenControllerOperation = errors.New("nft: forbidden controller operation")
	// ErrAmountValueTooLow signals a native payment below the configured
	// price.
	ErrAmountValueTooLow = errors.New("nft: amount value too low")
	// ErrReentrancy signals a mint attempted while another is in flight.
	ErrReentrancy = errors.New("nft: reentrant call")
	// ErrInvalidTokenID signals a slot identifier that is out of range or
	// not minted.
	ErrInvalidTokenID = errors.New("nft: invalid token id")
	// ErrForbiddenCurrency is the match target for ForbiddenCurrencyError.
	ErrForbiddenCurrency = errors.New("nft: forbidden currency")
	// ErrRoyaltyTooHigh rejects fees above the basis-point denominator.
	ErrRoyaltyTooHigh = errors.New("nft: royalty fee exceeds denominator")
)

// ForbiddenCurrencyError carries the rejected currency so callers can render
// a precise message. errors.Is(err, ErrForbiddenCurrency) matches it.
type ForbiddenCurrencyError struct {
	Currency common.Address
}

func (e ForbiddenCurrencyError) Error() string {
	return fmt.Sprintf("nft: forbidden currency %s", e.Currency.Hex())
}

func (ForbiddenCurrencyError) Is(target error) bool {
	return target == ErrForbiddenCurrency
}
