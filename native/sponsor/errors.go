package sponsor

import "errors"

var (
	// ErrSponseeZeroAddress rejects construction without an administrator.
	ErrSponseeZeroAddress = errors.New("sponsor: sponsee cannot be zero address")
	// ErrNotERC721 rejects binding to a collection that does not report
	// single-owner ERC721 semantics.
	ErrNotERC721 = errors.New("sponsor: bound collection is not an ERC721 contract")
	// ErrAccessDenied signals a grant/revoke attempt by a non-administrator.
	ErrAccessDenied = errors.New("sponsor: access denied")
	// ErrMissingRole signals a gated operation invoked without the role.
	ErrMissingRole = errors.New("sponsor: caller is missing required role")
	// ErrUnallowedSponsorOperation signals a data submission by a caller who
	// does not own the slot, including submissions for unknown slots.
	ErrUnallowedSponsorOperation = errors.New("sponsor: caller is not the slot owner")
	// ErrUnallowedProperty signals a key outside the campaign allow-list.
	ErrUnallowedProperty = errors.New("sponsor: property is not allowed")
	// ErrNoDataSubmitted signals a validation with no pending submission.
	ErrNoDataSubmitted = errors.New("sponsor: no data submitted for review")
)
