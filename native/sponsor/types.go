package sponsor

import (
	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// Role identifiers follow the AccessControl convention: the keccak256 hash of
// the role name. The sponsee administers membership and holds all three roles
// from construction.
var (
	RoleSetProperties = ethcrypto.Keccak256Hash([]byte("SET_PROPERTIES_ROLE"))
	RoleSetPeriod     = ethcrypto.Keccak256Hash([]byte("SET_PERIOD_ROLE"))
	RoleValidate      = ethcrypto.Keccak256Hash([]byte("VALIDATE_ROLE"))
)

// erc721InterfaceID is the ERC165 identifier a slot collection must report to
// be accepted as the ownership oracle for a campaign.
var erc721InterfaceID = [4]byte{0x80, 0xac, 0x58, 0xcd}

// Collection is the slot-ownership oracle a data store is bound to. OwnerOf
// fails for identifiers that were never minted.
type Collection interface {
	OwnerOf(slotID uint64) (common.Address, error)
	SupportsInterface(id [4]byte) bool
}

// Record holds the review state for one (slot, property) pair. Empty strings
// mean "never validated", "nothing pending" and "no active rejection".
type Record struct {
	LastValidated string
	Pending       string
	RejectReason  string
}

type recordKey struct {
	slot     uint64
	property string
}
