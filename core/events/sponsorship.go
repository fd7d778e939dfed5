package events

import (
	"github.com/ethereum/go-ethereum/common"

	"dsponsor/core/types"
)

const (
	TypePropertyUpdated       = "sponsor.property_updated"
	TypeValidityPeriodUpdated = "sponsor.validity_period_updated"
	TypeSponsoDataSubmitted   = "sponsor.data_submitted"
	TypeSponsoDataValidated   = "sponsor.data_validated"
	TypeRoleGranted           = "sponsor.role_granted"
	TypeRoleRevoked           = "sponsor.role_revoked"
)

// PropertyUpdated mirrors the PropertyUpdate notification: a property key was
// enabled or disabled on the campaign allow-list.
type PropertyUpdated struct {
	Property string
	Allowed  bool
}

func (PropertyUpdated) EventType() string { return TypePropertyUpdated }

func (e PropertyUpdated) Event() *types.Event {
	return &types.Event{
		Type: TypePropertyUpdated,
		Attributes: map[string]string{
			"property": e.Property,
			"allowed":  formatBool(e.Allowed),
		},
	}
}

// ValidityPeriodUpdated mirrors ValidityPeriodUpdate.
type ValidityPeriodUpdated struct {
	Start uint64
	End   uint64
}

func (ValidityPeriodUpdated) EventType() string { return TypeValidityPeriodUpdated }

func (e ValidityPeriodUpdated) Event() *types.Event {
	return &types.Event{
		Type: TypeValidityPeriodUpdated,
		Attributes: map[string]string{
			"start": formatUint(e.Start),
			"end":   formatUint(e.End),
		},
	}
}

// SponsoDataSubmitted mirrors NewSponsoData: a slot owner submitted a value
// for review.
type SponsoDataSubmitted struct {
	SlotID   uint64
	Property string
	Value    string
}

func (SponsoDataSubmitted) EventType() string { return TypeSponsoDataSubmitted }

func (e SponsoDataSubmitted) Event() *types.Event {
	return &types.Event{
		Type: TypeSponsoDataSubmitted,
		Attributes: map[string]string{
			"slotId":   formatUint(e.SlotID),
			"property": e.Property,
			"value":    e.Value,
		},
	}
}

// SponsoDataValidated mirrors NewSponsoDataValidation. Value carries the
// pending submission consumed by the review, whether accepted or rejected.
type SponsoDataValidated struct {
	SlotID   uint64
	Property string
	Accepted bool
	Value    string
	Reason   string
}

func (SponsoDataValidated) EventType() string { return TypeSponsoDataValidated }

func (e SponsoDataValidated) Event() *types.Event {
	return &types.Event{
		Type: TypeSponsoDataValidated,
		Attributes: map[string]string{
			"slotId":   formatUint(e.SlotID),
			"property": e.Property,
			"accepted": formatBool(e.Accepted),
			"value":    e.Value,
			"reason":   e.Reason,
		},
	}
}

// RoleGranted records a role membership addition by the campaign admin.
type RoleGranted struct {
	Role      common.Hash
	Principal common.Address
}

func (RoleGranted) EventType() string { return TypeRoleGranted }

func (e RoleGranted) Event() *types.Event {
	return &types.Event{
		Type: TypeRoleGranted,
		Attributes: map[string]string{
			"role":      e.Role.Hex(),
			"principal": e.Principal.Hex(),
		},
	}
}

// RoleRevoked records a role membership removal by the campaign admin.
type RoleRevoked struct {
	Role      common.Hash
	Principal common.Address
}

func (RoleRevoked) EventType() string { return TypeRoleRevoked }

func (e RoleRevoked) Event() *types.Event {
	return &types.Event{
		Type: TypeRoleRevoked,
		Attributes: map[string]string{
			"role":      e.Role.Hex(),
			"principal": e.Principal.Hex(),
		},
	}
}
