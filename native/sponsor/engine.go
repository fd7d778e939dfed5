package sponsor

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"dsponsor/core/events"
)

// Engine is the permissioned sponsorship data store for one campaign: a
// property allow-list, an advisory validity window and the per-slot
// submission/validation state machine. Slot ownership is never stored here;
// it is queried from the bound collection at submission time.
type Engine struct {
	mu sync.RWMutex

	collection Collection
	rulesURI   string
	sponsee    common.Address

	roles      *RoleManager
	properties map[string]bool
	start, end uint64
	records    map[recordKey]*Record

	emitter events.Emitter
}

// NewEngine binds a data store to an existing slot collection. The sponsee
// becomes role administrator and receives every gated role.
func NewEngine(collection Collection, rulesURI string, sponsee common.Address) (*Engine, error) {
	if sponsee == (common.Address{}) {
		return nil, ErrSponseeZeroAddress
	}
	if collection == nil || !collection.SupportsInterface(erc721InterfaceID) {
		return nil, ErrNotERC721
	}
	roles := NewRoleManager(sponsee)
	roles.grantAll(sponsee, RoleSetProperties, RoleSetPeriod, RoleValidate)
	return &Engine{
		collection: collection,
		rulesURI:   rulesURI,
		sponsee:    sponsee,
		roles:      roles,
		properties: make(map[string]bool),
		records:    make(map[recordKey]*Record),
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

// Sponsee returns the campaign administrator.
func (e *Engine) Sponsee() common.Address { return e.sponsee }

// RulesURI returns the off-chain curation rules document reference.
func (e *Engine) RulesURI() string { return e.rulesURI }

// Collection returns the bound slot-ownership oracle.
func (e *Engine) Collection() Collection { return e.collection }

// GrantRole adds principal to role; administrator only.
func (e *Engine) GrantRole(caller common.Address, role common.Hash, principal common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.roles.Grant(caller, role, principal); err != nil {
		return err
	}
	e.emitter.Emit(events.RoleGranted{Role: role, Principal: principal})
	return nil
}

// RevokeRole removes principal from role; administrator only.
func (e *Engine) RevokeRole(caller common.Address, role common.Hash, principal common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.roles.Revoke(caller, role, principal); err != nil {
		return err
	}
	e.emitter.Emit(events.RoleRevoked{Role: role, Principal: principal})
	return nil
}

// HasRole reports whether principal holds role.
func (e *Engine) HasRole(role common.Hash, principal common.Address) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.roles.Has(role, principal)
}

func (e *Engine) requireRole(role common.Hash, caller common.Address) error {
	if !e.roles.Has(role, caller) {
		return fmt.Errorf("%w: %s", ErrMissingRole, role.Hex())
	}
	return nil
}

// SetProperty enables or disables a property key on the allow-list. Requires
// the SET_PROPERTIES_ROLE.
func (e *Engine) SetProperty(caller common.Address, property string, allowed bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireRole(RoleSetProperties, caller); err != nil {
		return err
	}
	e.properties[property] = allowed
	e.emitter.Emit(events.PropertyUpdated{Property: property, Allowed: allowed})
	return nil
}

// IsAllowedProperty reports whether property is currently on the allow-list.
// Never-seen keys report false.
func (e *Engine) IsAllowedProperty(property string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.properties[property]
}

// SetValidityPeriod overwrites the advisory sponsoring window. Requires the
// SET_PERIOD_ROLE. No ordering constraint is applied to the bounds and no
// operation rejects actions outside the window.
func (e *Engine) SetValidityPeriod(caller common.Address, start, end uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireRole(RoleSetPeriod, caller); err != nil {
		return err
	}
	e.start, e.end = start, end
	e.emitter.Emit(events.ValidityPeriodUpdated{Start: start, End: end})
	return nil
}

// StartPeriod returns the advisory window start.
func (e *Engine) StartPeriod() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.start
}

// EndPeriod returns the advisory window end.
func (e *Engine) EndPeriod() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.end
}

// SetSponsoData records a sponsoring submission for review. The caller must
// currently own the slot; the ownership check runs before the allow-list
// check, so non-owners always observe ErrUnallowedSponsorOperation. A new
// submission overwrites any pending value and clears a prior rejection.
func (e *Engine) SetSponsoData(caller common.Address, slotID uint64, property, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	owner, err := e.collection.OwnerOf(slotID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnallowedSponsorOperation, err)
	}
	if owner != caller {
		return ErrUnallowedSponsorOperation
	}
	if !e.properties[property] {
		return ErrUnallowedProperty
	}
	key := recordKey{slot: slotID, property: property}
	record, ok := e.records[key]
	if !ok {
		record = &Record{}
		e.records[key] = record
	}
	record.Pending = value
	record.RejectReason = ""
	e.emitter.Emit(events.SponsoDataSubmitted{SlotID: slotID, Property: property, Value: value})
	return nil
}

// SetSponsoDataValidation reviews the pending submission for (slot,
// property). Requires the VALIDATE_ROLE. Accepting moves the pending value
// into the validated slot; rejecting discards it and records the reason,
// leaving the last validated value untouched. The property must still be
// allowed at review time, since it may have been disabled after submission.
func (e *Engine) SetSponsoDataValidation(caller common.Address, slotID uint64, property string, accept bool, reason string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireRole(RoleValidate, caller); err != nil {
		return err
	}
	if !e.properties[property] {
		return ErrUnallowedProperty
	}
	record, ok := e.records[recordKey{slot: slotID, property: property}]
	if !ok || record.Pending == "" {
		return ErrNoDataSubmitted
	}
	consumed := record.Pending
	record.Pending = ""
	if accept {
		record.LastValidated = consumed
		record.RejectReason = ""
	} else {
		record.RejectReason = reason
	}
	e.emitter.Emit(events.SponsoDataValidated{
		SlotID:   slotID,
		Property: property,
		Accepted: accept,
		Value:    consumed,
		Reason:   reason,
	})
	return nil
}

// GetSponsoData returns the review state for (slot, property). Unseen
// records read as three empty strings.
func (e *Engine) GetSponsoData(slotID uint64, property string) (lastValidated, pending, rejectReason string) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	record, ok := e.records[recordKey{slot: slotID, property: property}]
	if !ok {
		return "", "", ""
	}
	return record.LastValidated, record.Pending, record.RejectReason
}
