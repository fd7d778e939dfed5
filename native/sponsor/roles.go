package sponsor

import (
	"github.com/ethereum/go-ethereum/common"
)

// RoleManager maps named permissions to sets of authorised principals. Only
// the administrator may change membership; the set of role names is open so
// campaigns can introduce bespoke permissions without code changes.
type RoleManager struct {
	admin  common.Address
	grants map[common.Hash]map[common.Address]struct{}
}

// NewRoleManager creates a role table administered by admin.
func NewRoleManager(admin common.Address) *RoleManager {
	return &RoleManager{
		admin:  admin,
		grants: make(map[common.Hash]map[common.Address]struct{}),
	}
}

// Admin returns the administrator principal.
func (r *RoleManager) Admin() common.Address { return r.admin }

// Grant adds principal to role. Fails with ErrAccessDenied unless the caller
// is the administrator.
func (r *RoleManager) Grant(caller common.Address, role common.Hash, principal common.Address) error {
	if caller != r.admin {
		return ErrAccessDenied
	}
	members, ok := r.grants[role]
	if !ok {
		members = make(map[common.Address]struct{})
		r.grants[role] = members
	}
	members[principal] = struct{}{}
	return nil
}

// Revoke removes principal from role. Fails with ErrAccessDenied unless the
// caller is the administrator. Revoking an absent membership is a no-op.
func (r *RoleManager) Revoke(caller common.Address, role common.Hash, principal common.Address) error {
	if caller != r.admin {
		return ErrAccessDenied
	}
	if members, ok := r.grants[role]; ok {
		delete(members, principal)
	}
	return nil
}

// Has reports whether principal holds role.
func (r *RoleManager) Has(role common.Hash, principal common.Address) bool {
	members, ok := r.grants[role]
	if !ok {
		return false
	}
	_, ok = members[principal]
	return ok
}

func (r *RoleManager) grantAll(principal common.Address, roles ...common.Hash) {
	for _, role := range roles {
		members, ok := r.grants[role]
		if !ok {
			members = make(map[common.Address]struct{})
			r.grants[role] = members
		}
		members[principal] = struct{}{}
	}
}
