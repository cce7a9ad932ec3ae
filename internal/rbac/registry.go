// Package rbac holds the static role to permission mapping used to gate
// console views and actions.
package rbac

import (
	"sort"
	"strings"
)

// Well-known permissions, one per console view.
const (
	PermDashboard    = "dashboard"
	PermPurchases    = "purchases"
	PermTransfers    = "transfers"
	PermAssignments  = "assignments"
	PermExpenditures = "expenditures"
)

// Built-in role names.
const (
	RoleAdmin            = "Admin"
	RoleBaseCommander    = "Base Commander"
	RoleLogisticsOfficer = "Logistics Officer"
)

// AllPermissions lists every well-known permission in menu order.
func AllPermissions() []string {
	return []string{
		PermDashboard,
		PermPurchases,
		PermTransfers,
		PermAssignments,
		PermExpenditures,
	}
}

// PermissionSet is an immutable set of permission keys. The zero value is
// the empty set.
type PermissionSet struct {
	m map[string]struct{}
}

// NewPermissionSet builds a set from perms. Blank keys are ignored.
func NewPermissionSet(perms ...string) PermissionSet {
	m := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		m[p] = struct{}{}
	}
	return PermissionSet{m: m}
}

// Has reports whether p is in the set.
func (s PermissionSet) Has(p string) bool {
	_, ok := s.m[p]
	return ok
}

// Len returns the number of permissions in the set.
func (s PermissionSet) Len() int {
	return len(s.m)
}

// Slice returns the permissions sorted alphabetically.
func (s PermissionSet) Slice() []string {
	out := make([]string, 0, len(s.m))
	for p := range s.m {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Union returns a new set containing the members of s and o.
func (s PermissionSet) Union(o PermissionSet) PermissionSet {
	m := make(map[string]struct{}, len(s.m)+len(o.m))
	for p := range s.m {
		m[p] = struct{}{}
	}
	for p := range o.m {
		m[p] = struct{}{}
	}
	return PermissionSet{m: m}
}

// Registry maps role names to the permissions they grant. It is built once
// at startup and never modified; share it freely between goroutines.
type Registry struct {
	roles map[string]PermissionSet
}

// NewRegistry builds a Registry from a role -> permissions table. The input
// is copied, so later changes to table do not affect the registry.
func NewRegistry(table map[string][]string) *Registry {
	roles := make(map[string]PermissionSet, len(table))
	for role, perms := range table {
		roles[role] = NewPermissionSet(perms...)
	}
	return &Registry{roles: roles}
}

// DefaultRegistry returns the built-in mapping for the asset console.
func DefaultRegistry() *Registry {
	return NewRegistry(DefaultTable())
}

// DefaultTable returns a fresh copy of the built-in role table.
func DefaultTable() map[string][]string {
	return map[string][]string{
		RoleAdmin:            AllPermissions(),
		RoleBaseCommander:    AllPermissions(),
		RoleLogisticsOfficer: {PermPurchases, PermTransfers},
	}
}

// RegistryFromConfig builds a Registry from a configured table, falling back
// to the built-in mapping when the table is empty.
func RegistryFromConfig(table map[string][]string) *Registry {
	if len(table) == 0 {
		return DefaultRegistry()
	}
	return NewRegistry(table)
}

// PermissionsFor returns the permissions granted by role. Unknown roles
// grant nothing; this is not an error.
func (r *Registry) PermissionsFor(role string) PermissionSet {
	if r == nil {
		return PermissionSet{}
	}
	return r.roles[role]
}

// Resolve returns the union of the permissions granted by every role.
func (r *Registry) Resolve(roles []string) PermissionSet {
	var out PermissionSet
	for _, role := range roles {
		out = out.Union(r.PermissionsFor(role))
	}
	return out
}

// Roles returns the known role names, sorted.
func (r *Registry) Roles() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.roles))
	for role := range r.roles {
		out = append(out, role)
	}
	sort.Strings(out)
	return out
}
