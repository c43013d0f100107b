// Package rbac manages role/permission grants with a casbin enforcer,
// directly adapted from the ancestor project's authz/rbac package
// (same Enforcer/Adapter globals, same RBAC/noop shape). The actual
// per-request decision — roles require_any, permissions require_all,
// admin has "*" — is evaluated directly off the authenticated user's
// claims by the endpoint dispatcher; this package is the administrative
// surface used by /api/auth/admin/users to grant and revoke grants,
// persisted so they survive process restarts.
package rbac

import (
	"github.com/casbin/casbin/v2"
	gormadapter "github.com/casbin/gorm-adapter/v3"
)

var (
	Enforcer *casbin.Enforcer
	Adapter  *gormadapter.Adapter
)

// RBAC is the administrative surface for managing role membership and
// role->permission grants.
type RBAC interface {
	AddRole(name string) error
	RemoveRole(name string) error
	GrantPermission(role, resource, action string) error
	RevokePermission(role, resource, action string) error
	AssignRole(subject, role string) error
	UnassignRole(subject, role string) error
	RolesOf(subject string) ([]string, error)
	PermissionsOf(subject string) ([][]string, error)
}

type rbac struct {
	enforcer *casbin.Enforcer
}

// noop is returned when RBAC hasn't been initialized, so callers never
// need a nil check before issuing a grant/revoke.
type noop struct{}

func (noop) AddRole(string) error                         { return nil }
func (noop) RemoveRole(string) error                       { return nil }
func (noop) GrantPermission(string, string, string) error  { return nil }
func (noop) RevokePermission(string, string, string) error { return nil }
func (noop) AssignRole(string, string) error                { return nil }
func (noop) UnassignRole(string, string) error               { return nil }
func (noop) RolesOf(string) ([]string, error)                { return nil, nil }
func (noop) PermissionsOf(string) ([][]string, error)        { return nil, nil }

// New returns the active RBAC surface, or a safe no-op if Init hasn't
// run yet (e.g. RBAC disabled in configuration).
func New() RBAC {
	if Enforcer == nil {
		return noop{}
	}
	return &rbac{enforcer: Enforcer}
}

func (r *rbac) AddRole(string) error { return nil } // roles exist implicitly once used

func (r *rbac) RemoveRole(name string) error {
	if _, err := r.enforcer.DeleteRole(name); err != nil {
		return err
	}
	return r.enforcer.SavePolicy()
}

func (r *rbac) GrantPermission(role, resource, action string) error {
	if _, err := r.enforcer.AddPermissionForUser(role, resource, action, "allow"); err != nil {
		return err
	}
	return r.enforcer.SavePolicy()
}

// RevokePermission removes policies for role, progressively narrowed
// by resource/action: both empty clears every grant for the role.
func (r *rbac) RevokePermission(role, resource, action string) error {
	switch {
	case resource == "" && action == "":
		if _, err := r.enforcer.RemoveFilteredPolicy(0, role); err != nil {
			return err
		}
	case resource == "":
		if _, err := r.enforcer.RemoveFilteredPolicy(0, role, "", action); err != nil {
			return err
		}
	case action == "":
		if _, err := r.enforcer.RemoveFilteredPolicy(0, role, resource); err != nil {
			return err
		}
	default:
		if _, err := r.enforcer.DeletePermissionForUser(role, resource, action, "allow"); err != nil {
			return err
		}
	}
	return r.enforcer.SavePolicy()
}

func (r *rbac) AssignRole(subject, role string) error {
	if _, err := r.enforcer.AddRoleForUser(subject, role); err != nil {
		return err
	}
	return r.enforcer.SavePolicy()
}

func (r *rbac) UnassignRole(subject, role string) error {
	if _, err := r.enforcer.DeleteRoleForUser(subject, role); err != nil {
		return err
	}
	return r.enforcer.SavePolicy()
}

func (r *rbac) RolesOf(subject string) ([]string, error) {
	return r.enforcer.GetRolesForUser(subject)
}

func (r *rbac) PermissionsOf(subject string) ([][]string, error) {
	return r.enforcer.GetImplicitPermissionsForUser(subject)
}
