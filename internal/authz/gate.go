// Package authz decides whether the signed-in identity may use a
// permission.
package authz

import (
	"context"

	"github.com/sireesha-siri/Millitary-Asset-Fullstack/internal/model"
	"github.com/sireesha-siri/Millitary-Asset-Fullstack/internal/rbac"
)

// State names the three possible outcomes of a check.
type State int

const (
	StateUnauthenticated State = iota
	StateDenied
	StateAllowed
)

func (s State) String() string {
	switch s {
	case StateDenied:
		return "denied"
	case StateAllowed:
		return "allowed"
	default:
		return "unauthenticated"
	}
}

// Decision is the result of Gate.Decide. It is one of Unauthenticated,
// Denied or Allowed; only the latter two carry an identity.
type Decision interface {
	State() State
	decision()
}

// Unauthenticated means no session is active.
type Unauthenticated struct{}

// Denied means a session is active but its roles do not grant the permission.
type Denied struct {
	Identity   model.Identity
	Permission string
}

// Allowed means the session's roles grant the permission.
type Allowed struct {
	Identity   model.Identity
	Permission string
}

func (Unauthenticated) State() State { return StateUnauthenticated }
func (Denied) State() State          { return StateDenied }
func (Allowed) State() State         { return StateAllowed }

func (Unauthenticated) decision() {}
func (Denied) decision()          {}
func (Allowed) decision()         {}

// SessionReader is the part of session.Store the gate depends on.
type SessionReader interface {
	Read(ctx context.Context) (model.Session, bool)
}

// Gate resolves permission checks against the current session.
type Gate struct {
	sessions SessionReader
	registry *rbac.Registry
}

// NewGate creates a Gate. The registry is used as given and never modified.
func NewGate(sessions SessionReader, registry *rbac.Registry) *Gate {
	return &Gate{sessions: sessions, registry: registry}
}

// Decide checks permission against the current session. Unknown roles and
// unknown permissions resolve to Denied.
func (g *Gate) Decide(ctx context.Context, permission string) Decision {
	sess, ok := g.sessions.Read(ctx)
	if !ok {
		return Unauthenticated{}
	}
	return decide(g.registry, sess.Identity, permission)
}

func decide(registry *rbac.Registry, id model.Identity, permission string) Decision {
	if permission != "" && registry.Resolve(id.Roles).Has(permission) {
		return Allowed{Identity: id, Permission: permission}
	}
	return Denied{Identity: id, Permission: permission}
}

// HasPermission reports whether the current session grants permission.
// It is false when nobody is signed in.
func (g *Gate) HasPermission(ctx context.Context, permission string) bool {
	return g.Decide(ctx, permission).State() == StateAllowed
}

// Permissions returns everything the current session grants, or the empty
// set when nobody is signed in.
func (g *Gate) Permissions(ctx context.Context) rbac.PermissionSet {
	sess, ok := g.sessions.Read(ctx)
	if !ok {
		return rbac.PermissionSet{}
	}
	return g.registry.Resolve(sess.Identity.Roles)
}
