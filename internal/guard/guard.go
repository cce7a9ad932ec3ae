// Package guard turns authorization decisions into what a caller should do
// next: wait, go to the login page, go to the default page, or proceed.
package guard

import (
	"context"

	"github.com/sireesha-siri/Millitary-Asset-Fullstack/internal/authz"
)

// Action is what the caller should do with a guarded view or operation.
type Action int

const (
	// Pending means the session has not been restored yet; render nothing.
	Pending Action = iota
	// RedirectLogin sends an anonymous caller to the login surface.
	RedirectLogin
	// RedirectDefault sends a signed-in caller lacking the permission to
	// the default view.
	RedirectDefault
	// Allow lets the guarded content or action run.
	Allow
)

func (a Action) String() string {
	switch a {
	case Pending:
		return "pending"
	case RedirectLogin:
		return "redirect_login"
	case RedirectDefault:
		return "redirect_default"
	case Allow:
		return "allow"
	default:
		return "unknown"
	}
}

// Outcome is the result of a guard check. Target is set for redirects.
// Decision is nil while pending and for unguarded routes.
type Outcome struct {
	Action   Action
	Target   string
	Decision authz.Decision
}

// Decider is the part of authz.Gate the guard depends on.
type Decider interface {
	Decide(ctx context.Context, permission string) authz.Decision
}

// Guard maps gate decisions onto redirect targets.
type Guard struct {
	gate        Decider
	loginPath   string
	defaultPath string
}

// Option configures a Guard.
type Option func(*Guard)

// WithLoginPath overrides the login redirect target (default "/login").
func WithLoginPath(p string) Option {
	return func(g *Guard) {
		if p != "" {
			g.loginPath = p
		}
	}
}

// WithDefaultPath overrides the redirect target for denied callers
// (default "/dashboard").
func WithDefaultPath(p string) Option {
	return func(g *Guard) {
		if p != "" {
			g.defaultPath = p
		}
	}
}

// New creates a Guard backed by gate.
func New(gate Decider, opts ...Option) *Guard {
	g := &Guard{gate: gate, loginPath: "/login", defaultPath: "/dashboard"}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// LoginPath returns the login redirect target.
func (g *Guard) LoginPath() string { return g.loginPath }

// DefaultPath returns the redirect target for denied callers.
func (g *Guard) DefaultPath() string { return g.defaultPath }

// Check decides what to do with a view or action requiring permission.
// While loading is true the answer is always Pending. An empty permission
// marks an unguarded route and is allowed once loading has finished.
func (g *Guard) Check(ctx context.Context, permission string, loading bool) Outcome {
	if loading {
		return Outcome{Action: Pending}
	}
	if permission == "" {
		return Outcome{Action: Allow}
	}

	d := g.gate.Decide(ctx, permission)
	switch d.(type) {
	case authz.Allowed:
		return Outcome{Action: Allow, Decision: d}
	case authz.Denied:
		return Outcome{Action: RedirectDefault, Target: g.defaultPath, Decision: d}
	default:
		return Outcome{Action: RedirectLogin, Target: g.loginPath, Decision: d}
	}
}
