// Package console is the surface the rest of the application uses to sign
// users in and out and to ask what they may see.
package console

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sireesha-siri/Millitary-Asset-Fullstack/internal/authz"
	"github.com/sireesha-siri/Millitary-Asset-Fullstack/internal/guard"
	"github.com/sireesha-siri/Millitary-Asset-Fullstack/internal/model"
	"github.com/sireesha-siri/Millitary-Asset-Fullstack/internal/rbac"
	"github.com/sireesha-siri/Millitary-Asset-Fullstack/internal/service"
	"github.com/sireesha-siri/Millitary-Asset-Fullstack/internal/session"
)

// NavItem is one entry of the console menu.
type NavItem struct {
	Label      string `json:"label"`
	Path       string `json:"path"`
	Permission string `json:"permission"`
}

var navigation = []NavItem{
	{Label: "Dashboard", Path: "/dashboard", Permission: rbac.PermDashboard},
	{Label: "Purchases", Path: "/purchases", Permission: rbac.PermPurchases},
	{Label: "Transfers", Path: "/transfers", Permission: rbac.PermTransfers},
	{Label: "Assignments", Path: "/assignments", Permission: rbac.PermAssignments},
}

// Console ties the session store, authenticator, gate and guard together.
type Console struct {
	store    *session.Store
	auth     *service.Authenticator
	registry *rbac.Registry
	gate     *authz.Gate
	guard    *guard.Guard
	logger   *slog.Logger
}

// New assembles a Console. The registry is injected once and never changed.
func New(store *session.Store, auth *service.Authenticator, registry *rbac.Registry, logger *slog.Logger, opts ...guard.Option) *Console {
	if logger == nil {
		logger = slog.Default()
	}
	gate := authz.NewGate(store, registry)
	return &Console{
		store:    store,
		auth:     auth,
		registry: registry,
		gate:     gate,
		guard:    guard.New(gate, opts...),
		logger:   logger,
	}
}

// IsAuthenticated reports whether a session is active.
func (c *Console) IsAuthenticated(ctx context.Context) bool {
	_, ok := c.store.Read(ctx)
	return ok
}

// HasPermission reports whether the active session grants permission.
func (c *Console) HasPermission(ctx context.Context, permission string) bool {
	return c.gate.HasPermission(ctx, permission)
}

// CurrentIdentity returns the signed-in identity, if any.
func (c *Console) CurrentIdentity(ctx context.Context) (model.Identity, bool) {
	sess, ok := c.store.Read(ctx)
	if !ok {
		return model.Identity{}, false
	}
	return sess.Identity, true
}

// Login exchanges credentials for a new session. Errors match
// service.ErrRejected or service.ErrUnavailable.
func (c *Console) Login(ctx context.Context, username, password string) (model.Identity, error) {
	return c.auth.Login(ctx, username, password)
}

// Logout ends the session. It always succeeds.
func (c *Console) Logout(ctx context.Context) {
	c.auth.Logout(ctx)
}

// Restore loads the persisted session now instead of on first use.
func (c *Console) Restore(ctx context.Context) error {
	return c.store.Restore(ctx)
}

// Loading reports whether the persisted session is still being restored.
func (c *Console) Loading() bool {
	return !c.store.Ready()
}

// Check runs the route guard for permission.
func (c *Console) Check(ctx context.Context, permission string) guard.Outcome {
	return c.guard.Check(ctx, permission, c.Loading())
}

// Require returns HTTP middleware guarding a route with permission.
func (c *Console) Require(permission string) func(next http.Handler) http.Handler {
	return c.guard.Require(permission, c.Loading)
}

// Permissions lists what the active session grants, sorted.
func (c *Console) Permissions(ctx context.Context) []string {
	return c.gate.Permissions(ctx).Slice()
}

// Navigation returns the menu entries the active session may open.
func (c *Console) Navigation(ctx context.Context) []NavItem {
	granted := c.gate.Permissions(ctx)
	items := make([]NavItem, 0, len(navigation))
	for _, item := range navigation {
		if granted.Has(item.Permission) {
			items = append(items, item)
		}
	}
	return items
}

// TokenInfo describes the active session's token for display.
func (c *Console) TokenInfo(ctx context.Context) (service.TokenInfo, bool) {
	sess, ok := c.store.Read(ctx)
	if !ok {
		return service.TokenInfo{}, false
	}
	return service.DescribeToken(sess.Token), true
}

// Registry returns the role table in use.
func (c *Console) Registry() *rbac.Registry {
	return c.registry
}

// Guard returns the route guard.
func (c *Console) Guard() *guard.Guard {
	return c.guard
}
