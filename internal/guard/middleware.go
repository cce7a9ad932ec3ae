package guard

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sireesha-siri/Millitary-Asset-Fullstack/internal/authz"
	"github.com/sireesha-siri/Millitary-Asset-Fullstack/internal/model"
	"github.com/sireesha-siri/Millitary-Asset-Fullstack/internal/server/middleware"
)

type contextKey string

// DecisionKey is the context key for the decision that admitted a request.
const DecisionKey contextKey = "guard_decision"

// LoadingFunc reports whether the session is still being restored.
type LoadingFunc func() bool

// Require returns HTTP middleware that admits a request only when the guard
// allows permission. Pending answers 503 with Retry-After. Redirects use
// 303 for browsers; clients asking for JSON get 401 or 403 instead. The
// outcome is added to the request log line.
func (g *Guard) Require(permission string, loading LoadingFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			isLoading := loading != nil && loading()
			out := g.Check(r.Context(), permission, isLoading)
			middleware.Annotate(r.Context(), "guard", out.Action.String(), "permission", permission)

			switch out.Action {
			case Allow:
				if out.Decision != nil {
					r = r.WithContext(context.WithValue(r.Context(), DecisionKey, out.Decision))
				}
				next.ServeHTTP(w, r)

			case Pending:
				w.Header().Set("Retry-After", "1")
				writeGuardError(w, http.StatusServiceUnavailable, "Session is still loading", "")

			case RedirectLogin:
				if wantsJSON(r) {
					writeGuardError(w, http.StatusUnauthorized, "Authentication required", out.Target)
					return
				}
				http.Redirect(w, r, out.Target, http.StatusSeeOther)

			case RedirectDefault:
				// Redirecting to the page that just denied us would loop.
				if wantsJSON(r) || r.URL.Path == out.Target {
					writeGuardError(w, http.StatusForbidden, "Permission "+permission+" required", out.Target)
					return
				}
				http.Redirect(w, r, out.Target, http.StatusSeeOther)
			}
		})
	}
}

// DecisionFromContext returns the decision that admitted the request, or nil
// for unguarded routes.
func DecisionFromContext(ctx context.Context) authz.Decision {
	if d, ok := ctx.Value(DecisionKey).(authz.Decision); ok {
		return d
	}
	return nil
}

// IdentityFromContext returns the identity admitted by a guarded route.
func IdentityFromContext(ctx context.Context) (model.Identity, bool) {
	if d, ok := DecisionFromContext(ctx).(authz.Allowed); ok {
		return d.Identity, true
	}
	return model.Identity{}, false
}

func wantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}

func writeGuardError(w http.ResponseWriter, status int, message, location string) {
	var ctx map[string]interface{}
	if location != "" {
		ctx = map[string]interface{}{"location": location}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(model.ErrorResponse{
		Error: model.ErrorDetail{Code: status, Message: message, Context: ctx},
	})
}
