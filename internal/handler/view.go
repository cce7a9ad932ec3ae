package handler

import (
	"net/http"

	"github.com/sireesha-siri/Millitary-Asset-Fullstack/internal/console"
	"github.com/sireesha-siri/Millitary-Asset-Fullstack/internal/guard"
)

// ViewHandler serves the console pages. The pages themselves are rendered by
// the front end; these endpoints only answer once the route guard admits the
// request, so they report which view was opened and for whom.
type ViewHandler struct {
	console *console.Console
}

// NewViewHandler creates a new ViewHandler.
func NewViewHandler(c *console.Console) *ViewHandler {
	return &ViewHandler{console: c}
}

// View returns a handler for a guarded page.
func (h *ViewHandler) View(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]interface{}{"view": name}
		if id, ok := guard.IdentityFromContext(r.Context()); ok {
			body["user"] = id
		}
		writeJSON(w, http.StatusOK, body)
	}
}

// LoginPage answers the sign-in page. A caller that is already signed in is
// sent on to the default page.
// GET /login
func (h *ViewHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if h.console.IsAuthenticated(r.Context()) && !queryBool(r, "force") {
		http.Redirect(w, r, h.console.Guard().DefaultPath(), http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"view":     "login",
		"endpoint": "/api/v1/session",
	})
}
