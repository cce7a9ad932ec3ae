package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sireesha-siri/Millitary-Asset-Fullstack/internal/console"
	"github.com/sireesha-siri/Millitary-Asset-Fullstack/internal/model"
	"github.com/sireesha-siri/Millitary-Asset-Fullstack/internal/service"
)

// SessionHandler serves sign-in, sign-out and "who am I" for the console.
type SessionHandler struct {
	console *console.Console
	logger  *slog.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(c *console.Console, logger *slog.Logger) *SessionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionHandler{console: c, logger: logger}
}

// loginRequest is the request payload for signing in.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// sessionResponse describes the active session.
type sessionResponse struct {
	User        model.Identity     `json:"user"`
	Permissions []string           `json:"permissions"`
	Navigation  []console.NavItem  `json:"navigation"`
	Token       *service.TokenInfo `json:"token,omitempty"`
}

func (h *SessionHandler) describe(r *http.Request, id model.Identity, withToken bool) sessionResponse {
	resp := sessionResponse{
		User:        id,
		Permissions: h.console.Permissions(r.Context()),
		Navigation:  h.console.Navigation(r.Context()),
	}
	if withToken {
		if info, ok := h.console.TokenInfo(r.Context()); ok {
			resp.Token = &info
		}
	}
	return resp
}

// Login exchanges credentials with the identity endpoint and starts a session.
// POST /api/v1/session
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	id, err := h.console.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		status, msg := classifyAuthError(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("login failed", "error", err)
		}
		writeError(w, status, msg)
		return
	}

	writeJSON(w, http.StatusOK, h.describe(r, id, false))
}

// Logout ends the active session. It succeeds even when nobody is signed in.
// DELETE /api/v1/session
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.console.Logout(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Session ended",
	})
}

// Current returns the signed-in identity with its permissions. Pass
// include_token=true to add the token's unverified claims.
// GET /api/v1/session
func (h *SessionHandler) Current(w http.ResponseWriter, r *http.Request) {
	id, ok := h.console.CurrentIdentity(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "No active session")
		return
	}
	writeJSON(w, http.StatusOK, h.describe(r, id, queryBool(r, "include_token")))
}

// Navigation lists the menu entries the active session may open. The list is
// empty when nobody is signed in.
// GET /api/v1/navigation
func (h *SessionHandler) Navigation(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"resource": h.console.Navigation(r.Context()),
	})
}

// CheckPermission reports whether the active session grants one permission.
// GET /api/v1/permissions/{permission}
func (h *SessionHandler) CheckPermission(w http.ResponseWriter, r *http.Request) {
	permission := chi.URLParam(r, "permission")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"permission":    permission,
		"authenticated": h.console.IsAuthenticated(r.Context()),
		"granted":       h.console.HasPermission(r.Context(), permission),
	})
}

// ListRoles returns the role table in use.
// GET /api/v1/roles
func (h *SessionHandler) ListRoles(w http.ResponseWriter, r *http.Request) {
	reg := h.console.Registry()
	resources := make([]map[string]interface{}, 0)
	for _, role := range reg.Roles() {
		resources = append(resources, map[string]interface{}{
			"role":        role,
			"permissions": reg.PermissionsFor(role).Slice(),
		})
	}
	writeJSON(w, http.StatusOK, model.ListResponse{
		Resource: resources,
		Meta:     &model.ResponseMeta{Count: len(resources)},
	})
}
