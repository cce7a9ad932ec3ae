package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sireesha-siri/Millitary-Asset-Fullstack/internal/console"
	"github.com/sireesha-siri/Millitary-Asset-Fullstack/internal/openapi"
	"github.com/sireesha-siri/Millitary-Asset-Fullstack/internal/rbac"
	"github.com/sireesha-siri/Millitary-Asset-Fullstack/internal/service"
	"github.com/sireesha-siri/Millitary-Asset-Fullstack/internal/session"
)

// testEnv holds shared state for handler tests.
type testEnv struct {
	console *console.Console
	router  chi.Router
}

// newIdentityEndpoint fakes the identity service: commander/cmd123 is a Base
// Commander, logistics1/log123 a Logistics Officer. "down" answers 500.
func newIdentityEndpoint(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var creds service.Credentials
		json.NewDecoder(r.Body).Decode(&creds)
		var user map[string]interface{}
		switch {
		case creds.Username == "commander" && creds.Password == "cmd123":
			user = map[string]interface{}{"user_id": "7", "username": "commander", "full_name": "Base Commander", "roles": []string{rbac.RoleBaseCommander}}
		case creds.Username == "logistics1" && creds.Password == "log123":
			user = map[string]interface{}{"user_id": "9", "username": "logistics1", "roles": []string{rbac.RoleLogisticsOfficer}}
		case creds.Username == "down":
			w.WriteHeader(http.StatusInternalServerError)
			return
		case creds.Username == "garbled":
			w.Write([]byte(`{"user":`))
			return
		default:
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"user": user, "token": "opaque-" + creds.Username})
	}))
	t.Cleanup(srv.Close)
	return srv
}

// newTestEnv creates a console backed by an in-memory session backend and a
// Chi router with the handlers mounted directly.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	idp := newIdentityEndpoint(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := session.NewStore(session.NewMemoryBackend(), logger)
	auth := service.NewAuthenticator(store, service.Config{Endpoint: idp.URL, Timeout: 2 * time.Second}, logger)
	c := console.New(store, auth, rbac.DefaultRegistry(), logger)
	if err := c.Restore(context.Background()); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	sh := NewSessionHandler(c, logger)
	vh := NewViewHandler(c)
	oh := NewOpenAPIHandler("test", []openapi.View{{Name: "purchases", Path: "/purchases", Permission: rbac.PermPurchases}})

	r := chi.NewRouter()
	r.Get("/openapi.json", oh.ServeSpec)
	r.Get("/login", vh.LoginPage)
	r.With(c.Require(rbac.PermPurchases)).Get("/purchases", vh.View("purchases"))
	r.With(c.Require(rbac.PermExpenditures)).Get("/expenditures", vh.View("expenditures"))
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/session", sh.Login)
		r.Get("/session", sh.Current)
		r.Delete("/session", sh.Logout)
		r.Get("/navigation", sh.Navigation)
		r.Get("/permissions/{permission}", sh.CheckPermission)
		r.Get("/roles", sh.ListRoles)
	})

	return &testEnv{console: c, router: r}
}

// do performs a request against the test router and returns the recorder.
func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return m
}

func (e *testEnv) login(t *testing.T, username, password string) {
	t.Helper()
	rr := e.do(t, "POST", "/api/v1/session", map[string]string{"username": username, "password": password})
	if rr.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", username, rr.Code, rr.Body.String())
	}
}

// ---------------------------------------------------------------------------
// Session tests
// ---------------------------------------------------------------------------

func TestLoginReturnsIdentityAndPermissions(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "POST", "/api/v1/session", map[string]string{"username": "logistics1", "password": "log123"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	var resp sessionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.User.Username != "logistics1" || resp.User.UserID != "9" {
		t.Errorf("user = %+v", resp.User)
	}
	if got := len(resp.Permissions); got != 2 {
		t.Errorf("permissions = %v, want purchases and transfers", resp.Permissions)
	}
	if len(resp.Navigation) != 2 || resp.Navigation[0].Path != "/purchases" {
		t.Errorf("navigation = %+v", resp.Navigation)
	}
	if resp.Token != nil {
		t.Error("login response should not carry token info")
	}
}

func TestLoginFailures(t *testing.T) {
	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
	}{
		{"wrong password", map[string]string{"username": "commander", "password": "nope"}, http.StatusUnauthorized},
		{"empty credentials", map[string]string{"username": "", "password": ""}, http.StatusUnauthorized},
		{"server error", map[string]string{"username": "down", "password": "x"}, http.StatusUnauthorized},
		{"malformed response", map[string]string{"username": "garbled", "password": "x"}, http.StatusBadGateway},
		{"unknown field", map[string]string{"username": "a", "password": "b", "role": "Admin"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			rr := env.do(t, "POST", "/api/v1/session", tt.body)
			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rr.Code, tt.wantStatus, rr.Body.String())
			}
			if env.console.IsAuthenticated(context.Background()) {
				t.Error("failed login must not create a session")
			}
		})
	}
}

func TestFailedLoginKeepsPreviousSession(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "commander", "cmd123")

	rr := env.do(t, "POST", "/api/v1/session", map[string]string{"username": "commander", "password": "wrong"})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rr.Code)
	}

	id, ok := env.console.CurrentIdentity(context.Background())
	if !ok || id.Username != "commander" {
		t.Errorf("session after failed login = %+v, %v", id, ok)
	}
}

func TestCurrentSession(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "GET", "/api/v1/session", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("no session: status = %d, want 401", rr.Code)
	}

	env.login(t, "commander", "cmd123")

	rr = env.do(t, "GET", "/api/v1/session?include_token=true", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp sessionResponse
	json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp.User.FullName != "Base Commander" {
		t.Errorf("user = %+v", resp.User)
	}
	if len(resp.Permissions) != 5 {
		t.Errorf("permissions = %v, want all five", resp.Permissions)
	}
	if resp.Token == nil {
		t.Fatal("expected token info with include_token=true")
	}
	if resp.Token.IsJWT {
		t.Error("opaque token should not be reported as a JWT")
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "commander", "cmd123")

	for i := 0; i < 2; i++ {
		rr := env.do(t, "DELETE", "/api/v1/session", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("logout %d: status = %d", i, rr.Code)
		}
	}
	if env.console.IsAuthenticated(context.Background()) {
		t.Error("session should be gone after logout")
	}
}

func TestNavigation(t *testing.T) {
	env := newTestEnv(t)

	m := decode(t, env.do(t, "GET", "/api/v1/navigation", nil))
	if items := m["resource"].([]interface{}); len(items) != 0 {
		t.Errorf("anonymous navigation = %v, want empty", items)
	}

	env.login(t, "commander", "cmd123")
	m = decode(t, env.do(t, "GET", "/api/v1/navigation", nil))
	if items := m["resource"].([]interface{}); len(items) != 4 {
		t.Errorf("commander navigation has %d entries, want 4", len(items))
	}
}

func TestCheckPermission(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, "logistics1", "log123")

	tests := []struct {
		permission string
		want       bool
	}{
		{"purchases", true},
		{"transfers", true},
		{"dashboard", false},
		{"launch-codes", false},
	}
	for _, tt := range tests {
		t.Run(tt.permission, func(t *testing.T) {
			m := decode(t, env.do(t, "GET", "/api/v1/permissions/"+tt.permission, nil))
			if m["granted"] != tt.want {
				t.Errorf("granted = %v, want %v", m["granted"], tt.want)
			}
			if m["authenticated"] != true {
				t.Error("expected authenticated=true")
			}
		})
	}
}

func TestListRoles(t *testing.T) {
	env := newTestEnv(t)
	m := decode(t, env.do(t, "GET", "/api/v1/roles", nil))
	roles := m["resource"].([]interface{})
	if len(roles) != 3 {
		t.Fatalf("got %d roles, want 3", len(roles))
	}
	first := roles[0].(map[string]interface{})
	if first["role"] != rbac.RoleAdmin {
		t.Errorf("first role = %v, want sorted with Admin first", first["role"])
	}
	if meta := m["meta"].(map[string]interface{}); meta["count"] != float64(3) {
		t.Errorf("meta = %v, want count 3", meta)
	}
}

// ---------------------------------------------------------------------------
// View tests
// ---------------------------------------------------------------------------

func TestGuardedViews(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "GET", "/purchases", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("anonymous /purchases: status = %d, want 401", rr.Code)
	}

	env.login(t, "logistics1", "log123")

	rr = env.do(t, "GET", "/purchases", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("/purchases: status = %d", rr.Code)
	}
	m := decode(t, rr)
	if m["view"] != "purchases" {
		t.Errorf("view = %v", m["view"])
	}
	if user, _ := m["user"].(map[string]interface{}); user["username"] != "logistics1" {
		t.Errorf("user = %v", m["user"])
	}

	rr = env.do(t, "GET", "/expenditures", nil)
	if rr.Code != http.StatusForbidden {
		t.Errorf("/expenditures: status = %d, want 403", rr.Code)
	}
}

func TestLoginPage(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "GET", "/login", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("anonymous /login: status = %d", rr.Code)
	}

	env.login(t, "commander", "cmd123")
	rr = env.do(t, "GET", "/login", nil)
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/dashboard" {
		t.Errorf("signed-in /login: status = %d location %q", rr.Code, rr.Header().Get("Location"))
	}

	rr = env.do(t, "GET", "/login?force=1", nil)
	if rr.Code != http.StatusOK {
		t.Errorf("/login?force=1: status = %d", rr.Code)
	}
}

func TestServeSpec(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, "GET", "/openapi.json", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	m := decode(t, rr)
	if m["openapi"] != "3.1.0" {
		t.Errorf("openapi = %v", m["openapi"])
	}
	servers := m["servers"].([]interface{})
	if url := servers[0].(map[string]interface{})["url"]; url != "http://example.com" {
		t.Errorf("server url = %v", url)
	}
}
