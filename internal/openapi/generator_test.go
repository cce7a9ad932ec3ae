package openapi

import (
	"encoding/json"
	"strings"
	"testing"
)

var testViews = []View{
	{Name: "dashboard", Path: "/dashboard", Permission: "dashboard"},
	{Name: "purchases", Path: "/purchases", Permission: "purchases"},
}

func TestGenerateIncludesConsolePaths(t *testing.T) {
	doc := Generate("http://localhost:8090", "1.2.3", testViews)

	if doc.OpenAPI != "3.1.0" {
		t.Errorf("OpenAPI = %q, want 3.1.0", doc.OpenAPI)
	}
	if doc.Info.Version != "1.2.3" {
		t.Errorf("Info.Version = %q", doc.Info.Version)
	}
	if len(doc.Servers) != 1 || doc.Servers[0].URL != "http://localhost:8090" {
		t.Errorf("Servers = %+v", doc.Servers)
	}

	for _, path := range []string{
		"/api/v1/session",
		"/api/v1/navigation",
		"/api/v1/permissions/{permission}",
		"/api/v1/roles",
		"/dashboard",
		"/purchases",
		"/healthz",
		"/readyz",
	} {
		if doc.Paths.Value(path) == nil {
			t.Errorf("missing path %s", path)
		}
	}

	session := doc.Paths.Value("/api/v1/session")
	if session.Post == nil || session.Get == nil || session.Delete == nil {
		t.Fatal("session path should have POST, GET and DELETE")
	}
	if session.Post.Responses.Value("401") == nil {
		t.Error("login should document 401")
	}
	if session.Post.Responses.Value("502") == nil {
		t.Error("login should document 502")
	}
}

func TestGenerateViewOperations(t *testing.T) {
	doc := Generate("/", "dev", testViews)

	op := doc.Paths.Value("/purchases").Get
	if op == nil {
		t.Fatal("missing GET /purchases")
	}
	if op.OperationID != "view_purchases" {
		t.Errorf("OperationID = %q", op.OperationID)
	}
	if !strings.Contains(op.Description, `"purchases"`) {
		t.Errorf("Description = %q, want it to name the permission", op.Description)
	}
	for _, code := range []string{"200", "303", "401", "403", "503"} {
		if op.Responses.Value(code) == nil {
			t.Errorf("missing %s response", code)
		}
	}
}

func TestGenerateUnguardedViewDescription(t *testing.T) {
	doc := Generate("/", "dev", []View{{Name: "home", Path: "/home"}})
	op := doc.Paths.Value("/home").Get
	if op.Description != "Requires a signed-in session" {
		t.Errorf("Description = %q", op.Description)
	}
}

func TestGenerateSchemaReferencesResolve(t *testing.T) {
	doc := Generate("/", "dev", testViews)

	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	const prefix = `"#/components/schemas/`
	body := string(raw)
	for {
		i := strings.Index(body, prefix)
		if i < 0 {
			break
		}
		body = body[i+len(prefix):]
		name := body[:strings.IndexByte(body, '"')]
		if _, ok := doc.Components.Schemas[name]; !ok {
			t.Errorf("reference to undefined schema %q", name)
		}
	}

	for _, name := range []string{"ErrorResponse", "LoginRequest", "Identity", "NavItem", "TokenInfo", "Session"} {
		if _, ok := doc.Components.Schemas[name]; !ok {
			t.Errorf("missing schema %s", name)
		}
	}
}

func TestIdentitySchemaRequiresCoreFields(t *testing.T) {
	doc := Generate("/", "dev", nil)
	identity := doc.Components.Schemas["Identity"].Value

	required := strings.Join(identity.Required, ",")
	if required != "user_id,username,roles" {
		t.Errorf("Required = %q", required)
	}
	if identity.Properties["roles"].Value.Items == nil {
		t.Error("roles should be an array of strings")
	}
}
