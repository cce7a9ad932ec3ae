package model

import (
	"encoding/json"
	"testing"
)

func TestNewIdentityCopiesRoles(t *testing.T) {
	roles := []string{"Admin", "Logistics Officer"}
	id := NewIdentity("u1", "admin", "admin@example.com", "Admin User", roles)

	roles[0] = "Mutated"
	if id.Roles[0] != "Admin" {
		t.Errorf("Roles[0] = %q, want %q (identity must not alias caller slice)", id.Roles[0], "Admin")
	}
}

func TestNewIdentityNilRoles(t *testing.T) {
	id := NewIdentity("u1", "nobody", "", "", nil)
	if id.Roles == nil {
		t.Fatal("expected non-nil empty roles")
	}
	if len(id.Roles) != 0 {
		t.Errorf("len(Roles) = %d, want 0", len(id.Roles))
	}
}

func TestIdentityJSONRoundTrip(t *testing.T) {
	orig := NewIdentity("42", "logistics1", "log@example.com", "Log One", []string{"Logistics Officer"})

	b, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("Unmarshal to map: %v", err)
	}
	for _, key := range []string{"user_id", "username", "email", "full_name", "roles"} {
		if _, ok := m[key]; !ok {
			t.Errorf("missing JSON key %q", key)
		}
	}

	var got Identity
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if !got.Equal(orig) {
		t.Errorf("round trip = %+v, want %+v", got, orig)
	}
}

func TestIdentityHasRole(t *testing.T) {
	id := NewIdentity("1", "bc", "", "", []string{"Base Commander"})
	if !id.HasRole("Base Commander") {
		t.Error("expected HasRole(Base Commander) = true")
	}
	if id.HasRole("Admin") {
		t.Error("expected HasRole(Admin) = false")
	}
}

func TestSessionTokenNotSerialized(t *testing.T) {
	s := Session{Identity: NewIdentity("1", "a", "", "", nil), Token: "secret"}
	b, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	var m map[string]interface{}
	json.Unmarshal(b, &m)
	if _, ok := m["token"]; ok {
		t.Error("token must not appear in serialized session")
	}
}
