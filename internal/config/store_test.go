package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore("") // in-memory
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSettingGetSet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.GetSetting(ctx, "missing"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := s.SetSetting(ctx, "session.token", "abc"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	got, err := s.GetSetting(ctx, "session.token")
	if err != nil {
		t.Fatalf("GetSetting: %v", err)
	}
	if got != "abc" {
		t.Errorf("got %q, want %q", got, "abc")
	}

	// Overwrite
	if err := s.SetSetting(ctx, "session.token", "def"); err != nil {
		t.Fatalf("SetSetting overwrite: %v", err)
	}
	got, _ = s.GetSetting(ctx, "session.token")
	if got != "def" {
		t.Errorf("got %q, want %q", got, "def")
	}
}

func TestSlotsWriteReadDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	slots := map[string]string{
		"session.identity": `{"user_id":"1"}`,
		"session.token":    "tok",
	}
	if err := s.WriteSlots(ctx, slots); err != nil {
		t.Fatalf("WriteSlots: %v", err)
	}

	got, err := s.ReadSlots(ctx, "session.identity", "session.token", "session.other")
	if err != nil {
		t.Fatalf("ReadSlots: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d slots, want 2", len(got))
	}
	if got["session.token"] != "tok" {
		t.Errorf("token = %q, want %q", got["session.token"], "tok")
	}
	if _, ok := got["session.other"]; ok {
		t.Error("missing slot should be absent from result")
	}

	if err := s.DeleteSlots(ctx, "session.identity", "session.token"); err != nil {
		t.Fatalf("DeleteSlots: %v", err)
	}
	got, err = s.ReadSlots(ctx, "session.identity", "session.token")
	if err != nil {
		t.Fatalf("ReadSlots after delete: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d slots after delete, want 0", len(got))
	}

	// Deleting again is a no-op.
	if err := s.DeleteSlots(ctx, "session.identity", "session.token"); err != nil {
		t.Errorf("second DeleteSlots: %v", err)
	}
}

func TestReadSlotsNoKeys(t *testing.T) {
	s := newTestStore(t)
	got, err := s.ReadSlots(context.Background())
	if err != nil {
		t.Fatalf("ReadSlots: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %v, want empty", got)
	}
}

func TestWriteSlotsCanceledContextLeavesState(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.WriteSlots(ctx, map[string]string{"session.token": "old"}); err != nil {
		t.Fatalf("WriteSlots: %v", err)
	}

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	if err := s.WriteSlots(canceled, map[string]string{"session.token": "new"}); err == nil {
		t.Fatal("expected error writing with canceled context")
	}

	got, err := s.GetSetting(ctx, "session.token")
	if err != nil {
		t.Fatalf("GetSetting: %v", err)
	}
	if got != "old" {
		t.Errorf("token = %q, want %q", got, "old")
	}
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := s.SetSetting(ctx, "session.token", "durable"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	s.Close()

	if _, err := os.Stat(filepath.Join(dir, "assetctl.db")); err != nil {
		t.Fatalf("expected database file: %v", err)
	}

	s2, err := NewStore(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	got, err := s2.GetSetting(ctx, "session.token")
	if err != nil {
		t.Fatalf("GetSetting after reopen: %v", err)
	}
	if got != "durable" {
		t.Errorf("got %q, want %q", got, "durable")
	}

	var version int
	if err := s2.db.Get(&version, "PRAGMA user_version"); err != nil {
		t.Fatalf("read user_version: %v", err)
	}
	if version != len(migrations) {
		t.Errorf("user_version = %d, want %d", version, len(migrations))
	}
}

func TestLoadYAMLConfig(t *testing.T) {
	t.Setenv("ASSETCTL_TEST_ENDPOINT", "http://idp.local/auth/login")

	path := filepath.Join(t.TempDir(), "assetctl.yaml")
	content := `auth:
  endpoint: ${ASSETCTL_TEST_ENDPOINT}
  timeout: 5s
storage:
  driver: redis
roles:
  Auditor: [expenditures]
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadYAMLConfig(path)
	if err != nil {
		t.Fatalf("LoadYAMLConfig: %v", err)
	}
	if cfg.Auth.Endpoint != "http://idp.local/auth/login" {
		t.Errorf("endpoint = %q", cfg.Auth.Endpoint)
	}
	if cfg.Storage.Driver != "redis" {
		t.Errorf("driver = %q, want redis", cfg.Storage.Driver)
	}
	// Defaults survive for fields absent from the file.
	if cfg.Guard.LoginPath != "/login" {
		t.Errorf("login path = %q, want /login", cfg.Guard.LoginPath)
	}
	if got := cfg.Roles["Auditor"]; len(got) != 1 || got[0] != "expenditures" {
		t.Errorf("roles = %v", cfg.Roles)
	}
}

func TestWriteDefaultConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assetctl.yaml")
	if err := WriteDefaultConfig(path); err != nil {
		t.Fatalf("WriteDefaultConfig: %v", err)
	}
	cfg, err := LoadYAMLConfig(path)
	if err != nil {
		t.Fatalf("LoadYAMLConfig: %v", err)
	}
	if cfg.Auth.Endpoint != DefaultAuthEndpoint {
		t.Errorf("endpoint = %q, want default", cfg.Auth.Endpoint)
	}
	if cfg.Server.Port != 8090 {
		t.Errorf("port = %d, want 8090", cfg.Server.Port)
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"", time.Second},
		{"garbage", time.Second},
		{"-5s", time.Second},
		{"250ms", 250 * time.Millisecond},
		{"2m", 2 * time.Minute},
	}
	for _, tt := range tests {
		if got := ParseDuration(tt.in, time.Second); got != tt.want {
			t.Errorf("ParseDuration(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
