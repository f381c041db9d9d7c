// ABOUTME: Tests for AuthStore persistence and client token generation
// ABOUTME: Checks that only the client token and username reach disk

package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestLoadAuthFile_Missing(t *testing.T) {
	t.Parallel()

	store, err := LoadAuthFile(filepath.Join(t.TempDir(), "auth.json"))
	if err != nil {
		t.Fatalf("LoadAuthFile: %v", err)
	}
	if store.ClientToken != "" || store.Username != "" {
		t.Errorf("store = %+v; want empty", store)
	}
}

func TestAuthStore_EnsureClientToken(t *testing.T) {
	t.Parallel()

	store := &AuthStore{}
	tok := store.EnsureClientToken()
	if len(tok) != 32 || strings.Contains(tok, "-") {
		t.Errorf("token = %q; want 32 hex chars", tok)
	}
	if store.EnsureClientToken() != tok {
		t.Error("token must be stable once generated")
	}

	stored := &AuthStore{ClientToken: "5880d0fd9985432fa13cfd7192625038"}
	if stored.EnsureClientToken() != "5880d0fd9985432fa13cfd7192625038" {
		t.Error("stored token must be kept")
	}
}

func TestAuthStore_SaveLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "auth.json")
	store, err := LoadAuthFile(path)
	if err != nil {
		t.Fatal(err)
	}
	store.Remember("steve@example.com", "client-123")
	if err := store.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, field := range []string{`"client_token"`, `"username"`} {
		if !strings.Contains(string(data), field) {
			t.Errorf("auth.json missing %s: %s", field, data)
		}
	}
	for _, forbidden := range []string{"password", "access"} {
		if strings.Contains(string(data), forbidden) {
			t.Errorf("auth.json must not contain %q: %s", forbidden, data)
		}
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if perm := info.Mode().Perm(); perm != 0o600 {
			t.Errorf("permissions = %o; want 600", perm)
		}
	}

	again, err := LoadAuthFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if again.Username != "steve@example.com" || again.ClientToken != "client-123" {
		t.Errorf("reloaded = %+v", again)
	}
}

func TestAuthStore_RememberKeepsTokenWhenEmpty(t *testing.T) {
	t.Parallel()

	store := &AuthStore{ClientToken: "keep"}
	store.Remember("alex", "")
	if store.ClientToken != "keep" || store.Username != "alex" {
		t.Errorf("store = %+v", store)
	}
}
