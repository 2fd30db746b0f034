package auth

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/law-makers/appcrawl/internal/config"
)

// useTempStore forces the file fallback into a temp dir.
func useTempStore(t *testing.T) string {
	t.Helper()
	t.Setenv("CI", "1")

	dir := t.TempDir()
	prev := fallbackDir
	fallbackDir = func() string { return dir }
	storageProbe.Do(func() { useFiles = true })
	t.Cleanup(func() { fallbackDir = prev })
	return dir
}

func TestPasswordRoundTrip(t *testing.T) {
	dir := useTempStore(t)

	if err := SetPassword("alice@example.com", "s3cret"); err != nil {
		t.Fatalf("SetPassword: %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, "alice@example.com.secret"))
	if err != nil {
		t.Fatalf("expected secret file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("expected 0600, got %o", perm)
	}

	got, err := GetPassword("alice@example.com")
	if err != nil || got != "s3cret" {
		t.Fatalf("GetPassword = %q, %v", got, err)
	}

	if err := DeletePassword("alice@example.com"); err != nil {
		t.Fatalf("DeletePassword: %v", err)
	}
	if _, err := GetPassword("alice@example.com"); !errors.Is(err, ErrNoPassword) {
		t.Errorf("expected ErrNoPassword after delete, got %v", err)
	}
	if err := DeletePassword("alice@example.com"); err != nil {
		t.Errorf("deleting twice should be a no-op, got %v", err)
	}
}

func TestEmptyUsernameRejected(t *testing.T) {
	useTempStore(t)

	if err := SetPassword("", "x"); err == nil {
		t.Error("expected error for empty username")
	}
	if _, err := GetPassword(""); err == nil {
		t.Error("expected error for empty username")
	}
}

func TestResolveCredentials(t *testing.T) {
	useTempStore(t)
	if err := SetPassword("bob", "hunter2"); err != nil {
		t.Fatal(err)
	}

	ac := &config.AuthConfig{Credentials: &config.Credentials{Username: "bob"}}
	if err := ResolveCredentials(ac); err != nil {
		t.Fatalf("ResolveCredentials: %v", err)
	}
	if ac.Credentials.Password != "hunter2" {
		t.Errorf("expected password from store, got %q", ac.Credentials.Password)
	}

	explicit := &config.AuthConfig{Credentials: &config.Credentials{Username: "bob", Password: "given"}}
	if err := ResolveCredentials(explicit); err != nil || explicit.Credentials.Password != "given" {
		t.Errorf("explicit password must win, got %q %v", explicit.Credentials.Password, err)
	}

	missing := &config.AuthConfig{Credentials: &config.Credentials{Username: "carol"}}
	if err := ResolveCredentials(missing); !errors.Is(err, ErrNoPassword) {
		t.Errorf("expected ErrNoPassword, got %v", err)
	}

	if err := ResolveCredentials(nil); err != nil {
		t.Errorf("nil auth should be ignored, got %v", err)
	}
}
