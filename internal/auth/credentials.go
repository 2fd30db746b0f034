// internal/auth/credentials.go
package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/law-makers/appcrawl/internal/config"
	"github.com/zalando/go-keyring"
)

// KeyringService is the service name passwords are stored under
const KeyringService = config.AppName

// ErrNoPassword is returned when no password is stored for a username.
var ErrNoPassword = errors.New("no stored password")

// fallbackDir is where passwords go when the OS keyring is unavailable.
var fallbackDir = func() string {
	return filepath.Join(config.DataDir(), "credentials")
}

var (
	storageProbe sync.Once
	useFiles     bool
)

// useFileBasedStorage reports whether the keyring should be bypassed.
// CI and Codespaces have no secret service, so files are used there directly.
func useFileBasedStorage() bool {
	storageProbe.Do(func() {
		if os.Getenv("CODESPACES") != "" || os.Getenv("CI") != "" {
			useFiles = true
			return
		}

		testKey := "_test_keyring_access_"
		if err := keyring.Set(KeyringService, testKey, "test"); err != nil {
			useFiles = true
			return
		}
		_ = keyring.Delete(KeyringService, testKey)
	})
	return useFiles
}

func passwordPath(username string) (string, error) {
	dir := fallbackDir()
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName(username)), nil
}

// fileName keeps usernames like "alice@example.com" usable as file names.
func fileName(username string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", ":", "_")
	return r.Replace(username) + ".secret"
}

// SetPassword stores the crawl login password for username
func SetPassword(username, password string) error {
	if username == "" {
		return fmt.Errorf("username cannot be empty")
	}

	if useFileBasedStorage() {
		path, err := passwordPath(username)
		if err != nil {
			return fmt.Errorf("failed to get credentials path: %w", err)
		}
		if err := os.WriteFile(path, []byte(password), 0o600); err != nil {
			return fmt.Errorf("failed to save credentials file: %w", err)
		}
		return nil
	}

	if err := keyring.Set(KeyringService, username, password); err != nil {
		return fmt.Errorf("failed to save to keyring: %w", err)
	}
	return nil
}

// GetPassword returns the stored password for username, or ErrNoPassword
func GetPassword(username string) (string, error) {
	if username == "" {
		return "", fmt.Errorf("username cannot be empty")
	}

	if useFileBasedStorage() {
		path, err := passwordPath(username)
		if err != nil {
			return "", fmt.Errorf("failed to get credentials path: %w", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return "", ErrNoPassword
			}
			return "", fmt.Errorf("failed to load credentials file: %w", err)
		}
		return string(data), nil
	}

	secret, err := keyring.Get(KeyringService, username)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNoPassword
		}
		return "", fmt.Errorf("failed to load from keyring: %w", err)
	}
	return secret, nil
}

// DeletePassword removes the stored password for username. Deleting a
// missing password is not an error.
func DeletePassword(username string) error {
	if username == "" {
		return fmt.Errorf("username cannot be empty")
	}

	if useFileBasedStorage() {
		path, err := passwordPath(username)
		if err != nil {
			return fmt.Errorf("failed to get credentials path: %w", err)
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete credentials file: %w", err)
		}
		return nil
	}

	if err := keyring.Delete(KeyringService, username); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}
	return nil
}

// ResolveCredentials fills in a missing password from the store. It leaves
// auth untouched when there is no username or a password is already set.
func ResolveCredentials(auth *config.AuthConfig) error {
	if auth == nil || auth.Credentials == nil {
		return nil
	}
	creds := auth.Credentials
	if creds.Username == "" || creds.Password != "" {
		return nil
	}

	secret, err := GetPassword(creds.Username)
	if err != nil {
		return fmt.Errorf("resolve password for %s: %w", creds.Username, err)
	}
	creds.Password = secret
	return nil
}
