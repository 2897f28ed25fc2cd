package secret

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Well-known secret keys.
const (
	FigmaAccessToken = "FIGMA_ACCESS_TOKEN"
	HMACSecretKey    = "HMAC_SECRET_KEY"
	DatabasePassword = "DATABASE_PASSWORD"
)

// SecretStore provides a pluggable interface for sensitive values such as
// the API token and the signing key. Implementations read the environment
// or mounted secret files.
type SecretStore interface {
	// Set stores a secret value under the given key.
	Set(key string, value []byte) error

	// Get retrieves the secret value for the given key.
	// Returns empty slice and nil error if key does not exist.
	Get(key string) ([]byte, error)

	// Delete removes the secret for the given key.
	Delete(key string) error
}

// GetString returns the secret as a trimmed string, "" when absent.
func GetString(s SecretStore, key string) (string, error) {
	v, err := s.Get(key)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(v)), nil
}

// ── Environment ────────────────────────────────────────────

// EnvStore reads secrets from environment variables. When KEY is unset and
// KEY_FILE names a file, the file content is used instead.
type EnvStore struct{}

// NewEnvStore creates a new EnvStore.
func NewEnvStore() *EnvStore {
	return &EnvStore{}
}

func (e *EnvStore) Set(key string, value []byte) error {
	return os.Setenv(key, string(value))
}

func (e *EnvStore) Get(key string) ([]byte, error) {
	if v := os.Getenv(key); v != "" {
		return []byte(v), nil
	}
	path := os.Getenv(key + "_FILE")
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s_FILE: %w", key, err)
	}
	return data, nil
}

func (e *EnvStore) Delete(key string) error {
	return os.Unsetenv(key)
}

// ── Files ──────────────────────────────────────────────────

// FileStore keeps one secret per file in a directory, the layout of
// container secret mounts (/run/secrets/KEY).
type FileStore struct {
	dir string
}

// NewFileStore creates a FileStore rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (f *FileStore) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid secret key %q", key)
	}
	return filepath.Join(f.dir, key), nil
}

func (f *FileStore) Set(key string, value []byte) error {
	p, err := f.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(f.dir, 0700); err != nil {
		return fmt.Errorf("create secrets dir: %w", err)
	}
	return os.WriteFile(p, value, 0600)
}

func (f *FileStore) Get(key string) ([]byte, error) {
	p, err := f.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return data, err
}

func (f *FileStore) Delete(key string) error {
	p, err := f.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// ── Chain ──────────────────────────────────────────────────

// Chain looks a key up in each store in order and returns the first
// non-empty value. Set and Delete apply to the first store only.
type Chain []SecretStore

func (c Chain) Set(key string, value []byte) error {
	if len(c) == 0 {
		return errors.New("no secret store configured")
	}
	return c[0].Set(key, value)
}

func (c Chain) Get(key string) ([]byte, error) {
	for _, s := range c {
		v, err := s.Get(key)
		if err != nil {
			return nil, err
		}
		if len(v) > 0 {
			return v, nil
		}
	}
	return nil, nil
}

func (c Chain) Delete(key string) error {
	if len(c) == 0 {
		return nil
	}
	return c[0].Delete(key)
}
