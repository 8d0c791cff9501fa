// Package credential keeps the API token in the OS keyring, keyed by
// server host so one machine can talk to several servers.
package credential

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"

	"github.com/99designs/keyring"
)

const serviceName = "beacon"

// Store reads and writes tokens in a keyring.
type Store struct {
	ring keyring.Keyring
}

// Open opens the platform keyring, falling back to an encrypted file
// under dataDir.
func Open(dataDir string) (*Store, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  filepath.Join(dataDir, "credentials"),
		FilePasswordFunc:         keyring.FixedStringPrompt("beacon-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return &Store{ring: ring}, nil
}

// NewStore wraps an already opened keyring.
func NewStore(ring keyring.Keyring) *Store {
	return &Store{ring: ring}
}

func tokenKey(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid base url %q", baseURL)
	}
	return "token:" + u.Host, nil
}

// Token returns the stored token for baseURL, or "" when none is stored.
func (s *Store) Token(baseURL string) (string, error) {
	key, err := tokenKey(baseURL)
	if err != nil {
		return "", err
	}

	item, err := s.ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}
	return string(item.Data), nil
}

func (s *Store) SetToken(baseURL, token string) error {
	key, err := tokenKey(baseURL)
	if err != nil {
		return err
	}
	if err := s.ring.Set(keyring.Item{Key: key, Data: []byte(token), Label: "beacon API token"}); err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}
	return nil
}

// DeleteToken removes the token. Removing a missing token is not an error.
func (s *Store) DeleteToken(baseURL string) error {
	key, err := tokenKey(baseURL)
	if err != nil {
		return err
	}
	if err := s.ring.Remove(key); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}
	return nil
}

// Resolve picks the token to use: configured wins over stored.
func (s *Store) Resolve(baseURL, configured string) (string, error) {
	if configured != "" || s == nil {
		return configured, nil
	}
	return s.Token(baseURL)
}
