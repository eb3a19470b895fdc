// Package auth stores the Vultr API key between invocations.
package auth

import (
	"errors"
	"strings"

	"nathanbeddoewebdev/vultrcli/internal/config"
)

const (
	ServiceName = "vultrcli"

	// Account is the key under which the Vultr API key is stored.
	Account = "vultr"
)

var (
	ErrTokenNotFound = errors.New("auth token not found")
	ErrEmptyToken    = errors.New("API key must not be empty")
)

type Store interface {
	SetToken(account string, token string) error
	GetToken(account string) (string, error)
	DeleteToken(account string) error
}

// DefaultStore returns the store selected by the credential-store setting.
// Anything other than "keyring" uses the JSON file store.
func DefaultStore(cfg *config.Config) Store {
	if cfg != nil && strings.EqualFold(cfg.CredentialStore, config.CredentialStoreKeyring) {
		return NewKeyringStore(ServiceName)
	}
	return NewFileStore("")
}

// NormalizeAccount maps account names that differ only in case or
// surrounding space to the same entry.
func NormalizeAccount(account string) string {
	return strings.ToLower(strings.TrimSpace(account))
}

// cleanToken trims pasted whitespace and rejects keys that are blank after
// trimming. Every store applies it before writing.
func cleanToken(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrEmptyToken
	}
	return token, nil
}
