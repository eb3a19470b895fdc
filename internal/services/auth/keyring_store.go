package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

// KeyringStore keeps the API key in the OS keychain (Keychain on macOS,
// Secret Service on Linux, Credential Manager on Windows).
type KeyringStore struct {
	serviceName string
}

func NewKeyringStore(serviceName string) *KeyringStore {
	if serviceName == "" {
		serviceName = ServiceName
	}
	return &KeyringStore{serviceName: serviceName}
}

func (k *KeyringStore) SetToken(account string, token string) error {
	token, err := cleanToken(token)
	if err != nil {
		return err
	}
	err = keyring.Set(k.serviceName, NormalizeAccount(account), token)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, keyring.ErrSetDataTooBig):
		return fmt.Errorf("auth: API key too large for the system keychain, use credential-store=file: %w", err)
	default:
		return fmt.Errorf("auth: keychain write failed: %w", err)
	}
}

// GetToken treats a blank keychain entry as missing.
func (k *KeyringStore) GetToken(account string) (string, error) {
	token, err := keyring.Get(k.serviceName, NormalizeAccount(account))
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrTokenNotFound
	}
	if err != nil {
		return "", fmt.Errorf("auth: keychain read failed: %w", err)
	}
	if token = strings.TrimSpace(token); token == "" {
		return "", ErrTokenNotFound
	}
	return token, nil
}

func (k *KeyringStore) DeleteToken(account string) error {
	err := keyring.Delete(k.serviceName, NormalizeAccount(account))
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrTokenNotFound
	}
	if err != nil {
		return fmt.Errorf("auth: keychain delete failed: %w", err)
	}
	return nil
}
