package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const credentialsFile = "vultr_config.json"

// FileStore keeps the API key in a JSON file of the form
// {"api_key": "..."} readable only by the owner. It holds a single key, so
// the account argument is ignored.
type FileStore struct {
	path string
}

type fileCredentials struct {
	APIKey string `json:"api_key"`
}

// NewFileStore uses path, or <UserConfigDir>/vultrcli/vultr_config.json
// when path is empty.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the file the store reads and writes.
func (f *FileStore) Path() (string, error) {
	if f.path != "" {
		return f.path, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("auth: unable to determine config directory: %w", err)
	}
	return filepath.Join(base, ServiceName, credentialsFile), nil
}

func (f *FileStore) SetToken(_ string, token string) error {
	token, err := cleanToken(token)
	if err != nil {
		return err
	}
	path, err := f.Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("auth: failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(fileCredentials{APIKey: token}, "", "  ")
	if err != nil {
		return fmt.Errorf("auth: failed to encode credentials: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("auth: failed to write %s: %w", path, err)
	}
	// WriteFile keeps the mode of an existing file.
	return os.Chmod(path, 0o600)
}

func (f *FileStore) GetToken(_ string) (string, error) {
	path, err := f.Path()
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrTokenNotFound
		}
		return "", fmt.Errorf("auth: failed to read %s: %w", path, err)
	}

	var creds fileCredentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return "", fmt.Errorf("auth: failed to parse %s: %w", path, err)
	}
	key := strings.TrimSpace(creds.APIKey)
	if key == "" {
		return "", ErrTokenNotFound
	}
	return key, nil
}

func (f *FileStore) DeleteToken(_ string) error {
	path, err := f.Path()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrTokenNotFound
		}
		return fmt.Errorf("auth: failed to remove %s: %w", path, err)
	}
	return nil
}
