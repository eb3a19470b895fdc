// Package config handles persistent user configuration for vultrcli.
//
// Configuration is stored as JSON at ~/.config/vultrcli/config.json (or the
// platform-equivalent path returned by os.UserConfigDir). Every key can be
// overridden for a single invocation with a VULTRCLI_* environment variable,
// e.g. VULTRCLI_PREFERRED_CITY=Tokyo.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	appDir   = "vultrcli"
	fileName = "config.json"

	// EnvPrefix namespaces environment overrides.
	EnvPrefix = "VULTRCLI"
)

// Defaults applied when neither the file nor the environment sets a key.
const (
	DefaultPreferredCity   = "Osaka"
	DefaultPlanType        = "vc2"
	DefaultRequestTimeout  = "30s"
	DefaultAPIURL          = "https://api.vultr.com/v2"
	DefaultLogLevel        = "warn"
	DefaultCredentialStore = CredentialStoreFile
)

// Credential store backends.
const (
	CredentialStoreFile    = "file"
	CredentialStoreKeyring = "keyring"
)

// pathOverride, when non-empty, replaces the default config file path.
// Intended for testing. Use SetPath / ResetPath to manage.
var pathOverride string

// SetPath overrides the config file path. Intended for testing.
func SetPath(p string) { pathOverride = p }

// ResetPath clears the path override, reverting to the default. Intended for testing.
func ResetPath() { pathOverride = "" }

// Config holds user preferences that persist across invocations.
type Config struct {
	PreferredCity   string `json:"preferred_city,omitempty" mapstructure:"preferred_city"`
	PlanType        string `json:"plan_type,omitempty" mapstructure:"plan_type"`
	RequestTimeout  string `json:"request_timeout,omitempty" mapstructure:"request_timeout"`
	APIURL          string `json:"api_url,omitempty" mapstructure:"api_url"`
	LogLevel        string `json:"log_level,omitempty" mapstructure:"log_level"`
	CredentialStore string `json:"credential_store,omitempty" mapstructure:"credential_store"`
}

// Timeout parses RequestTimeout, falling back to the default on a bad or
// missing value.
func (c *Config) Timeout() time.Duration {
	if d, err := time.ParseDuration(c.RequestTimeout); err == nil && d > 0 {
		return d
	}
	d, _ := time.ParseDuration(DefaultRequestTimeout)
	return d
}

// Path returns the absolute path to the config file.
// If SetPath has been called, that value is returned instead.
// Otherwise it uses os.UserConfigDir which resolves to
// ~/Library/Application Support on macOS, ~/.config on Linux, and
// %AppData% on Windows.
func Path() (string, error) {
	if pathOverride != "" {
		return pathOverride, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: unable to determine config directory: %w", err)
	}
	return filepath.Join(base, appDir, fileName), nil
}

// Load returns the effective configuration: defaults, then the config
// file, then VULTRCLI_* environment variables. A missing file is not an
// error.
func Load() (*Config, error) {
	return loadFrom("")
}

func loadFrom(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = Path()
		if err != nil {
			return nil, err
		}
	}

	v := viper.New()
	v.SetDefault("preferred_city", DefaultPreferredCity)
	v.SetDefault("plan_type", DefaultPlanType)
	v.SetDefault("request_timeout", DefaultRequestTimeout)
	v.SetDefault("api_url", DefaultAPIURL)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("credential_store", DefaultCredentialStore)

	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: failed to decode %s: %w", path, err)
	}
	return &cfg, nil
}

// ReadFile returns only what is stored on disk, without defaults or
// environment overrides. Use it before Save so transient overrides are not
// persisted.
func ReadFile() (*Config, error) {
	return readFileFrom("")
}

func readFileFrom(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = Path()
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes the config to disk, creating the parent directory if needed.
func (c *Config) Save() error {
	return c.saveTo("")
}

func (c *Config) saveTo(path string) error {
	if path == "" {
		var err error
		path, err = Path()
		if err != nil {
			return err
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("config: failed to create directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("config: failed to marshal config: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: failed to write %s: %w", path, err)
	}

	return nil
}

// LoadFrom reads the effective config using the file at path. Intended for testing.
func LoadFrom(path string) (*Config, error) {
	return loadFrom(path)
}

// ReadFileFrom reads the raw file at path. Intended for testing.
func ReadFileFrom(path string) (*Config, error) {
	return readFileFrom(path)
}

// SaveTo writes the config to the given path. Intended for testing.
func (c *Config) SaveTo(path string) error {
	return c.saveTo(path)
}
