package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// KeySpec describes a single configuration key.
type KeySpec struct {
	// Name is the CLI-facing key name (e.g. "preferred-city").
	Name string

	// Description is a short human-readable explanation shown in help text.
	Description string

	// Get returns the current value for this key from a loaded Config.
	Get func(cfg *Config) string

	// Set applies a value for this key to the given Config (in memory only;
	// the caller is responsible for calling Save).
	Set func(cfg *Config, value string)

	// Validate rejects values Set would accept but the CLI cannot use.
	// Nil means any non-empty value is fine.
	Validate func(value string) error
}

// PlanTypes lists the plan families accepted by the plans endpoint.
var PlanTypes = []string{"all", "vc2", "vhf", "vhp", "vdc", "voc", "voc-g", "voc-c", "voc-m", "voc-s", "vcg"}

// Keys is the authoritative list of all supported configuration keys.
// To add a new option: add a field to Config, a default in loadFrom, and
// append a KeySpec here.
var Keys = []KeySpec{
	{
		Name:        "preferred-city",
		Description: "Region city pre-selected by the create wizard",
		Get:         func(cfg *Config) string { return cfg.PreferredCity },
		Set:         func(cfg *Config, v string) { cfg.PreferredCity = v },
	},
	{
		Name:        "plan-type",
		Description: "Plan family listed when creating instances",
		Get:         func(cfg *Config) string { return cfg.PlanType },
		Set:         func(cfg *Config, v string) { cfg.PlanType = strings.ToLower(v) },
		Validate:    oneOf(PlanTypes),
	},
	{
		Name:        "request-timeout",
		Description: "Per-request HTTP timeout (e.g. 30s, 1m)",
		Get:         func(cfg *Config) string { return cfg.RequestTimeout },
		Set:         func(cfg *Config, v string) { cfg.RequestTimeout = v },
		Validate:    validateDuration,
	},
	{
		Name:        "api-url",
		Description: "Base URL of the Vultr v2 API",
		Get:         func(cfg *Config) string { return cfg.APIURL },
		Set:         func(cfg *Config, v string) { cfg.APIURL = strings.TrimRight(v, "/") },
		Validate:    validateURL,
	},
	{
		Name:        "log-level",
		Description: "Diagnostic log level written to stderr (debug, info, warn, error)",
		Get:         func(cfg *Config) string { return cfg.LogLevel },
		Set:         func(cfg *Config, v string) { cfg.LogLevel = strings.ToLower(v) },
		Validate:    validateLogLevel,
	},
	{
		Name:        "credential-store",
		Description: "Where the API key is kept (file or keyring)",
		Get:         func(cfg *Config) string { return cfg.CredentialStore },
		Set:         func(cfg *Config, v string) { cfg.CredentialStore = strings.ToLower(v) },
		Validate:    oneOf([]string{CredentialStoreFile, CredentialStoreKeyring}),
	},
}

// Lookup returns the KeySpec for the given name, or nil if not found.
// The name is matched case-insensitively after trimming whitespace.
func Lookup(name string) *KeySpec {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for i := range Keys {
		if Keys[i].Name == normalized {
			return &Keys[i]
		}
	}
	return nil
}

// Check runs the key's validator, rejecting empty values for every key.
func (k *KeySpec) Check(value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s: value must not be empty", k.Name)
	}
	if k.Validate == nil {
		return nil
	}
	if err := k.Validate(value); err != nil {
		return fmt.Errorf("%s: %w", k.Name, err)
	}
	return nil
}

// KeyNames returns the names of all registered keys.
func KeyNames() []string {
	names := make([]string, len(Keys))
	for i, k := range Keys {
		names[i] = k.Name
	}
	return names
}

// KeysHelp builds a formatted block listing all available keys and their
// descriptions, suitable for inclusion in Cobra Long help text.
func KeysHelp() string {
	if len(Keys) == 0 {
		return ""
	}

	// Find the longest key name for alignment.
	maxLen := 0
	for _, k := range Keys {
		if len(k.Name) > maxLen {
			maxLen = len(k.Name)
		}
	}

	var b strings.Builder
	b.WriteString("Available keys:\n")
	for _, k := range Keys {
		fmt.Fprintf(&b, "  %-*s   %s\n", maxLen, k.Name, k.Description)
	}
	return b.String()
}

func oneOf(allowed []string) func(string) error {
	return func(v string) error {
		if slices.Contains(allowed, strings.ToLower(v)) {
			return nil
		}
		return fmt.Errorf("%q is not one of %s", v, strings.Join(allowed, ", "))
	}
}

func validateDuration(v string) error {
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid duration %q", v)
	}
	if d <= 0 {
		return fmt.Errorf("duration must be positive, got %s", d)
	}
	return nil
}

func validateURL(v string) error {
	u, err := url.Parse(v)
	if err != nil || u.Host == "" || (u.Scheme != "https" && u.Scheme != "http") {
		return fmt.Errorf("invalid API URL %q", v)
	}
	return nil
}

func validateLogLevel(v string) error {
	if _, err := logrus.ParseLevel(strings.ToLower(v)); err != nil {
		return fmt.Errorf("unknown log level %q", v)
	}
	return nil
}
