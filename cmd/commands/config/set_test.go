package config

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"nathanbeddoewebdev/vultrcli/internal/config"
)

// setupTestConfig points the config package at a temp file and returns cleanup.
func setupTestConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	config.SetPath(path)
	t.Cleanup(config.ResetPath)
	return path
}

// execConfig creates the config command, wires up output buffers, runs with the
// given args, and returns what was written to stdout and stderr.
func execConfig(t *testing.T, args ...string) (stdout, stderr string) {
	t.Helper()
	var outBuf, errBuf bytes.Buffer
	cmd := NewCommand()
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)
	cmd.Execute()
	return outBuf.String(), errBuf.String()
}

func TestSet_PreferredCity(t *testing.T) {
	path := setupTestConfig(t)

	stdout, stderr := execConfig(t, "set", "preferred-city", "Tokyo")

	if stderr != "" {
		t.Errorf("unexpected stderr: %s", stderr)
	}
	if !strings.Contains(stdout, `preferred-city set to "Tokyo"`) {
		t.Errorf("expected confirmation with value, got: %s", stdout)
	}

	// Verify it was persisted.
	cfg, err := config.ReadFileFrom(path)
	if err != nil {
		t.Fatalf("failed to read config: %v", err)
	}
	if cfg.PreferredCity != "Tokyo" {
		t.Errorf("expected PreferredCity %q, got %q", "Tokyo", cfg.PreferredCity)
	}
}

func TestSet_UnknownKey(t *testing.T) {
	setupTestConfig(t)

	_, stderr := execConfig(t, "set", "bogus-key", "value")

	if !strings.Contains(stderr, "unknown configuration key") {
		t.Errorf("expected 'unknown configuration key' error, got: %s", stderr)
	}
}

func TestSet_KeyIsCaseInsensitive(t *testing.T) {
	setupTestConfig(t)

	stdout, stderr := execConfig(t, "set", "PLAN-TYPE", "VHF")

	if stderr != "" {
		t.Errorf("unexpected stderr: %s", stderr)
	}
	if !strings.Contains(stdout, `plan-type set to "vhf"`) {
		t.Errorf("expected normalized plan type, got: %s", stdout)
	}
}

func TestSet_RejectsInvalidValue(t *testing.T) {
	path := setupTestConfig(t)

	for _, args := range [][]string{
		{"set", "plan-type", "bogus"},
		{"set", "request-timeout", "0s"},
		{"set", "api-url", "ftp://example.com"},
		{"set", "credential-store", "vault"},
		{"set", "preferred-city", "  "},
	} {
		_, stderr := execConfig(t, args...)
		if !strings.Contains(stderr, "Error:") {
			t.Errorf("%v: expected an error, got stderr %q", args, stderr)
		}
	}

	cfg, err := config.ReadFileFrom(path)
	if err != nil {
		t.Fatalf("failed to read config: %v", err)
	}
	if *cfg != (config.Config{}) {
		t.Errorf("rejected values must not be written, got %+v", cfg)
	}
}

func TestSet_DoesNotPersistEnvironmentOverrides(t *testing.T) {
	path := setupTestConfig(t)
	t.Setenv("VULTRCLI_PLAN_TYPE", "vhp")

	execConfig(t, "set", "preferred-city", "Tokyo")

	cfg, err := config.ReadFileFrom(path)
	if err != nil {
		t.Fatalf("failed to read config: %v", err)
	}
	if cfg.PlanType != "" {
		t.Errorf("environment override leaked into the file: plan_type=%q", cfg.PlanType)
	}
}
