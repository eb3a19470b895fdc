// Package cmdutil holds the per-invocation plumbing shared by the command
// packages: configuration, logging, credentials and the provider.
package cmdutil

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"nathanbeddoewebdev/vultrcli/internal/auditlog"
	"nathanbeddoewebdev/vultrcli/internal/config"
	"nathanbeddoewebdev/vultrcli/internal/domain"
	"nathanbeddoewebdev/vultrcli/internal/lifecycle"
	"nathanbeddoewebdev/vultrcli/internal/logger"
	"nathanbeddoewebdev/vultrcli/internal/providers"
	"nathanbeddoewebdev/vultrcli/internal/services/auth"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

var storeOverride auth.Store

// SetStore replaces the credential store. Intended for use in tests only.
func SetStore(s auth.Store) { storeOverride = s }

// ResetStore restores the configured credential store.
func ResetStore() { storeOverride = nil }

// IsInteractive reports whether prompts and TUIs can be shown. Tests
// replace it to force the non-interactive paths.
var IsInteractive = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// Env is what a command needs for one invocation.
type Env struct {
	Config *config.Config
	Log    *logrus.Logger
	Store  auth.Store
}

// Load reads the effective configuration and builds the logger and the
// credential store from it. Log output goes to the command's stderr.
func Load(cmd *cobra.Command) (*Env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	store := storeOverride
	if store == nil {
		store = auth.DefaultStore(cfg)
	}

	return &Env{
		Config: cfg,
		Log:    logger.New(cfg.LogLevel, cmd.ErrOrStderr()),
		Store:  store,
	}, nil
}

// Provider builds the Vultr provider from the stored API key.
func (e *Env) Provider() (domain.Provider, error) {
	return providers.Get(e.Store, e.Config, e.Log)
}

// Manager wraps p in a lifecycle manager that records mutations to the
// audit log. An unavailable audit database only costs the history. The
// returned func releases it.
func (e *Env) Manager(p domain.InstanceProvider) (*lifecycle.Manager, func()) {
	opts := []lifecycle.Option{lifecycle.WithLogger(e.Log)}
	closer := func() {}

	repo, err := auditlog.Open()
	if err != nil {
		e.Log.WithError(err).Warn("audit log unavailable, operations will not be recorded")
	} else {
		opts = append(opts, lifecycle.WithRecorder(auditlog.NewRecorder(repo, e.Log)))
		closer = func() {
			if err := repo.Close(); err != nil {
				e.Log.WithError(err).Debug("closing audit log")
			}
		}
	}
	return lifecycle.NewManager(p, opts...), closer
}

// Context returns the command's context carrying the invocation for the
// audit log. Flags are recorded as --name=value; secrets are redacted.
func Context(cmd *cobra.Command, args []string) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var recorded []string
	cmd.Flags().Visit(func(f *pflag.Flag) {
		recorded = append(recorded, "--"+f.Name+"="+f.Value.String())
	})
	recorded = append(recorded, args...)

	return auditlog.WithInvocation(ctx, auditlog.Invocation{
		Command: cmd.CommandPath(),
		Args:    recorded,
	})
}

// OutputFormat reads and validates the -o flag.
func OutputFormat(cmd *cobra.Command) (string, error) {
	output, _ := cmd.Flags().GetString("output")
	output = strings.ToLower(strings.TrimSpace(output))
	switch output {
	case "", "table":
		return "table", nil
	case "json":
		return "json", nil
	default:
		return "", fmt.Errorf("unsupported output format %q (use table or json)", output)
	}
}

// AddOutputFlag registers -o/--output.
func AddOutputFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", "table", "Output format: table or json")
}

// PrintJSON encodes v as indented JSON to the command's stdout.
func PrintJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
