package auth

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"nathanbeddoewebdev/vultrcli/cmd/commands/cmdutil"
	"nathanbeddoewebdev/vultrcli/internal/domain"
	"nathanbeddoewebdev/vultrcli/internal/providers"
	"nathanbeddoewebdev/vultrcli/internal/services/auth"

	"golang.org/x/term"

	"github.com/spf13/cobra"
)

func LoginCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Validate and store a Vultr API key",
		Long: `Validate a Vultr API key by listing regions with it, then store it.

The key is stored in the JSON credential file by default, or in the system
keychain when credential-store is set to "keyring".

Example:
  vultrcli auth login
  vultrcli auth login --token <key>`,
		Args:         cobra.NoArgs,
		RunE:         runLogin,
		SilenceUsage: true,
	}

	cmd.Flags().String("token", "", "API key (optional, overrides prompt)")

	return cmd
}

func runLogin(cmd *cobra.Command, args []string) error {
	env, err := cmdutil.Load(cmd)
	if err != nil {
		return err
	}

	token, _ := cmd.Flags().GetString("token")
	token = strings.TrimSpace(token)
	if token == "" {
		if !cmdutil.IsInteractive() {
			return fmt.Errorf("--token is required in a non-interactive session")
		}
		fmt.Fprint(cmd.ErrOrStderr(), "Enter API key: ")
		bytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		token = strings.TrimSpace(string(bytes))
	}

	if token == "" {
		return fmt.Errorf("API key cannot be empty")
	}

	provider, err := providers.WithToken(token, env.Config, env.Log)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.ErrOrStderr(), "Validating API key...")
	regions, err := provider.ListRegions(cmdutil.Context(cmd, args))
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			return fmt.Errorf("API key rejected by Vultr: %w", err)
		}
		return fmt.Errorf("could not validate API key: %w", err)
	}

	if err := env.Store.SetToken(auth.Account, token); err != nil {
		return fmt.Errorf("failed to store API key: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "API key saved (%d regions available).\n", len(regions))
	return nil
}
