package auth

import (
	"errors"
	"fmt"

	"nathanbeddoewebdev/vultrcli/cmd/commands/cmdutil"
	"nathanbeddoewebdev/vultrcli/internal/services/auth"

	"github.com/spf13/cobra"
)

func StatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether an API key is stored",
		Long: `Show whether a Vultr API key is stored and, with --verify, whether
Vultr still accepts it.

Example:
  vultrcli auth status
  vultrcli auth status --verify`,
		Args:         cobra.NoArgs,
		RunE:         runStatus,
		SilenceUsage: true,
	}

	cmd.Flags().Bool("verify", false, "Check the stored key against the API")

	return cmd
}

func runStatus(cmd *cobra.Command, args []string) error {
	env, err := cmdutil.Load(cmd)
	if err != nil {
		return err
	}

	token, err := env.Store.GetToken(auth.Account)
	switch {
	case errors.Is(err, auth.ErrTokenNotFound):
		fmt.Fprintln(cmd.OutOrStdout(), "vultr: not logged in")
		return nil
	case err != nil:
		return fmt.Errorf("failed to read API key: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "vultr: logged in (key %s, %s store)\n", maskToken(token), env.Config.CredentialStore)

	if verify, _ := cmd.Flags().GetBool("verify"); !verify {
		return nil
	}

	provider, err := env.Provider()
	if err != nil {
		return err
	}
	if _, err := provider.ListRegions(cmdutil.Context(cmd, args)); err != nil {
		return fmt.Errorf("stored API key failed verification: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "vultr: key verified")
	return nil
}

// maskToken keeps only the last four characters visible.
func maskToken(token string) string {
	if len(token) <= 4 {
		return "****"
	}
	return "****" + token[len(token)-4:]
}
