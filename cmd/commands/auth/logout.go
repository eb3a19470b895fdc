package auth

import (
	"errors"
	"fmt"

	"nathanbeddoewebdev/vultrcli/cmd/commands/cmdutil"
	"nathanbeddoewebdev/vultrcli/internal/services/auth"

	"github.com/spf13/cobra"
)

func LogoutCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "logout",
		Short:        "Remove the stored API key",
		Args:         cobra.NoArgs,
		RunE:         runLogout,
		SilenceUsage: true,
	}
	return cmd
}

func runLogout(cmd *cobra.Command, args []string) error {
	env, err := cmdutil.Load(cmd)
	if err != nil {
		return err
	}

	err = env.Store.DeleteToken(auth.Account)
	switch {
	case errors.Is(err, auth.ErrTokenNotFound):
		fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
		return nil
	case err != nil:
		return fmt.Errorf("failed to remove API key: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "API key removed.")
	return nil
}
