package cmdutil

import (
	"fmt"

	"nathanbeddoewebdev/vultrcli/internal/tui"

	"github.com/spf13/cobra"
)

// AddYesFlag registers -y/--yes for commands that ask before acting.
func AddYesFlag(cmd *cobra.Command) {
	cmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
}

// Confirm asks before a consequential action. --yes answers for the user;
// without it a non-interactive session is refused rather than assumed.
func Confirm(cmd *cobra.Command, title, description string) (bool, error) {
	if yes, _ := cmd.Flags().GetBool("yes"); yes {
		return true, nil
	}
	if !IsInteractive() {
		return false, fmt.Errorf("confirmation required: re-run with --yes")
	}
	ok, err := tui.Confirm(title, description)
	if err != nil {
		return false, err
	}
	return ok, nil
}
