package instance

import (
	"fmt"

	"nathanbeddoewebdev/vultrcli/cmd/commands/cmdutil"
	"nathanbeddoewebdev/vultrcli/internal/tui"

	"github.com/spf13/cobra"
)

func BrowseCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse and control instances interactively",
		Long: `Open a full-screen instance browser.

Keys: j/k to move, r to refresh, s start, x stop, b reboot, d delete,
q to quit. Every operation asks for confirmation and the list refreshes
when it completes.`,
		Args:         cobra.NoArgs,
		RunE:         runBrowse,
		SilenceUsage: true,
	}
	return cmd
}

func runBrowse(cmd *cobra.Command, args []string) error {
	if !cmdutil.IsInteractive() {
		return fmt.Errorf("instance browse requires a terminal; use 'vultrcli instance list' instead")
	}

	s, err := openSession(cmd, args)
	if err != nil {
		return err
	}
	defer s.close()

	return tui.RunInstanceBrowser(s.ctx, s.mgr)
}
