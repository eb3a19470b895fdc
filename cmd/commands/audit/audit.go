package audit

import "github.com/spf13/cobra"

// NewCommand returns the "audit" parent command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "View and manage the operation history",
		Long: "View the local history of instance operations (create, start, stop,\n" +
			"reboot, delete) and prune old entries.\n\n" +
			"History is stored locally in ~/.config/vultrcli/vultrcli.db.",
		SilenceUsage: true,
	}

	cmd.AddCommand(ListCommand())
	cmd.AddCommand(PruneCommand())

	return cmd
}
