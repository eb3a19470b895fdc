// Package catalog implements the read-only "catalog" commands.
package catalog

import (
	"github.com/spf13/cobra"
)

// NewCommand returns the "catalog" parent command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Browse regions, plans and images",
		Long: `Browse what can be deployed: regions, plans, per-region plan
availability, stock OS images and your snapshots.`,
	}

	cmd.AddCommand(RegionsCommand())
	cmd.AddCommand(PlansCommand())
	cmd.AddCommand(AvailabilityCommand())
	cmd.AddCommand(OSCommand())
	cmd.AddCommand(SnapshotsCommand())

	return cmd
}
