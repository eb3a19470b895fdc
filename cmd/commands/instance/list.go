package instance

import (
	"fmt"

	"nathanbeddoewebdev/vultrcli/cmd/commands/cmdutil"

	"github.com/spf13/cobra"
)

func ListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all instances",
		Long: `List all instances with their status and pending charges.

Examples:
  vultrcli instance list
  vultrcli instance list -o json`,
		Args:         cobra.NoArgs,
		RunE:         runList,
		SilenceUsage: true,
	}
	cmdutil.AddOutputFlag(cmd)
	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	output, err := cmdutil.OutputFormat(cmd)
	if err != nil {
		return err
	}

	s, err := openSession(cmd, args)
	if err != nil {
		return err
	}
	defer s.close()

	instances, err := s.mgr.List(s.ctx)
	if err != nil {
		return fmt.Errorf("failed to list instances: %w", err)
	}

	if output == "json" {
		return cmdutil.PrintJSON(cmd, instances)
	}
	if len(instances) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No instances found.")
		return nil
	}
	printInstances(cmd, instances)
	return nil
}
