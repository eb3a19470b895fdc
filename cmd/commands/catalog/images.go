package catalog

import (
	"fmt"
	"text/tabwriter"

	"nathanbeddoewebdev/vultrcli/cmd/commands/cmdutil"

	"github.com/spf13/cobra"
)

func OSCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "os",
		Short:        "List stock operating system images",
		Args:         cobra.NoArgs,
		RunE:         runOS,
		SilenceUsage: true,
	}
	cmdutil.AddOutputFlag(cmd)
	return cmd
}

func runOS(cmd *cobra.Command, args []string) error {
	output, err := cmdutil.OutputFormat(cmd)
	if err != nil {
		return err
	}

	env, err := cmdutil.Load(cmd)
	if err != nil {
		return err
	}
	provider, err := env.Provider()
	if err != nil {
		return err
	}

	images, err := provider.ListOSImages(cmdutil.Context(cmd, args))
	if err != nil {
		return fmt.Errorf("failed to list OS images: %w", err)
	}

	if output == "json" {
		return cmdutil.PrintJSON(cmd, images)
	}
	if len(images) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No OS images found.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tARCH\tFAMILY")
	fmt.Fprintln(w, "--\t----\t----\t------")
	for _, o := range images {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", o.ID, o.Name, o.Arch, o.Family)
	}
	return w.Flush()
}

func SnapshotsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "snapshots",
		Short:        "List your snapshots",
		Args:         cobra.NoArgs,
		RunE:         runSnapshots,
		SilenceUsage: true,
	}
	cmdutil.AddOutputFlag(cmd)
	return cmd
}

func runSnapshots(cmd *cobra.Command, args []string) error {
	output, err := cmdutil.OutputFormat(cmd)
	if err != nil {
		return err
	}

	env, err := cmdutil.Load(cmd)
	if err != nil {
		return err
	}
	provider, err := env.Provider()
	if err != nil {
		return err
	}

	snapshots, err := provider.ListSnapshots(cmdutil.Context(cmd, args))
	if err != nil {
		return fmt.Errorf("failed to list snapshots: %w", err)
	}

	if output == "json" {
		return cmdutil.PrintJSON(cmd, snapshots)
	}
	if len(snapshots) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No snapshots found.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tDESCRIPTION\tSTATUS\tSIZE")
	fmt.Fprintln(w, "--\t-----------\t------\t----")
	for _, s := range snapshots {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.ID, s.DisplayName(), s.Status, formatBytes(s.Size))
	}
	return w.Flush()
}

func formatBytes(n int64) string {
	const gb = 1 << 30
	if n <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f GB", float64(n)/gb)
}
