package catalog

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"nathanbeddoewebdev/vultrcli/cmd/commands/cmdutil"
	"nathanbeddoewebdev/vultrcli/internal/domain"

	"github.com/spf13/cobra"
)

func RegionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "regions",
		Short:        "List deployment regions",
		Args:         cobra.NoArgs,
		RunE:         runRegions,
		SilenceUsage: true,
	}
	cmdutil.AddOutputFlag(cmd)
	return cmd
}

func runRegions(cmd *cobra.Command, args []string) error {
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

	regions, err := provider.ListRegions(cmdutil.Context(cmd, args))
	if err != nil {
		return fmt.Errorf("failed to list regions: %w", err)
	}

	sort.SliceStable(regions, func(i, j int) bool {
		return strings.ToLower(regions[i].City) < strings.ToLower(regions[j].City)
	})

	if output == "json" {
		return cmdutil.PrintJSON(cmd, regions)
	}
	if len(regions) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No regions found.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tCITY\tCOUNTRY\tCONTINENT")
	fmt.Fprintln(w, "--\t----\t-------\t---------")
	for _, r := range regions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.ID, r.City, r.Country, r.Continent)
	}
	return w.Flush()
}

// printPlans writes the plan table shared by "plans" and "availability".
func printPlans(cmd *cobra.Command, plans []domain.Plan) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tVCPU\tRAM\tDISK\tBANDWIDTH\tMONTHLY")
	fmt.Fprintln(w, "--\t----\t---\t----\t---------\t-------")
	for _, p := range plans {
		fmt.Fprintf(w, "%s\t%d\t%d MB\t%d GB\t%d GB\t%s\n",
			p.ID, p.VCPUCount, p.RAM, p.Disk, p.Bandwidth, formatCost(p.MonthlyCost))
	}
	return w.Flush()
}

func formatCost(c *float64) string {
	if c == nil {
		return "-"
	}
	return fmt.Sprintf("$%.2f", *c)
}
