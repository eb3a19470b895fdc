package instance

import (
	"fmt"
	"text/tabwriter"

	"nathanbeddoewebdev/vultrcli/internal/domain"

	"github.com/spf13/cobra"
)

// printInstances prints the instance table, pending charges included.
func printInstances(cmd *cobra.Command, instances []domain.Instance) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tLABEL\tSTATUS\tPLAN\tREGION\tMAIN IP\tPENDING CHARGES")
	fmt.Fprintln(w, "--\t-----\t------\t----\t------\t-------\t---------------")

	for _, inst := range instances {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			inst.ID,
			orDash(inst.Label),
			inst.Status,
			inst.Plan,
			inst.Region,
			orDash(inst.MainIP),
			formatCharges(inst.PendingCharges),
		)
	}

	w.Flush()
}

// printInstanceDetail prints a vertical key-value table of an instance.
func printInstanceDetail(cmd *cobra.Command, inst *domain.Instance) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "  ID:\t%s\n", inst.ID)
	fmt.Fprintf(w, "  Label:\t%s\n", orDash(inst.Label))
	fmt.Fprintf(w, "  Status:\t%s\n", inst.Status)
	if inst.PowerStatus != "" || inst.ServerStatus != "" {
		fmt.Fprintf(w, "  Power:\t%s / %s\n", orDash(inst.PowerStatus), orDash(inst.ServerStatus))
	}
	fmt.Fprintf(w, "  Plan:\t%s\n", inst.Plan)
	if inst.VCPUCount > 0 {
		fmt.Fprintf(w, "  Size:\t%d vCPU / %d MB / %d GB\n", inst.VCPUCount, inst.RAM, inst.Disk)
	}
	fmt.Fprintf(w, "  Region:\t%s\n", inst.Region)
	if inst.OS != "" {
		fmt.Fprintf(w, "  OS:\t%s\n", inst.OS)
	}
	if inst.MainIP != "" {
		fmt.Fprintf(w, "  Main IP:\t%s\n", inst.MainIP)
	}
	fmt.Fprintf(w, "  Pending charges:\t%s\n", formatCharges(inst.PendingCharges))
	if !inst.DateCreated.IsZero() {
		fmt.Fprintf(w, "  Created:\t%s\n", inst.DateCreated.UTC().Format("2006-01-02 15:04:05 UTC"))
	}

	w.Flush()
}

func formatCharges(c *float64) string {
	if c == nil {
		return "-"
	}
	return fmt.Sprintf("$%.2f", *c)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
