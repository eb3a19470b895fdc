package audit

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"nathanbeddoewebdev/vultrcli/cmd/commands/cmdutil"
	"nathanbeddoewebdev/vultrcli/internal/auditlog"

	"github.com/spf13/cobra"
)

func ListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent instance operations",
		Long: `List recent instance operations recorded locally, newest first.

Examples:
  vultrcli audit list
  vultrcli audit list --limit 50
  vultrcli audit list --command "vultrcli instance delete"
  vultrcli audit list --id <instance-id> --outcome error
  vultrcli audit list -o json`,
		RunE:         runList,
		SilenceUsage: true,
	}

	cmd.Flags().Int("limit", auditlog.DefaultLimit, "Number of entries to display")
	cmd.Flags().String("command", "", "Filter by exact command path")
	cmd.Flags().String("id", "", "Filter by instance ID")
	cmd.Flags().String("outcome", "", "Filter by outcome: success or error")
	cmdutil.AddOutputFlag(cmd)

	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	if limit <= 0 {
		return fmt.Errorf("limit must be greater than 0")
	}

	output, err := cmdutil.OutputFormat(cmd)
	if err != nil {
		return err
	}

	filter := auditlog.Filter{Limit: limit}
	filter.Command, _ = cmd.Flags().GetString("command")
	filter.ResourceID, _ = cmd.Flags().GetString("id")
	filter.Outcome, _ = cmd.Flags().GetString("outcome")
	filter.Command = strings.TrimSpace(filter.Command)
	filter.ResourceID = strings.TrimSpace(filter.ResourceID)
	filter.Outcome = strings.ToLower(strings.TrimSpace(filter.Outcome))
	if filter.Outcome != "" && filter.Outcome != auditlog.OutcomeSuccess && filter.Outcome != auditlog.OutcomeError {
		return fmt.Errorf("--outcome must be %q or %q", auditlog.OutcomeSuccess, auditlog.OutcomeError)
	}

	repo, err := auditlog.Open()
	if err != nil {
		return err
	}
	defer repo.Close()

	entries, err := repo.List(cmd.Context(), filter)
	if err != nil {
		return err
	}

	if output == "json" {
		return cmdutil.PrintJSON(cmd, entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No audit entries found.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tOPERATION\tOUTCOME\tDURATION\tRESOURCE\tDETAIL")
	fmt.Fprintln(w, "----\t---------\t-------\t--------\t--------\t------")
	for _, entry := range entries {
		timeStr := entry.Timestamp.Local().Format("2006-01-02 15:04:05")
		resource := formatResource(entry)
		detail := entry.Detail
		if entry.ErrorKind != "" {
			detail = entry.ErrorKind + ": " + detail
		}
		if detail == "" {
			detail = "-"
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			timeStr,
			entry.Operation,
			entry.Outcome,
			formatDuration(entry.DurationMs),
			resource,
			detail,
		)
	}
	w.Flush()
	return nil
}

func formatDuration(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	d := time.Duration(ms) * time.Millisecond
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	return fmt.Sprintf("%dh", int(d.Hours()))
}

func formatResource(entry auditlog.AuditEntry) string {
	if entry.ResourceType == "" && entry.ResourceID == "" && entry.ResourceName == "" {
		return "-"
	}

	resource := entry.ResourceType
	if entry.ResourceID != "" {
		if resource != "" {
			resource += ":" + entry.ResourceID
		} else {
			resource = entry.ResourceID
		}
	}
	if entry.ResourceName != "" {
		if resource != "" {
			resource += " (" + entry.ResourceName + ")"
		} else {
			resource = entry.ResourceName
		}
	}
	return resource
}
