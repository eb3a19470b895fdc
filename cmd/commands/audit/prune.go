package audit

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"nathanbeddoewebdev/vultrcli/internal/auditlog"

	"github.com/spf13/cobra"
)

func PruneCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete audit entries older than a duration",
		Long: `Delete audit entries older than a duration.

Durations accept Go units (72h, 90m) plus days (30d) and weeks (2w).
Failed provider calls are usually the entries worth keeping; pass
--keep-failures to remove only successful operations. --dry-run reports
what would be removed without touching the database.

Examples:
  vultrcli audit prune --older-than 30d
  vultrcli audit prune --older-than 2w --keep-failures
  vultrcli audit prune --older-than 72h --dry-run`,
		Args:         cobra.NoArgs,
		RunE:         runPrune,
		SilenceUsage: true,
	}

	cmd.Flags().String("older-than", "", "Remove entries older than this duration (e.g. 30d, 2w, 72h)")
	cmd.Flags().Bool("keep-failures", false, "Keep entries for operations that failed")
	cmd.Flags().Bool("dry-run", false, "Report how many entries would be removed")

	return cmd
}

func runPrune(cmd *cobra.Command, args []string) error {
	raw, _ := cmd.Flags().GetString("older-than")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("--older-than is required")
	}
	olderThan, err := parseDuration(raw)
	if err != nil {
		return err
	}

	opts := auditlog.PruneOptions{OlderThan: olderThan}
	opts.KeepFailures, _ = cmd.Flags().GetBool("keep-failures")
	opts.DryRun, _ = cmd.Flags().GetBool("dry-run")

	repo, err := auditlog.Open()
	if err != nil {
		return err
	}
	defer repo.Close()

	n, err := repo.Prune(cmd.Context(), opts)
	if err != nil {
		return err
	}

	verb := "Removed"
	if opts.DryRun {
		verb = "Would remove"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %d audit %s.\n", verb, n, pluralize(n, "entry", "entries"))
	return nil
}

// parseDuration extends time.ParseDuration with day (d) and week (w)
// suffixes. Zero is allowed and selects every entry.
func parseDuration(input string) (time.Duration, error) {
	unit := time.Duration(0)
	switch {
	case strings.HasSuffix(input, "d"):
		unit = 24 * time.Hour
	case strings.HasSuffix(input, "w"):
		unit = 7 * 24 * time.Hour
	}

	if unit != 0 {
		n, err := strconv.Atoi(input[:len(input)-1])
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", input)
		}
		if n < 0 {
			return 0, fmt.Errorf("duration must not be negative")
		}
		return time.Duration(n) * unit, nil
	}

	d, err := time.ParseDuration(input)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", input)
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must not be negative")
	}
	return d, nil
}

func pluralize(n int64, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
