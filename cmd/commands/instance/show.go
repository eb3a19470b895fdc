package instance

import (
	"errors"
	"fmt"
	"strings"

	"nathanbeddoewebdev/vultrcli/cmd/commands/cmdutil"
	"nathanbeddoewebdev/vultrcli/internal/domain"

	"github.com/spf13/cobra"
)

func ShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show details of one instance",
		Long: `Fetch a single instance by id and print its details.

Examples:
  vultrcli instance show --id 3b8c...
  vultrcli instance show --id 3b8c... -o json`,
		Args:         cobra.NoArgs,
		RunE:         runShow,
		SilenceUsage: true,
	}
	cmd.Flags().String("id", "", "Instance ID (required)")
	cmd.MarkFlagRequired("id")
	cmdutil.AddOutputFlag(cmd)
	return cmd
}

func runShow(cmd *cobra.Command, args []string) error {
	output, err := cmdutil.OutputFormat(cmd)
	if err != nil {
		return err
	}
	id, _ := cmd.Flags().GetString("id")
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("--id is required")
	}

	s, err := openSession(cmd, args)
	if err != nil {
		return err
	}
	defer s.close()

	inst, err := s.mgr.Get(s.ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("instance %s not found: %w", id, err)
		}
		return fmt.Errorf("failed to fetch instance: %w", err)
	}

	if output == "json" {
		return cmdutil.PrintJSON(cmd, inst)
	}
	printInstanceDetail(cmd, inst)
	return nil
}
