package catalog

import (
	"fmt"
	"strings"

	"nathanbeddoewebdev/vultrcli/cmd/commands/cmdutil"
	"nathanbeddoewebdev/vultrcli/internal/domain"

	"github.com/spf13/cobra"
)

func PlansCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plans",
		Short: "List compute plans",
		Long: `List compute plans of one family. The family defaults to the plan-type
setting.

Examples:
  vultrcli catalog plans
  vultrcli catalog plans --type vhf -o json`,
		Args:         cobra.NoArgs,
		RunE:         runPlans,
		SilenceUsage: true,
	}
	cmd.Flags().String("type", "", "Plan family (e.g. vc2, vhf, all)")
	cmdutil.AddOutputFlag(cmd)
	return cmd
}

func runPlans(cmd *cobra.Command, args []string) error {
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

	planType := planTypeFlag(cmd, env.Config.PlanType)
	plans, err := provider.ListPlans(cmdutil.Context(cmd, args), planType)
	if err != nil {
		return fmt.Errorf("failed to list plans: %w", err)
	}

	if output == "json" {
		return cmdutil.PrintJSON(cmd, plans)
	}
	if len(plans) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No %s plans found.\n", planType)
		return nil
	}
	return printPlans(cmd, plans)
}

func planTypeFlag(cmd *cobra.Command, fallback string) string {
	planType, _ := cmd.Flags().GetString("type")
	planType = strings.ToLower(strings.TrimSpace(planType))
	if planType == "" {
		return fallback
	}
	return planType
}

func AvailabilityCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "availability",
		Short: "List the plans deployable in a region",
		Long: `List the plans of one family that a region can currently deploy.

Examples:
  vultrcli catalog availability --region itm
  vultrcli catalog availability --region ewr --type vhf`,
		Args:         cobra.NoArgs,
		RunE:         runAvailability,
		SilenceUsage: true,
	}
	cmd.Flags().String("region", "", "Region id (required)")
	cmd.Flags().String("type", "", "Plan family (e.g. vc2, vhf, all)")
	cmdutil.AddOutputFlag(cmd)
	cmd.MarkFlagRequired("region")
	return cmd
}

func runAvailability(cmd *cobra.Command, args []string) error {
	output, err := cmdutil.OutputFormat(cmd)
	if err != nil {
		return err
	}
	region, _ := cmd.Flags().GetString("region")
	region = strings.TrimSpace(region)
	if region == "" {
		return fmt.Errorf("--region is required")
	}

	env, err := cmdutil.Load(cmd)
	if err != nil {
		return err
	}
	provider, err := env.Provider()
	if err != nil {
		return err
	}

	ctx := cmdutil.Context(cmd, args)
	planType := planTypeFlag(cmd, env.Config.PlanType)
	plans, err := provider.ListPlans(ctx, planType)
	if err != nil {
		return fmt.Errorf("failed to list plans: %w", err)
	}
	available, err := provider.ListAvailablePlanIDs(ctx, region)
	if err != nil {
		return fmt.Errorf("failed to check availability in %s: %w", region, err)
	}

	filtered := make([]domain.Plan, 0, len(plans))
	for _, p := range plans {
		if available.Has(p.ID) {
			filtered = append(filtered, p)
		}
	}

	if output == "json" {
		return cmdutil.PrintJSON(cmd, filtered)
	}
	if len(filtered) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No %s plans available in %s.\n", planType, region)
		return nil
	}
	return printPlans(cmd, filtered)
}
