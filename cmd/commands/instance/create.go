package instance

import (
	"errors"
	"fmt"
	"strings"

	"nathanbeddoewebdev/vultrcli/cmd/commands/cmdutil"
	"nathanbeddoewebdev/vultrcli/internal/domain"
	"nathanbeddoewebdev/vultrcli/internal/tui"
	"nathanbeddoewebdev/vultrcli/internal/workflow"

	"github.com/spf13/cobra"
)

func CreateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new instance",
		Long: `Create a new instance.

The region is chosen first; only plans that region can deploy are offered.
If --plan or the region is missing and a terminal is attached, an
interactive wizard guides you through the choices. Otherwise all choices
come from flags and the configured defaults (preferred-city, plan-type).

Without --os or --snapshot your first snapshot is used. Without --label a
label is generated.

Examples:
  # Interactive wizard
  vultrcli instance create

  # Non-interactive
  vultrcli instance create --city Osaka --plan vc2-1c-1gb --os 2284 --label web --yes`,
		Args:         cobra.NoArgs,
		RunE:         runCreate,
		SilenceUsage: true,
	}

	cmd.Flags().String("region", "", "Region ID (e.g. itm)")
	cmd.Flags().String("city", "", "Region city (e.g. Osaka); ignored when --region is set")
	cmd.Flags().String("plan", "", "Plan ID (e.g. vc2-1c-1gb)")
	cmd.Flags().String("type", "", "Plan family to offer (defaults to the plan-type setting)")
	cmd.Flags().Int("os", 0, "OS image ID")
	cmd.Flags().String("snapshot", "", "Snapshot ID to deploy from")
	cmd.Flags().String("label", "", "Instance label (generated when empty)")
	cmd.Flags().Bool("wait", false, "Wait until the instance is active")
	cmdutil.AddYesFlag(cmd)
	cmdutil.AddOutputFlag(cmd)

	return cmd
}

type createFlags struct {
	region   string
	city     string
	plan     string
	planType string
	osID     int
	snapshot string
	label    string
}

func readCreateFlags(cmd *cobra.Command) (createFlags, error) {
	var f createFlags
	f.region, _ = cmd.Flags().GetString("region")
	f.city, _ = cmd.Flags().GetString("city")
	f.plan, _ = cmd.Flags().GetString("plan")
	f.planType, _ = cmd.Flags().GetString("type")
	f.osID, _ = cmd.Flags().GetInt("os")
	f.snapshot, _ = cmd.Flags().GetString("snapshot")
	f.label, _ = cmd.Flags().GetString("label")

	f.region = strings.TrimSpace(f.region)
	f.city = strings.TrimSpace(f.city)
	f.plan = strings.TrimSpace(f.plan)
	f.planType = strings.ToLower(strings.TrimSpace(f.planType))
	f.snapshot = strings.TrimSpace(f.snapshot)
	f.label = strings.TrimSpace(f.label)

	if f.osID < 0 {
		return f, fmt.Errorf("--os must be a positive image ID")
	}
	if f.osID != 0 && f.snapshot != "" {
		return f, fmt.Errorf("--os and --snapshot are mutually exclusive")
	}
	return f, nil
}

func (f createFlags) image() domain.ImageSource {
	return domain.ImageSource{OSID: f.osID, SnapshotID: f.snapshot}
}

func runCreate(cmd *cobra.Command, args []string) error {
	output, err := cmdutil.OutputFormat(cmd)
	if err != nil {
		return err
	}
	flags, err := readCreateFlags(cmd)
	if err != nil {
		return err
	}

	s, err := openSession(cmd, args)
	if err != nil {
		return err
	}
	defer s.close()

	planType := flags.planType
	if planType == "" {
		planType = s.env.Config.PlanType
	}
	wf := workflow.New(s.provider, s.mgr, workflow.Options{
		PreferredCity: s.env.Config.PreferredCity,
		PlanType:      planType,
		Logger:        s.env.Log,
	})

	var inst *domain.Instance
	useWizard := (flags.plan == "" || (flags.region == "" && flags.city == "")) && cmdutil.IsInteractive()
	if useWizard {
		inst, err = tui.RunCreateWizard(s.ctx, wf, tui.CreatePrefill{
			Region: flags.region,
			Plan:   flags.plan,
			Image:  flags.image(),
			Label:  flags.label,
		})
		if errors.Is(err, tui.ErrAborted) {
			fmt.Fprintln(cmd.ErrOrStderr(), "Instance creation cancelled.")
			return nil
		}
	} else {
		inst, err = createFromFlags(cmd, s, wf, flags)
	}
	if err != nil {
		return err
	}
	if inst == nil {
		return nil
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Instance %s created.\n", displayName(*inst))

	if wait, _ := cmd.Flags().GetBool("wait"); wait {
		if err := s.mgr.WaitForStatus(s.ctx, inst.ID, domain.StatusActive, cmd.ErrOrStderr()); err != nil {
			return fmt.Errorf("failed waiting for instance to become active: %w", err)
		}
	}

	if output == "json" {
		return cmdutil.PrintJSON(cmd, inst)
	}

	// Show the refreshed listing so the new instance appears in context.
	instances, err := s.mgr.List(s.ctx)
	if err != nil {
		s.env.Log.WithError(err).Warn("could not refresh instance list")
		instances = s.mgr.Instances()
	}
	printInstances(cmd, instances)
	return nil
}

// createFromFlags drives the workflow without prompts. It returns a nil
// instance when the user declines the confirmation.
func createFromFlags(cmd *cobra.Command, s *session, wf *workflow.Workflow, f createFlags) (*domain.Instance, error) {
	if f.plan == "" {
		return nil, fmt.Errorf("--plan is required in a non-interactive session")
	}

	fmt.Fprintln(cmd.ErrOrStderr(), "Fetching regions, plans and images...")
	if err := wf.Load(s.ctx); err != nil {
		// The default region's availability may fail while the catalog
		// itself loaded; an explicit region gets its own query below.
		if len(wf.View().Regions) == 0 || (f.region == "" && f.city == "") {
			return nil, err
		}
	}

	var err error
	switch {
	case f.region != "":
		err = wf.SelectRegion(s.ctx, f.region)
	case f.city != "":
		err = wf.SelectRegionByCity(s.ctx, f.city)
	}
	if err != nil {
		if domain.IsValidation(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to check plan availability: %w", err)
	}

	v := wf.View()
	if v.Availability == workflow.AvailabilityEmpty {
		return nil, fmt.Errorf("no plans are available in region %s", v.Region.ID)
	}
	if err := wf.SelectPlan(f.plan); err != nil {
		return nil, err
	}

	switch {
	case f.snapshot != "":
		err = wf.SelectSnapshot(f.snapshot)
	case f.osID != 0:
		err = wf.SelectOS(f.osID)
	}
	if err != nil {
		return nil, err
	}
	if err := wf.SetLabel(f.label); err != nil {
		return nil, err
	}

	req, err := wf.Confirm()
	if err != nil {
		return nil, err
	}

	summary := fmt.Sprintf("Label: %s, region: %s, plan: %s, image: %s", req.Label, req.Region, req.Plan, req.Image)
	fmt.Fprintln(cmd.ErrOrStderr(), summary)
	ok, err := cmdutil.Confirm(cmd, "Create this instance?", summary)
	if err != nil {
		wf.Cancel()
		return nil, err
	}
	if !ok {
		wf.Cancel()
		fmt.Fprintln(cmd.ErrOrStderr(), "Instance creation cancelled.")
		return nil, nil
	}

	fmt.Fprintln(cmd.ErrOrStderr(), "Creating instance...")
	inst, err := wf.Create(s.ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create instance: %w", err)
	}
	return inst, nil
}
