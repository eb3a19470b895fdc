package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"nathanbeddoewebdev/vultrcli/internal/domain"
	"nathanbeddoewebdev/vultrcli/internal/util"
	"nathanbeddoewebdev/vultrcli/internal/workflow"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
)

// ErrAborted is returned when a user cancels the interactive flow.
var ErrAborted = errors.New("instance creation aborted by user")

// CreatePrefill seeds the wizard's choices from command-line flags.
type CreatePrefill struct {
	Region string
	Plan   string
	Image  domain.ImageSource
	Label  string
}

// RunCreateWizard drives wf from catalog load through creation. Region is
// chosen first; plans are then limited to what that region offers. Choosing
// a region with nothing available loops back to the region prompt.
func RunCreateWizard(ctx context.Context, wf *workflow.Workflow, prefill CreatePrefill) (*domain.Instance, error) {
	accessible := os.Getenv("ACCESSIBLE") != ""

	if err := runSpinner(ctx, accessible, "Fetching regions, plans and images...", wf.Load); err != nil {
		return nil, err
	}

	if err := chooseRegionAndPlan(ctx, wf, accessible, prefill); err != nil {
		return nil, err
	}

	for {
		req, err := wf.Confirm()
		if err != nil {
			return nil, err
		}

		confirm := false
		if err := runForm(accessible, huh.NewGroup(
			huh.NewNote().Title("Summary").Description(buildSummary(req, wf.View())),
			huh.NewConfirm().Title("Create this instance?").Value(&confirm),
		)); err != nil {
			wf.Cancel()
			return nil, err
		}
		if !confirm {
			wf.Cancel()
			return nil, ErrAborted
		}

		var inst *domain.Instance
		err = runSpinner(ctx, accessible, "Creating instance...", func(ctx context.Context) error {
			var cerr error
			inst, cerr = wf.Create(ctx)
			return cerr
		})
		if err == nil {
			return inst, nil
		}
		if errors.Is(err, ErrAborted) || domain.IsValidation(err) {
			return nil, err
		}

		retry := false
		if ferr := runForm(accessible, huh.NewGroup(
			huh.NewNote().Title("Creation failed").Description(err.Error()),
			huh.NewConfirm().Title("Try again?").Value(&retry),
		)); ferr != nil || !retry {
			return nil, err
		}
	}
}

func chooseRegionAndPlan(ctx context.Context, wf *workflow.Workflow, accessible bool, prefill CreatePrefill) error {
	v := wf.View()

	regionID := prefill.Region
	if regionID == "" && v.Region != nil {
		regionID = v.Region.ID
	}
	label := prefill.Label

	for {
		regionOpts := buildRegionOptions(v.Regions)
		if err := runForm(accessible, huh.NewGroup(
			huh.NewSelect[string]().
				Title("Region").
				Options(regionOpts...).
				Value(&regionID).
				Height(selectHeight(len(regionOpts), 12)),
		)); err != nil {
			return err
		}

		err := runSpinner(ctx, accessible, "Checking plan availability...", func(ctx context.Context) error {
			return wf.SelectRegion(ctx, regionID)
		})
		if errors.Is(err, ErrAborted) {
			return err
		}

		v = wf.View()
		if v.Availability != workflow.AvailabilityLoaded {
			msg := v.Availability.String()
			if err != nil {
				msg += ": " + err.Error()
			}
			again := true
			if ferr := runForm(accessible, huh.NewGroup(
				huh.NewNote().Title(regionLabelFor(v.Regions, regionID)).Description(msg),
				huh.NewConfirm().Title("Choose another region?").Value(&again),
			)); ferr != nil {
				return ferr
			}
			if !again {
				if err != nil {
					return err
				}
				return ErrAborted
			}
			continue
		}

		planID := prefill.Plan
		if !hasPlan(v.FilteredPlans, planID) {
			planID = ""
		}
		imageValue := imageValueFor(v.Image)
		if !prefill.Image.IsZero() {
			imageValue = imageValueFor(prefill.Image)
		}
		planOpts := buildPlanOptions(v.FilteredPlans)
		imageOpts := buildImageOptions(v.Snapshots, v.Images)

		if err := runForm(accessible,
			huh.NewGroup(
				huh.NewSelect[string]().
					Title("Plan").
					Options(planOpts...).
					Value(&planID).
					Height(selectHeight(len(planOpts), 12)).
					Validate(huh.ValidateNotEmpty()),
			),
			huh.NewGroup(
				huh.NewSelect[string]().
					Title("Image").
					Options(imageOpts...).
					Value(&imageValue).
					Height(selectHeight(len(imageOpts), 12)).
					Validate(huh.ValidateNotEmpty()),
			),
			huh.NewGroup(
				huh.NewInput().
					Title("Label").
					Description("Leave empty to generate one").
					Value(&label).
					Validate(func(s string) error {
						s = strings.TrimSpace(s)
						if s == "" {
							return nil
						}
						return util.ValidateLabel(s)
					}),
			),
		); err != nil {
			return err
		}

		if err := wf.SelectPlan(planID); err != nil {
			return err
		}
		img, err := parseImageValue(imageValue)
		if err != nil {
			return err
		}
		if img.SnapshotID != "" {
			err = wf.SelectSnapshot(img.SnapshotID)
		} else {
			err = wf.SelectOS(img.OSID)
		}
		if err != nil {
			return err
		}
		return wf.SetLabel(label)
	}
}

// runSpinner runs action under a spinner, translating user aborts.
func runSpinner(ctx context.Context, accessible bool, title string, action func(context.Context) error) error {
	err := spinner.New().
		Title(title).
		Accessible(accessible).
		Output(os.Stderr).
		Context(ctx).
		ActionWithErr(action).
		Run()
	if errors.Is(err, huh.ErrUserAborted) || errors.Is(err, context.Canceled) {
		return ErrAborted
	}
	return err
}

// runForm creates and runs a huh.Form, translating ErrUserAborted to ErrAborted.
func runForm(accessible bool, groups ...*huh.Group) error {
	err := huh.NewForm(groups...).WithAccessible(accessible).Run()
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return ErrAborted
		}
		return err
	}
	return nil
}

// --- Option builders ---

// buildRegionOptions sorts regions by display label. Cities shared by
// several regions carry the region id.
func buildRegionOptions(regions []domain.Region) []huh.Option[string] {
	labels := workflow.RegionLabels(regions)
	sorted := append([]domain.Region(nil), regions...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return strings.ToLower(labels[sorted[i].ID]) < strings.ToLower(labels[sorted[j].ID])
	})

	options := make([]huh.Option[string], 0, len(sorted))
	for _, r := range sorted {
		label := labels[r.ID]
		if r.Country != "" {
			label += ", " + r.Country
		}
		options = append(options, huh.NewOption(label, r.ID))
	}
	return options
}

func buildPlanOptions(plans []domain.Plan) []huh.Option[string] {
	options := make([]huh.Option[string], 0, len(plans))
	for _, p := range plans {
		options = append(options, huh.NewOption(PlanLabel(p), p.ID))
	}
	return options
}

// buildImageOptions lists snapshots first, then stock OS images.
func buildImageOptions(snapshots []domain.Snapshot, images []domain.OSImage) []huh.Option[string] {
	options := make([]huh.Option[string], 0, len(snapshots)+len(images))
	for _, s := range snapshots {
		options = append(options, huh.NewOption("Snapshot: "+s.DisplayName(), imageValueFor(domain.ImageSource{SnapshotID: s.ID})))
	}
	for _, o := range images {
		options = append(options, huh.NewOption(osLabel(o), imageValueFor(domain.ImageSource{OSID: o.ID})))
	}
	return options
}

// imageValueFor encodes an image source as a select value.
func imageValueFor(img domain.ImageSource) string {
	switch {
	case img.SnapshotID != "":
		return "snapshot:" + img.SnapshotID
	case img.OSID != 0:
		return "os:" + strconv.Itoa(img.OSID)
	default:
		return ""
	}
}

func parseImageValue(v string) (domain.ImageSource, error) {
	kind, id, ok := strings.Cut(v, ":")
	if ok && id != "" {
		switch kind {
		case "snapshot":
			return domain.ImageSource{SnapshotID: id}, nil
		case "os":
			if n, err := strconv.Atoi(id); err == nil && n > 0 {
				return domain.ImageSource{OSID: n}, nil
			}
		}
	}
	return domain.ImageSource{}, fmt.Errorf("invalid image selection %q", v)
}

// --- Labels ---

// PlanLabel describes a plan on one line, e.g.
// "vc2-1c-1gb - 1 vCPU / 1024 MB / 25 GB - $5.00/mo".
func PlanLabel(p domain.Plan) string {
	label := fmt.Sprintf("%s - %d vCPU / %d MB / %d GB", p.ID, p.VCPUCount, p.RAM, p.Disk)
	if p.MonthlyCost != nil {
		label += fmt.Sprintf(" - $%.2f/mo", *p.MonthlyCost)
	}
	return label
}

func osLabel(o domain.OSImage) string {
	if o.Arch == "" {
		return o.Name
	}
	return o.Name + " (" + o.Arch + ")"
}

func regionLabelFor(regions []domain.Region, id string) string {
	if l, ok := workflow.RegionLabels(regions)[id]; ok {
		return l
	}
	return id
}

func hasPlan(plans []domain.Plan, id string) bool {
	for _, p := range plans {
		if p.ID == id {
			return true
		}
	}
	return false
}

func buildSummary(req domain.CreateInstanceRequest, v workflow.View) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Label: %s\n", req.Label)
	fmt.Fprintf(&b, "Region: %s\n", regionLabelFor(v.Regions, req.Region))
	plan := req.Plan
	if v.Plan != nil && v.Plan.ID == req.Plan {
		plan = PlanLabel(*v.Plan)
	}
	fmt.Fprintf(&b, "Plan: %s\n", plan)
	fmt.Fprintf(&b, "Image: %s\n", imageSummary(req.Image, v))

	return strings.TrimSpace(b.String())
}

func imageSummary(img domain.ImageSource, v workflow.View) string {
	if img.SnapshotID != "" {
		for _, s := range v.Snapshots {
			if s.ID == img.SnapshotID {
				return "Snapshot: " + s.DisplayName()
			}
		}
		return "Snapshot: " + img.SnapshotID
	}
	for _, o := range v.Images {
		if o.ID == img.OSID {
			return osLabel(o)
		}
	}
	return img.String()
}

func selectHeight(optionCount, max int) int {
	if optionCount < max {
		return optionCount
	}
	return max
}
