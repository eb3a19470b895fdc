// Package workflow implements the dependent-selection flow that turns
// catalog data into a validated instance create request:
//
//	region -> availability-filtered plans -> plan -> confirm -> create
//
// It owns no presentation. Callers invoke its operations and render View.
package workflow

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"nathanbeddoewebdev/vultrcli/internal/domain"
	"nathanbeddoewebdev/vultrcli/internal/util"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DefaultPreferredCity is the city selected after Load when no preference
// is configured.
const DefaultPreferredCity = "Osaka"

// State is a step of the provisioning workflow.
type State int

const (
	StateInitializing State = iota
	StateRegionSelected
	StatePlanAvailabilityLoaded
	StatePlanSelected
	StateConfirming
	StateCreating
	StateCreated
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateRegionSelected:
		return "region-selected"
	case StatePlanAvailabilityLoaded:
		return "plan-availability-loaded"
	case StatePlanSelected:
		return "plan-selected"
	case StateConfirming:
		return "confirming"
	case StateCreating:
		return "creating"
	case StateCreated:
		return "created"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Availability describes the result of the current region's availability
// query.
type Availability int

const (
	AvailabilityNone Availability = iota
	AvailabilityLoading
	AvailabilityLoaded
	// AvailabilityEmpty means the query succeeded and the region offers no
	// plans of the configured type.
	AvailabilityEmpty
	// AvailabilityFailed means the query itself failed; see View.AvailabilityErr.
	AvailabilityFailed
)

func (a Availability) String() string {
	switch a {
	case AvailabilityLoading:
		return "loading"
	case AvailabilityLoaded:
		return "loaded"
	case AvailabilityEmpty:
		return "no plans available in this region"
	case AvailabilityFailed:
		return "availability query failed"
	default:
		return "none"
	}
}

// Submitter creates instances. *lifecycle.Manager satisfies it.
type Submitter interface {
	Create(ctx context.Context, req domain.CreateInstanceRequest) (*domain.Instance, error)
}

// Options configures a Workflow.
type Options struct {
	// PreferredCity selects the default region after Load.
	PreferredCity string
	// PlanType is passed to ListPlans, e.g. "vc2".
	PlanType string
	// LabelPrefix prefixes generated instance labels.
	LabelPrefix string
	Logger      logrus.FieldLogger
}

// Workflow is safe for concurrent use. Network calls run without holding the
// lock so View stays responsive; a superseded region query is discarded.
type Workflow struct {
	catalog   domain.CatalogProvider
	submitter Submitter
	opts      Options
	log       logrus.FieldLogger

	mu sync.Mutex

	state State

	regions         []domain.Region
	plans           []domain.Plan
	images          []domain.OSImage
	snapshots       []domain.Snapshot
	defaultSnapshot *domain.Snapshot

	region       *domain.Region
	regionGen    uint64
	avail        Availability
	availErr     error
	availability domain.PlanSet
	filtered     []domain.Plan

	plan  *domain.Plan
	image domain.ImageSource
	label string

	pending *domain.CreateInstanceRequest
	created *domain.Instance
	lastErr error
}

// New creates a workflow in StateInitializing. Call Load before anything
// else.
func New(catalog domain.CatalogProvider, submitter Submitter, opts Options) *Workflow {
	if opts.PreferredCity == "" {
		opts.PreferredCity = DefaultPreferredCity
	}
	if opts.LabelPrefix == "" {
		opts.LabelPrefix = "vultrcli"
	}
	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Workflow{
		catalog:   catalog,
		submitter: submitter,
		opts:      opts,
		log:       log.WithField("component", "workflow"),
	}
}

type catalogData struct {
	regions   []domain.Region
	plans     []domain.Plan
	images    []domain.OSImage
	snapshots []domain.Snapshot
}

// fetchCatalog loads regions, plans, images and snapshots concurrently.
// Regions and plans are required; images and snapshots degrade to empty.
func (w *Workflow) fetchCatalog(ctx context.Context) (catalogData, error) {
	var data catalogData
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		data.regions, err = w.catalog.ListRegions(gctx)
		if err != nil {
			return fmt.Errorf("failed to list regions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		data.plans, err = w.catalog.ListPlans(gctx, w.opts.PlanType)
		if err != nil {
			return fmt.Errorf("failed to list plans: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		data.images, err = w.catalog.ListOSImages(gctx)
		if err != nil {
			w.log.WithError(err).Warn("os images unavailable")
		}
		return nil
	})
	g.Go(func() error {
		var err error
		data.snapshots, err = w.catalog.ListSnapshots(gctx)
		if err != nil {
			w.log.WithError(err).Warn("snapshots unavailable")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return catalogData{}, err
	}
	return data, nil
}

// Load fetches the catalog, resolves the default snapshot, and selects the
// default region (preferred city if present, else the first region).
func (w *Workflow) Load(ctx context.Context) error {
	return w.load(ctx, "")
}

// Refresh reloads the catalog, keeping the current region when it still
// exists.
func (w *Workflow) Refresh(ctx context.Context) error {
	w.mu.Lock()
	keep := ""
	if w.region != nil {
		keep = w.region.ID
	}
	w.mu.Unlock()
	return w.load(ctx, keep)
}

func (w *Workflow) load(ctx context.Context, keepRegion string) error {
	w.mu.Lock()
	if w.state == StateCreating {
		w.mu.Unlock()
		return domain.NewValidationError("load catalog", nil, "an instance is being created")
	}
	w.mu.Unlock()

	data, err := w.fetchCatalog(ctx)
	if err != nil {
		return err
	}
	if len(data.regions) == 0 {
		return domain.NewValidationError("load catalog", nil, "the provider returned no regions")
	}

	w.mu.Lock()
	w.regions = data.regions
	w.plans = data.plans
	w.images = nonNil(data.images)
	w.snapshots = nonNil(data.snapshots)
	w.defaultSnapshot = nil
	if len(w.snapshots) > 0 {
		s := w.snapshots[0]
		w.defaultSnapshot = &s
	}
	if !w.imageStillValid() {
		w.image = domain.ImageSource{}
		if w.defaultSnapshot != nil {
			w.image.SnapshotID = w.defaultSnapshot.ID
		}
	}
	w.state = StateInitializing
	w.pending = nil

	target := w.defaultRegionLocked()
	if keepRegion != "" {
		if _, ok := w.findRegionLocked(keepRegion); ok {
			target = keepRegion
		}
	}
	w.mu.Unlock()

	w.log.WithFields(logrus.Fields{
		"regions":   len(data.regions),
		"plans":     len(data.plans),
		"snapshots": len(data.snapshots),
		"region":    target,
	}).Debug("catalog loaded")

	return w.SelectRegion(ctx, target)
}

func (w *Workflow) defaultRegionLocked() string {
	if w.opts.PreferredCity != "" {
		for _, r := range w.regions {
			if strings.EqualFold(r.City, w.opts.PreferredCity) {
				return r.ID
			}
		}
	}
	return w.regions[0].ID
}

func (w *Workflow) findRegionLocked(id string) (domain.Region, bool) {
	for _, r := range w.regions {
		if r.ID == id {
			return r, true
		}
	}
	return domain.Region{}, false
}

func (w *Workflow) imageStillValid() bool {
	switch {
	case w.image.SnapshotID != "":
		return slices.ContainsFunc(w.snapshots, func(s domain.Snapshot) bool { return s.ID == w.image.SnapshotID })
	case w.image.OSID != 0:
		return slices.ContainsFunc(w.images, func(o domain.OSImage) bool { return o.ID == w.image.OSID })
	}
	return false
}

// selectable reports an error when the workflow is in a state where the
// selection must not change.
func (w *Workflow) selectableLocked(op string) error {
	switch w.state {
	case StateConfirming:
		return domain.NewValidationError(op, nil, "cancel the pending confirmation first")
	case StateCreating:
		return domain.NewValidationError(op, nil, "an instance is being created")
	}
	if len(w.regions) == 0 {
		return domain.NewValidationError(op, nil, "catalog not loaded")
	}
	return nil
}

// SelectRegion changes the region, clears any selected plan, and reloads
// availability. The returned error is the availability query failure, if
// any; the workflow then reports AvailabilityFailed.
func (w *Workflow) SelectRegion(ctx context.Context, id string) error {
	const op = "select region"

	w.mu.Lock()
	if err := w.selectableLocked(op); err != nil {
		w.mu.Unlock()
		return err
	}
	region, ok := w.findRegionLocked(id)
	if !ok {
		w.mu.Unlock()
		return domain.NewValidationError(op, nil, "unknown region %q", id)
	}
	w.regionGen++
	gen := w.regionGen
	w.region = &region
	w.plan = nil
	w.filtered = nil
	w.availability = nil
	w.avail = AvailabilityLoading
	w.availErr = nil
	w.created = nil
	w.lastErr = nil
	w.state = StateRegionSelected
	w.mu.Unlock()

	set, err := w.catalog.ListAvailablePlanIDs(ctx, id)

	w.mu.Lock()
	defer w.mu.Unlock()
	if gen != w.regionGen {
		return nil
	}
	if err != nil {
		w.avail = AvailabilityFailed
		w.availErr = err
		w.log.WithError(err).WithField("region", id).Warn("availability query failed")
		return err
	}

	w.availability = set
	w.filtered = make([]domain.Plan, 0, len(set))
	for _, p := range w.plans {
		if set.Has(p.ID) {
			w.filtered = append(w.filtered, p)
		}
	}
	if len(w.filtered) == 0 {
		w.avail = AvailabilityEmpty
	} else {
		w.avail = AvailabilityLoaded
	}
	w.state = StatePlanAvailabilityLoaded
	return nil
}

// SelectRegionByCity selects the single region whose city matches. A city
// shared by several regions must be selected by id.
func (w *Workflow) SelectRegionByCity(ctx context.Context, city string) error {
	const op = "select region"

	w.mu.Lock()
	var matches []string
	for _, r := range w.regions {
		if strings.EqualFold(r.City, strings.TrimSpace(city)) {
			matches = append(matches, r.ID)
		}
	}
	w.mu.Unlock()

	switch len(matches) {
	case 0:
		return domain.NewValidationError(op, nil, "no region in city %q", city)
	case 1:
		return w.SelectRegion(ctx, matches[0])
	default:
		return domain.NewValidationError(op, nil, "city %q is ambiguous, choose one of regions %s", city, strings.Join(matches, ", "))
	}
}

// SelectPlan selects a plan from the filtered list. No network call is made.
func (w *Workflow) SelectPlan(id string) error {
	const op = "select plan"

	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.selectableLocked(op); err != nil {
		return err
	}
	if w.avail != AvailabilityLoaded {
		return domain.NewValidationError(op, nil, "cannot select a plan: %s", w.avail)
	}
	i := slices.IndexFunc(w.filtered, func(p domain.Plan) bool { return p.ID == id })
	if i < 0 {
		return domain.NewValidationError(op, nil, "plan %q is not available in region %s", id, w.region.ID)
	}
	p := w.filtered[i]
	w.plan = &p
	w.state = StatePlanSelected
	return nil
}

// SelectSnapshot uses a snapshot as the image source.
func (w *Workflow) SelectSnapshot(id string) error {
	const op = "select snapshot"

	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.selectableLocked(op); err != nil {
		return err
	}
	if !slices.ContainsFunc(w.snapshots, func(s domain.Snapshot) bool { return s.ID == id }) {
		return domain.NewValidationError(op, nil, "unknown snapshot %q", id)
	}
	w.image = domain.ImageSource{SnapshotID: id}
	return nil
}

// SelectOS uses a stock OS image as the image source.
func (w *Workflow) SelectOS(id int) error {
	const op = "select os"

	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.selectableLocked(op); err != nil {
		return err
	}
	if !slices.ContainsFunc(w.images, func(o domain.OSImage) bool { return o.ID == id }) {
		return domain.NewValidationError(op, nil, "unknown os image %d", id)
	}
	w.image = domain.ImageSource{OSID: id}
	return nil
}

// SetLabel sets the instance label. An empty label means one is generated
// at confirmation.
func (w *Workflow) SetLabel(label string) error {
	const op = "set label"

	label = strings.TrimSpace(label)
	if label != "" {
		if err := util.ValidateLabel(label); err != nil {
			return domain.NewValidationError(op, err, "%v", err)
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.selectableLocked(op); err != nil {
		return err
	}
	w.label = label
	return nil
}

// Confirm moves PlanSelected to Confirming and returns the request that
// Create will submit.
func (w *Workflow) Confirm() (domain.CreateInstanceRequest, error) {
	const op = "confirm"

	w.mu.Lock()
	defer w.mu.Unlock()

	switch {
	case w.state == StateConfirming && w.pending != nil:
		return *w.pending, nil
	case w.region == nil:
		return domain.CreateInstanceRequest{}, domain.NewValidationError(op, nil, "no region selected")
	case w.plan == nil || w.state != StatePlanSelected:
		return domain.CreateInstanceRequest{}, domain.NewValidationError(op, nil, "no plan selected")
	case w.image.IsZero():
		return domain.CreateInstanceRequest{}, domain.NewValidationError(op, nil, "no OS image or snapshot selected")
	case !w.availability.Has(w.plan.ID):
		return domain.CreateInstanceRequest{}, domain.NewValidationError(op, nil, "plan %q is not available in region %s", w.plan.ID, w.region.ID)
	}

	label := w.label
	if label == "" {
		label = w.opts.LabelPrefix + "-" + uuid.NewString()[:8]
	}
	req := domain.CreateInstanceRequest{
		Region:   w.region.ID,
		Plan:     w.plan.ID,
		Image:    w.image,
		Label:    label,
		Hostname: label,
	}
	if err := req.Validate(); err != nil {
		return domain.CreateInstanceRequest{}, err
	}
	w.pending = &req
	w.state = StateConfirming
	return req, nil
}

// Cancel returns from Confirming to PlanSelected.
func (w *Workflow) Cancel() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == StateConfirming {
		w.pending = nil
		w.state = StatePlanSelected
	}
}

// Create submits the confirmed request. On failure the workflow rests in
// PlanSelected with the classified error in View.LastErr so the caller can
// confirm again without re-selecting.
func (w *Workflow) Create(ctx context.Context) (*domain.Instance, error) {
	const op = "create instance"

	w.mu.Lock()
	if w.state != StateConfirming || w.pending == nil {
		w.mu.Unlock()
		return nil, domain.NewValidationError(op, nil, "confirm the selection before creating")
	}
	req := *w.pending
	w.state = StateCreating
	w.lastErr = nil
	w.mu.Unlock()

	inst, err := w.submitter.Create(ctx, req)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending = nil
	if err != nil {
		w.state = StatePlanSelected
		w.lastErr = err
		w.log.WithError(err).Warn("instance creation failed")
		return nil, err
	}
	w.state = StateCreated
	w.created = inst
	w.label = ""
	w.log.WithField("instance", inst.ID).Info("instance created")
	return inst, nil
}

// View is an immutable snapshot of the workflow for rendering.
type View struct {
	State           State
	Regions         []domain.Region
	Plans           []domain.Plan
	Images          []domain.OSImage
	Snapshots       []domain.Snapshot
	DefaultSnapshot *domain.Snapshot
	Region          *domain.Region
	Availability    Availability
	AvailabilityErr error
	FilteredPlans   []domain.Plan
	Plan            *domain.Plan
	Image           domain.ImageSource
	Label           string
	Pending         *domain.CreateInstanceRequest
	Created         *domain.Instance
	// Failed is set when the last Create call failed; LastErr holds why.
	Failed  bool
	LastErr error
}

// View returns the current state. Slices are copies.
func (w *Workflow) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()

	v := View{
		State:           w.state,
		Regions:         slices.Clone(w.regions),
		Plans:           slices.Clone(w.plans),
		Images:          slices.Clone(w.images),
		Snapshots:       slices.Clone(w.snapshots),
		DefaultSnapshot: clonePtr(w.defaultSnapshot),
		Region:          clonePtr(w.region),
		Availability:    w.avail,
		AvailabilityErr: w.availErr,
		FilteredPlans:   slices.Clone(w.filtered),
		Plan:            clonePtr(w.plan),
		Image:           w.image,
		Label:           w.label,
		Pending:         clonePtr(w.pending),
		Created:         clonePtr(w.created),
		Failed:          w.lastErr != nil,
		LastErr:         w.lastErr,
	}
	return v
}

// RegionLabels returns a display label per region id, appending the id when
// several regions share a city.
func RegionLabels(regions []domain.Region) map[string]string {
	counts := make(map[string]int, len(regions))
	for _, r := range regions {
		counts[strings.ToLower(r.City)]++
	}
	labels := make(map[string]string, len(regions))
	for _, r := range regions {
		labels[r.ID] = r.Label(counts[strings.ToLower(r.City)] > 1)
	}
	return labels
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
