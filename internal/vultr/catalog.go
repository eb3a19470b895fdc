package vultr

import (
	"context"
	"net/http"
	"net/url"

	"nathanbeddoewebdev/vultrcli/internal/domain"
	"nathanbeddoewebdev/vultrcli/internal/transport"
)

// DefaultPlanType is the plan family queried when none is configured.
const DefaultPlanType = "vc2"

type regionJSON struct {
	ID        string   `json:"id"`
	City      string   `json:"city"`
	Country   string   `json:"country"`
	Continent string   `json:"continent"`
	Options   []string `json:"options"`
}

type planJSON struct {
	ID          string    `json:"id"`
	VCPUCount   int       `json:"vcpu_count"`
	RAM         int       `json:"ram"`
	Disk        int       `json:"disk"`
	DiskCount   int       `json:"disk_count"`
	Bandwidth   int       `json:"bandwidth"`
	MonthlyCost flexFloat `json:"monthly_cost"`
	Type        string    `json:"type"`
	Locations   []string  `json:"locations"`
}

type osJSON struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Arch   string `json:"arch"`
	Family string `json:"family"`
}

type snapshotJSON struct {
	ID          string  `json:"id"`
	Description *string `json:"description"`
	Status      string  `json:"status"`
	OSID        int     `json:"os_id"`
	Size        int64   `json:"size"`
}

// ListRegions returns every region in provider order.
func (c *Client) ListRegions(ctx context.Context) ([]domain.Region, error) {
	raws, err := c.listAll(ctx, "list regions", "/regions", "regions", nil)
	if err != nil {
		return []domain.Region{}, err
	}
	records := decodeEach(c.log, "list regions", raws, func(r regionJSON) bool { return r.ID != "" })
	regions := make([]domain.Region, 0, len(records))
	for _, r := range records {
		regions = append(regions, domain.Region{
			ID:        r.ID,
			City:      r.City,
			Country:   r.Country,
			Continent: r.Continent,
			Options:   r.Options,
		})
	}
	return regions, nil
}

// ListPlans returns plans of the given type. An empty planType means
// DefaultPlanType.
func (c *Client) ListPlans(ctx context.Context, planType string) ([]domain.Plan, error) {
	if planType == "" {
		planType = DefaultPlanType
	}
	raws, err := c.listAll(ctx, "list plans", "/plans", "plans", url.Values{"type": {planType}})
	if err != nil {
		return []domain.Plan{}, err
	}
	records := decodeEach(c.log, "list plans", raws, func(p planJSON) bool { return p.ID != "" })
	plans := make([]domain.Plan, 0, len(records))
	for _, p := range records {
		plans = append(plans, domain.Plan{
			ID:          p.ID,
			VCPUCount:   p.VCPUCount,
			RAM:         p.RAM,
			Disk:        p.Disk,
			DiskCount:   p.DiskCount,
			Bandwidth:   p.Bandwidth,
			MonthlyCost: p.MonthlyCost.ptr(),
			Type:        p.Type,
			Locations:   p.Locations,
		})
	}
	return plans, nil
}

// ListAvailablePlanIDs returns the ids of plans that can currently be
// deployed in regionID.
func (c *Client) ListAvailablePlanIDs(ctx context.Context, regionID string) (domain.PlanSet, error) {
	const op = "list region availability"
	if regionID == "" {
		return domain.PlanSet{}, domain.NewValidationError(op, nil, "region id is required")
	}

	var body struct {
		AvailablePlans *[]string `json:"available_plans"`
	}
	if _, err := c.t.DoJSON(ctx, transport.Request{
		Op:     op,
		Method: http.MethodGet,
		Path:   "/regions/" + url.PathEscape(regionID) + "/availability",
	}, &body); err != nil {
		return domain.PlanSet{}, err
	}
	if body.AvailablePlans == nil {
		return domain.PlanSet{}, malformed(op, "missing %q in response", "available_plans")
	}

	set := make(domain.PlanSet, len(*body.AvailablePlans))
	for _, id := range *body.AvailablePlans {
		if id != "" {
			set[id] = struct{}{}
		}
	}
	return set, nil
}

// ListOSImages returns the stock operating system images.
func (c *Client) ListOSImages(ctx context.Context) ([]domain.OSImage, error) {
	raws, err := c.listAll(ctx, "list os images", "/os", "os", nil)
	if err != nil {
		return []domain.OSImage{}, err
	}
	records := decodeEach(c.log, "list os images", raws, func(o osJSON) bool { return o.ID != 0 })
	images := make([]domain.OSImage, 0, len(records))
	for _, o := range records {
		images = append(images, domain.OSImage(o))
	}
	return images, nil
}

// ListSnapshots returns the account's snapshots in provider order.
func (c *Client) ListSnapshots(ctx context.Context) ([]domain.Snapshot, error) {
	raws, err := c.listAll(ctx, "list snapshots", "/snapshots", "snapshots", nil)
	if err != nil {
		return []domain.Snapshot{}, err
	}
	records := decodeEach(c.log, "list snapshots", raws, func(s snapshotJSON) bool { return s.ID != "" })
	snapshots := make([]domain.Snapshot, 0, len(records))
	for _, s := range records {
		snapshots = append(snapshots, domain.Snapshot{
			ID:          s.ID,
			Description: s.Description,
			Status:      s.Status,
			OSID:        s.OSID,
			Size:        s.Size,
		})
	}
	return snapshots, nil
}
