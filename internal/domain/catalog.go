package domain

// Region is a deployment location. City is what users pick by, but more than
// one region can share a city.
type Region struct {
	ID        string   `json:"id"`
	City      string   `json:"city"`
	Country   string   `json:"country"`
	Continent string   `json:"continent"`
	Options   []string `json:"options,omitempty"`
}

// Label returns the city, or "City (id)" when disambiguate is set.
func (r Region) Label(disambiguate bool) string {
	if r.City == "" {
		return r.ID
	}
	if disambiguate {
		return r.City + " (" + r.ID + ")"
	}
	return r.City
}

// Plan is a purchasable compute size.
type Plan struct {
	ID          string   `json:"id"`
	VCPUCount   int      `json:"vcpu_count"`
	RAM         int      `json:"ram"`  // MB
	Disk        int      `json:"disk"` // GB
	DiskCount   int      `json:"disk_count"`
	Bandwidth   int      `json:"bandwidth"` // GB
	MonthlyCost *float64 `json:"monthly_cost,omitempty"`
	Type        string   `json:"type"`
	Locations   []string `json:"locations,omitempty"`
}

// OSImage is a stock operating system image.
type OSImage struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Arch   string `json:"arch"`
	Family string `json:"family"`
}

// Snapshot is a user-owned machine image.
type Snapshot struct {
	ID          string  `json:"id"`
	Description *string `json:"description,omitempty"`
	Status      string  `json:"status,omitempty"`
	OSID        int     `json:"os_id,omitempty"`
	Size        int64   `json:"size,omitempty"`
}

// DisplayName returns the description when present, else the id.
func (s Snapshot) DisplayName() string {
	if s.Description != nil && *s.Description != "" {
		return *s.Description
	}
	return s.ID
}

// PlanSet is the set of plan ids available in one region.
type PlanSet map[string]struct{}

// Has reports whether id is in the set.
func (s PlanSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}
