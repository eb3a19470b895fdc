package domain

import "context"

// CatalogProvider exposes read-only catalog data. List methods return an
// empty, non-nil slice together with the error when a call fails.
type CatalogProvider interface {
	ListRegions(ctx context.Context) ([]Region, error)
	ListPlans(ctx context.Context, planType string) ([]Plan, error)
	ListAvailablePlanIDs(ctx context.Context, regionID string) (PlanSet, error)
	ListOSImages(ctx context.Context) ([]OSImage, error)
	ListSnapshots(ctx context.Context) ([]Snapshot, error)
}

// InstanceProvider performs instance reads and mutations.
type InstanceProvider interface {
	ListInstances(ctx context.Context) ([]Instance, error)
	GetInstance(ctx context.Context, id string) (*Instance, error)
	CreateInstance(ctx context.Context, req CreateInstanceRequest) (*Instance, error)
	StartInstance(ctx context.Context, id string) error
	StopInstance(ctx context.Context, id string) error
	RebootInstance(ctx context.Context, id string) error
	DeleteInstance(ctx context.Context, id string) error
}

// Provider is the full surface used by the CLI.
type Provider interface {
	CatalogProvider
	InstanceProvider
}
