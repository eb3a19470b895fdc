package vultr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"nathanbeddoewebdev/vultrcli/internal/domain"
	"nathanbeddoewebdev/vultrcli/internal/transport"
)

type instanceJSON struct {
	ID             string    `json:"id"`
	Label          string    `json:"label"`
	Plan           string    `json:"plan"`
	Region         string    `json:"region"`
	MainIP         string    `json:"main_ip"`
	Status         string    `json:"status"`
	PowerStatus    string    `json:"power_status"`
	ServerStatus   string    `json:"server_status"`
	PendingCharges flexFloat `json:"pending_charges"`
	OS             string    `json:"os"`
	VCPUCount      int       `json:"vcpu_count"`
	RAM            int       `json:"ram"`
	Disk           int       `json:"disk"`
	DateCreated    string    `json:"date_created"`
}

func (i instanceJSON) toDomain() domain.Instance {
	created, _ := time.Parse(time.RFC3339, i.DateCreated)
	return domain.Instance{
		ID:             i.ID,
		Label:          i.Label,
		Plan:           i.Plan,
		Region:         i.Region,
		MainIP:         i.MainIP,
		Status:         domain.NormalizeStatus(i.Status, i.PowerStatus, i.ServerStatus),
		PowerStatus:    i.PowerStatus,
		ServerStatus:   i.ServerStatus,
		PendingCharges: i.PendingCharges.ptr(),
		OS:             i.OS,
		VCPUCount:      i.VCPUCount,
		RAM:            i.RAM,
		Disk:           i.Disk,
		DateCreated:    created,
	}
}

type createBody struct {
	Region     string `json:"region"`
	Plan       string `json:"plan"`
	OSID       int    `json:"os_id,omitempty"`
	SnapshotID string `json:"snapshot_id,omitempty"`
	Label      string `json:"label,omitempty"`
	Hostname   string `json:"hostname,omitempty"`
}

// ListInstances returns every instance on the account.
func (c *Client) ListInstances(ctx context.Context) ([]domain.Instance, error) {
	raws, err := c.listAll(ctx, "list instances", "/instances", "instances", nil)
	if err != nil {
		return []domain.Instance{}, err
	}
	records := decodeEach(c.log, "list instances", raws, func(i instanceJSON) bool { return i.ID != "" })
	instances := make([]domain.Instance, 0, len(records))
	for _, r := range records {
		instances = append(instances, r.toDomain())
	}
	return instances, nil
}

// GetInstance fetches a single instance.
func (c *Client) GetInstance(ctx context.Context, id string) (*domain.Instance, error) {
	const op = "get instance"
	if id == "" {
		return nil, domain.NewValidationError(op, nil, "instance id is required")
	}
	return c.decodeInstance(ctx, op, transport.Request{
		Op:     op,
		Method: http.MethodGet,
		Path:   instancePath(id),
	})
}

// CreateInstance submits req. The provider answers 202 Accepted; 201 is
// also treated as success.
func (c *Client) CreateInstance(ctx context.Context, req domain.CreateInstanceRequest) (*domain.Instance, error) {
	const op = "create instance"
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return c.decodeInstance(ctx, op, transport.Request{
		Op:     op,
		Method: http.MethodPost,
		Path:   "/instances",
		Body: createBody{
			Region:     req.Region,
			Plan:       req.Plan,
			OSID:       req.Image.OSID,
			SnapshotID: req.Image.SnapshotID,
			Label:      req.Label,
			Hostname:   req.Hostname,
		},
		Expect: []int{http.StatusCreated, http.StatusAccepted},
	})
}

func (c *Client) decodeInstance(ctx context.Context, op string, req transport.Request) (*domain.Instance, error) {
	var body struct {
		Instance *json.RawMessage `json:"instance"`
	}
	if _, err := c.t.DoJSON(ctx, req, &body); err != nil {
		return nil, err
	}
	if body.Instance == nil {
		return nil, malformed(op, "missing %q in response", "instance")
	}
	var rec instanceJSON
	if err := json.Unmarshal(*body.Instance, &rec); err != nil {
		return nil, malformed(op, "undecodable instance: %v", err)
	}
	if rec.ID == "" {
		return nil, malformed(op, "instance without id")
	}
	inst := rec.toDomain()
	return &inst, nil
}

// StartInstance powers on an instance.
func (c *Client) StartInstance(ctx context.Context, id string) error {
	return c.instanceAction(ctx, "start instance", id, "start")
}

// StopInstance powers off an instance.
func (c *Client) StopInstance(ctx context.Context, id string) error {
	return c.instanceAction(ctx, "stop instance", id, "stop")
}

// RebootInstance reboots an instance.
func (c *Client) RebootInstance(ctx context.Context, id string) error {
	return c.instanceAction(ctx, "reboot instance", id, "reboot")
}

// DeleteInstance destroys an instance.
func (c *Client) DeleteInstance(ctx context.Context, id string) error {
	const op = "delete instance"
	if id == "" {
		return domain.NewValidationError(op, nil, "instance id is required")
	}
	_, err := c.t.Do(ctx, transport.Request{
		Op:     op,
		Method: http.MethodDelete,
		Path:   instancePath(id),
		Expect: []int{http.StatusNoContent},
	})
	return err
}

func (c *Client) instanceAction(ctx context.Context, op, id, action string) error {
	if id == "" {
		return domain.NewValidationError(op, nil, "instance id is required")
	}
	_, err := c.t.Do(ctx, transport.Request{
		Op:     op,
		Method: http.MethodPost,
		Path:   instancePath(id) + "/" + action,
		Expect: []int{http.StatusNoContent},
	})
	return err
}

func instancePath(id string) string {
	return "/instances/" + url.PathEscape(id)
}
