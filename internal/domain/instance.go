package domain

import (
	"fmt"
	"strings"
	"time"
)

// InstanceStatus is the normalized lifecycle status of an instance.
type InstanceStatus string

const (
	StatusPending   InstanceStatus = "pending"
	StatusActive    InstanceStatus = "active"
	StatusStopped   InstanceStatus = "stopped"
	StatusRebooting InstanceStatus = "rebooting"
	StatusUnknown   InstanceStatus = "unknown"
)

// NormalizeStatus folds the provider's status, power_status and
// server_status fields into a single InstanceStatus.
func NormalizeStatus(status, powerStatus, serverStatus string) InstanceStatus {
	switch strings.ToLower(status) {
	case "pending":
		return StatusPending
	case "active":
		switch strings.ToLower(powerStatus) {
		case "stopped":
			return StatusStopped
		case "running", "":
		default:
			return StatusUnknown
		}
		if strings.EqualFold(serverStatus, "rebooting") {
			return StatusRebooting
		}
		return StatusActive
	case "stopped":
		return StatusStopped
	case "rebooting":
		return StatusRebooting
	}
	return StatusUnknown
}

// Instance is a provisioned virtual machine.
type Instance struct {
	ID             string         `json:"id"`
	Label          string         `json:"label"`
	Plan           string         `json:"plan"`
	Region         string         `json:"region"`
	MainIP         string         `json:"main_ip"`
	Status         InstanceStatus `json:"status"`
	PowerStatus    string         `json:"power_status,omitempty"`
	ServerStatus   string         `json:"server_status,omitempty"`
	PendingCharges *float64       `json:"pending_charges,omitempty"`
	OS             string         `json:"os,omitempty"`
	VCPUCount      int            `json:"vcpu_count,omitempty"`
	RAM            int            `json:"ram,omitempty"`
	Disk           int            `json:"disk,omitempty"`
	DateCreated    time.Time      `json:"date_created"`
}

// ImageSource is either a stock OS image or a snapshot. Exactly one field
// must be set.
type ImageSource struct {
	OSID       int    `json:"os_id,omitempty"`
	SnapshotID string `json:"snapshot_id,omitempty"`
}

// IsZero reports whether no image was chosen.
func (s ImageSource) IsZero() bool {
	return s.OSID == 0 && s.SnapshotID == ""
}

func (s ImageSource) String() string {
	switch {
	case s.SnapshotID != "":
		return "snapshot " + s.SnapshotID
	case s.OSID != 0:
		return fmt.Sprintf("os %d", s.OSID)
	default:
		return "none"
	}
}

// CreateInstanceRequest holds everything needed to create an instance.
type CreateInstanceRequest struct {
	Region   string      `json:"region"`
	Plan     string      `json:"plan"`
	Image    ImageSource `json:"image"`
	Label    string      `json:"label,omitempty"`
	Hostname string      `json:"hostname,omitempty"`
}

// Validate checks that the request is well formed. It does not check
// availability, which is the workflow's job.
func (r CreateInstanceRequest) Validate() error {
	const op = "create instance"
	switch {
	case strings.TrimSpace(r.Region) == "":
		return NewValidationError(op, nil, "region is required")
	case strings.TrimSpace(r.Plan) == "":
		return NewValidationError(op, nil, "plan is required")
	case r.Image.IsZero():
		return NewValidationError(op, nil, "an OS image or snapshot is required")
	case r.Image.OSID != 0 && r.Image.SnapshotID != "":
		return NewValidationError(op, nil, "choose either an OS image or a snapshot, not both")
	case strings.TrimSpace(r.Label) == "":
		return NewValidationError(op, nil, "label is required")
	}
	return nil
}
