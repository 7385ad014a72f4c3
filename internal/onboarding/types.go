package onboarding

import (
	"time"

	"github.com/google/uuid"
)

// Status represents a device's position in the onboarding lifecycle.
type Status string

// Device lifecycle states. Pending is the only non-terminal state:
// approved and rejected devices never change status again.
const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// AllStatuses returns all valid lifecycle states.
func AllStatuses() []Status {
	return []Status{StatusPending, StatusApproved, StatusRejected}
}

// IsValid reports whether s is a recognised lifecycle state.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// SystemInfo describes the hardware and OS a device reports at registration.
type SystemInfo struct {
	OS   string `json:"os"`
	Arch string `json:"arch"`
	MAC  string `json:"mac"`
}

// Registration is the payload a device submits to register itself.
type Registration struct {
	HardwareID string     `json:"hardware_id"`
	TenantID   string     `json:"tenant_id"`
	SystemInfo SystemInfo `json:"system_info"`
}

// Device represents a registered device and its lifecycle state.
//
// The (TenantID, HardwareID) pair is the device-facing identity and is
// unique across the system; DeviceID is the server-generated identifier
// used by the operator surface.
type Device struct {
	DeviceID        string     `json:"device_id"`
	HardwareID      string     `json:"hardware_id"`
	TenantID        string     `json:"tenant_id"`
	IPAddress       string     `json:"ip_address"`
	SystemInfo      SystemInfo `json:"system_info"`
	Status          Status     `json:"status"`
	ChannelAddress  *string    `json:"channel_address,omitempty"`
	RegisteredAt    time.Time  `json:"registered_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`
}

// DeepCopy returns a copy of the device with no shared pointers.
// Stores return deep copies so callers can safely modify results.
func (d *Device) DeepCopy() *Device {
	if d == nil {
		return nil
	}
	cp := *d
	if d.ChannelAddress != nil {
		v := *d.ChannelAddress
		cp.ChannelAddress = &v
	}
	if d.ApprovedAt != nil {
		v := *d.ApprovedAt
		cp.ApprovedAt = &v
	}
	if d.RejectedAt != nil {
		v := *d.RejectedAt
		cp.RejectedAt = &v
	}
	if d.RejectionReason != nil {
		v := *d.RejectionReason
		cp.RejectionReason = &v
	}
	return &cp
}

// Action identifies a lifecycle action recorded in the audit trail.
type Action string

// Audited lifecycle actions.
const (
	ActionRegister    Action = "register"
	ActionApprove     Action = "approve"
	ActionReject      Action = "reject"
	ActionStatusCheck Action = "status_check"
)

// RegistrationLog is one append-only audit entry. Entries are keyed by the
// device-facing (TenantID, HardwareID) identity, not by DeviceID, so the
// trail survives even if a device row is never created.
type RegistrationLog struct {
	LogID      string         `json:"log_id"`
	HardwareID string         `json:"hardware_id"`
	TenantID   string         `json:"tenant_id"`
	Action     Action         `json:"action"`
	IPAddress  string         `json:"ip_address"`
	Timestamp  time.Time      `json:"timestamp"`
	Details    map[string]any `json:"details,omitempty"`
}

// StatusResult is what a device learns from a status check. A device only
// ever sees "pending" or its provisioned channel; rejection is not revealed.
type StatusResult struct {
	Approved       bool
	DeviceID       string
	ChannelAddress string
}

// ApprovalResult carries the outcome of a successful approval.
type ApprovalResult struct {
	DeviceID       string `json:"device_id"`
	ChannelAddress string `json:"channel_address"`
}

// GenerateDeviceID returns a new unique device identifier.
func GenerateDeviceID() string {
	return "dev-" + uuid.NewString()
}

// GenerateLogID returns a new unique audit log identifier.
func GenerateLogID() string {
	return "log-" + uuid.NewString()
}

// ChannelName derives the canonical channel name for a device identity.
// The name is deterministic: re-provisioning the same device always
// targets the same channel. The "." separator sits outside the identifier
// character set, so no two identities can derive the same name.
func ChannelName(hardwareID, tenantID string) string {
	return "device." + hardwareID + "." + tenantID
}
