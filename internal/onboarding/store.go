package onboarding

import (
	"context"
	"time"
)

// StatusUpdate describes the fields written by a lifecycle transition.
// Only non-nil optional fields are applied; the store always refreshes
// the device's updated_at timestamp.
type StatusUpdate struct {
	Status          Status
	ChannelAddress  *string
	ApprovedAt      *time.Time
	RejectedAt      *time.Time
	RejectionReason *string
}

// Store defines the persistence contract for devices and their audit trail.
// This abstraction allows for different implementations (SQLite, memory)
// and enables unit testing without database dependencies.
type Store interface {
	// CreateDevice inserts a new device record.
	// Returns ErrAlreadyRegistered if the (tenant_id, hardware_id)
	// identity already exists. The unique constraint is the single
	// authority on registration races.
	CreateDevice(ctx context.Context, device *Device) error

	// GetByIdentity retrieves a device by its (tenant, hardware) identity.
	// Returns ErrDeviceNotFound if no such device exists.
	GetByIdentity(ctx context.Context, tenantID, hardwareID string) (*Device, error)

	// GetByID retrieves a device by its server-generated ID.
	// Returns ErrDeviceNotFound if no such device exists.
	GetByID(ctx context.Context, deviceID string) (*Device, error)

	// UpdateStatus applies a lifecycle transition only if the device is
	// currently in the expected status. Returns ErrDeviceNotFound if the
	// device does not exist, ErrStatusConflict if it exists but its status
	// no longer matches expected.
	UpdateStatus(ctx context.Context, deviceID string, expected Status, update StatusUpdate) error

	// ListByStatus retrieves all devices in the given status, oldest first.
	ListByStatus(ctx context.Context, status Status) ([]Device, error)

	// AppendLog inserts an audit trail entry.
	AppendLog(ctx context.Context, log *RegistrationLog) error

	// ListLogsByIdentity retrieves the audit trail for a (tenant, hardware)
	// identity, newest first. An unknown identity yields an empty slice,
	// not an error.
	ListLogsByIdentity(ctx context.Context, tenantID, hardwareID string) ([]RegistrationLog, error)
}
