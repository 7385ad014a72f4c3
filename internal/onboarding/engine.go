package onboarding

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Logger defines the logging interface used by the Engine.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Recorder receives lifecycle events for metrics. Implementations must not
// block; recording is best-effort and failures never affect the lifecycle.
type Recorder interface {
	Record(action Action, tenantID string)
}

// RecorderFunc adapts a function to the Recorder interface.
type RecorderFunc func(action Action, tenantID string)

// Record calls f(action, tenantID).
func (f RecorderFunc) Record(action Action, tenantID string) {
	f(action, tenantID)
}

// Engine orchestrates the device onboarding lifecycle: registration,
// status checks, and operator approve/reject decisions. It owns the
// ordering guarantees between channel provisioning and status writes.
//
// All public methods are safe for concurrent use; conflict resolution is
// delegated to the Store's unique constraint and conditional update.
type Engine struct {
	store       Store
	provisioner Provisioner
	logger      Logger
	recorder    Recorder
}

// NewEngine creates a new onboarding engine.
func NewEngine(store Store, provisioner Provisioner) *Engine {
	return &Engine{
		store:       store,
		provisioner: provisioner,
		logger:      noopLogger{},
	}
}

// SetLogger sets the logger for the engine.
func (e *Engine) SetLogger(logger Logger) {
	e.logger = logger
}

// SetRecorder sets an optional lifecycle-metrics recorder.
func (e *Engine) SetRecorder(recorder Recorder) {
	e.recorder = recorder
}

// Register creates a pending device for the given identity.
//
// Returns ErrInvalidRequest (wrapped) if the payload is malformed and
// ErrAlreadyRegistered if the identity exists in any status. The identity
// check is advisory; the store's unique constraint decides races, so two
// concurrent registrations of the same identity yield exactly one device.
func (e *Engine) Register(ctx context.Context, reg Registration, ipAddress string) (*Device, error) {
	if err := ValidateRegistration(reg); err != nil {
		return nil, err
	}

	// Fast path: reject known identities without burning a device ID.
	_, err := e.store.GetByIdentity(ctx, reg.TenantID, reg.HardwareID)
	if err == nil {
		return nil, ErrAlreadyRegistered
	}
	if !errors.Is(err, ErrDeviceNotFound) {
		return nil, fmt.Errorf("checking existing registration: %w", err)
	}

	device := &Device{
		DeviceID:   GenerateDeviceID(),
		HardwareID: reg.HardwareID,
		TenantID:   reg.TenantID,
		IPAddress:  ipAddress,
		SystemInfo: reg.SystemInfo,
		Status:     StatusPending,
	}

	if err := e.store.CreateDevice(ctx, device); err != nil {
		if errors.Is(err, ErrAlreadyRegistered) {
			return nil, ErrAlreadyRegistered
		}
		return nil, fmt.Errorf("creating device: %w", err)
	}

	if err := e.appendLog(ctx, device, ActionRegister, ipAddress, nil); err != nil {
		return nil, err
	}

	e.logger.Info("device registered",
		"device_id", device.DeviceID,
		"tenant_id", device.TenantID,
		"hardware_id", device.HardwareID,
	)
	e.record(ActionRegister, device.TenantID)

	return device, nil
}

// Status reports a device's onboarding outcome to the device itself.
//
// Approved devices learn their device ID and channel address. Everything
// else, including rejected devices, reads as still pending: rejection is
// deliberately not disclosed on the device-facing surface.
func (e *Engine) Status(ctx context.Context, tenantID, hardwareID, ipAddress string) (*StatusResult, error) {
	device, err := e.store.GetByIdentity(ctx, tenantID, hardwareID)
	if err != nil {
		if errors.Is(err, ErrDeviceNotFound) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("querying device: %w", err)
	}

	if err := e.appendLog(ctx, device, ActionStatusCheck, ipAddress, nil); err != nil {
		return nil, err
	}
	e.record(ActionStatusCheck, device.TenantID)

	if device.Status == StatusApproved && device.ChannelAddress != nil {
		return &StatusResult{
			Approved:       true,
			DeviceID:       device.DeviceID,
			ChannelAddress: *device.ChannelAddress,
		}, nil
	}
	return &StatusResult{Approved: false}, nil
}

// Approve transitions a pending device to approved, provisioning its
// dedicated message channel first so a device can never observe an
// approval without a usable channel address.
//
// Returns ErrDeviceNotFound for unknown IDs and ErrNotPending when the
// device has already been decided, in which case no state is touched.
func (e *Engine) Approve(ctx context.Context, deviceID string) (*ApprovalResult, error) {
	device, err := e.store.GetByID(ctx, deviceID)
	if err != nil {
		if errors.Is(err, ErrDeviceNotFound) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("querying device: %w", err)
	}
	if device.Status != StatusPending {
		return nil, ErrNotPending
	}

	name := ChannelName(device.HardwareID, device.TenantID)
	address, err := e.provisioner.CreateChannel(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("provisioning channel: %w", err)
	}

	now := time.Now().UTC()
	update := StatusUpdate{
		Status:         StatusApproved,
		ChannelAddress: &address,
		ApprovedAt:     &now,
	}
	if err := e.store.UpdateStatus(ctx, deviceID, StatusPending, update); err != nil {
		if errors.Is(err, ErrStatusConflict) {
			// A concurrent decision won. The channel name is deterministic,
			// so if the winner was an approval it owns this same channel;
			// deleting it here would sabotage the winner.
			e.logger.Warn("approval lost status race",
				"device_id", deviceID,
				"channel", name,
			)
			return nil, ErrNotPending
		}
		e.rollbackChannel(ctx, deviceID, address, err)
		return nil, fmt.Errorf("updating device status: %w", err)
	}

	device.Status = StatusApproved
	if err := e.appendLog(ctx, device, ActionApprove, device.IPAddress, map[string]any{
		"channel_address": address,
	}); err != nil {
		return nil, err
	}

	e.logger.Info("device approved",
		"device_id", deviceID,
		"tenant_id", device.TenantID,
		"channel_address", address,
	)
	e.record(ActionApprove, device.TenantID)

	return &ApprovalResult{DeviceID: deviceID, ChannelAddress: address}, nil
}

// Reject transitions a pending device to rejected with the given reason.
// No channel is ever provisioned for a rejected device.
//
// Returns ErrInvalidRequest (wrapped) for an unusable reason,
// ErrDeviceNotFound for unknown IDs, and ErrNotPending when the device has
// already been decided.
func (e *Engine) Reject(ctx context.Context, deviceID, reason string) error {
	if err := ValidateRejectionReason(reason); err != nil {
		return err
	}

	device, err := e.store.GetByID(ctx, deviceID)
	if err != nil {
		if errors.Is(err, ErrDeviceNotFound) {
			return ErrDeviceNotFound
		}
		return fmt.Errorf("querying device: %w", err)
	}
	if device.Status != StatusPending {
		return ErrNotPending
	}

	now := time.Now().UTC()
	update := StatusUpdate{
		Status:          StatusRejected,
		RejectedAt:      &now,
		RejectionReason: &reason,
	}
	if err := e.store.UpdateStatus(ctx, deviceID, StatusPending, update); err != nil {
		if errors.Is(err, ErrStatusConflict) {
			e.logger.Warn("rejection lost status race", "device_id", deviceID)
			return ErrNotPending
		}
		return fmt.Errorf("updating device status: %w", err)
	}

	if err := e.appendLog(ctx, device, ActionReject, device.IPAddress, map[string]any{
		"reason": reason,
	}); err != nil {
		return err
	}

	e.logger.Info("device rejected",
		"device_id", deviceID,
		"tenant_id", device.TenantID,
		"reason", reason,
	)
	e.record(ActionReject, device.TenantID)

	return nil
}

// ListPending retrieves all devices awaiting an operator decision,
// oldest registration first.
func (e *Engine) ListPending(ctx context.Context) ([]Device, error) {
	devices, err := e.store.ListByStatus(ctx, StatusPending)
	if err != nil {
		return nil, fmt.Errorf("listing pending devices: %w", err)
	}
	return devices, nil
}

// Get retrieves a device by its server-generated ID for the operator
// surface, including terminal states and the rejection reason.
func (e *Engine) Get(ctx context.Context, deviceID string) (*Device, error) {
	return e.store.GetByID(ctx, deviceID)
}

// Logs retrieves the audit trail for a (tenant, hardware) identity,
// newest first. An unknown identity yields an empty trail.
func (e *Engine) Logs(ctx context.Context, tenantID, hardwareID string) ([]RegistrationLog, error) {
	logs, err := e.store.ListLogsByIdentity(ctx, tenantID, hardwareID)
	if err != nil {
		return nil, fmt.Errorf("listing registration logs: %w", err)
	}
	return logs, nil
}

// appendLog records one audit entry for a lifecycle action.
func (e *Engine) appendLog(ctx context.Context, device *Device, action Action, ipAddress string, details map[string]any) error {
	log := &RegistrationLog{
		LogID:      GenerateLogID(),
		HardwareID: device.HardwareID,
		TenantID:   device.TenantID,
		Action:     action,
		IPAddress:  ipAddress,
		Timestamp:  time.Now().UTC(),
		Details:    details,
	}
	if err := e.store.AppendLog(ctx, log); err != nil {
		return fmt.Errorf("recording %s log: %w", action, err)
	}
	return nil
}

// rollbackChannel attempts to delete a channel provisioned for an approval
// whose status write failed. If the delete also fails the channel is
// orphaned and flagged for manual cleanup.
func (e *Engine) rollbackChannel(ctx context.Context, deviceID, address string, cause error) {
	if delErr := e.provisioner.DeleteChannel(ctx, address); delErr != nil {
		e.logger.Error("orphaned channel requires manual cleanup",
			"device_id", deviceID,
			"channel_address", address,
			"update_error", cause,
			"delete_error", delErr,
		)
		return
	}
	e.logger.Warn("rolled back provisioned channel after failed approval",
		"device_id", deviceID,
		"channel_address", address,
		"error", cause,
	)
}

// record forwards a lifecycle event to the metrics recorder, if one is set.
func (e *Engine) record(action Action, tenantID string) {
	if e.recorder != nil {
		e.recorder.Record(action, tenantID)
	}
}
