// Package onboarding implements the device onboarding lifecycle for
// Enrollgate Core.
//
// Devices self-register with a (tenant, hardware) identity and wait in the
// pending state. An operator then approves or rejects each registration.
// Approval provisions a dedicated message channel for the device and records
// its address on the device record; rejection is terminal and records a
// reason. Both decisions only apply to pending devices.
//
// # Key Types
//
//   - Device: a registered device and its lifecycle state
//   - Registration: the payload a device submits to register
//   - RegistrationLog: one append-only audit entry per lifecycle action
//   - Engine: the lifecycle orchestrator (validation, state transitions,
//     channel provisioning, audit logging)
//   - Store: persistence contract (SQLite in production, memory in tests)
//   - Provisioner: message channel contract (NATS JetStream in production)
//
// # Usage
//
//	store := onboarding.NewSQLiteStore(db)
//	engine := onboarding.NewEngine(store, provisioner)
//	engine.SetLogger(log)
//
//	dev, err := engine.Register(ctx, onboarding.Registration{
//	    HardwareID: "HW-4411",
//	    TenantID:   "acme",
//	    SystemInfo: onboarding.SystemInfo{OS: "linux", Arch: "arm64", MAC: "aa:bb:cc:dd:ee:ff"},
//	}, "203.0.113.9")
//
//	result, err := engine.Approve(ctx, dev.DeviceID)
//	// result.ChannelAddress is the device's dedicated channel
//
// # Concurrency
//
// Registration races are resolved by the store's unique (tenant_id,
// hardware_id) constraint: exactly one concurrent registration wins.
// Approve/Reject races are resolved by a conditional status update that only
// applies while the device is still pending; the loser observes
// ErrNotPending and performs no state change.
//
// # Status Opacity
//
// Device-facing status checks never distinguish rejected from pending. Only
// the operator surface sees the rejected state and its reason.
package onboarding
