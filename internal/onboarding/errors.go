package onboarding

import "errors"

// Domain errors for the onboarding package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, onboarding.ErrDeviceNotFound) {
//	    // handle not found case
//	}
var (
	// ErrDeviceNotFound is returned when no device matches the given
	// identity or device ID.
	ErrDeviceNotFound = errors.New("onboarding: device not found")

	// ErrAlreadyRegistered is returned when a (tenant, hardware) identity
	// is already registered, regardless of its current status.
	ErrAlreadyRegistered = errors.New("onboarding: device already registered")

	// ErrNotPending is returned when an approve or reject decision targets
	// a device that is no longer pending.
	ErrNotPending = errors.New("onboarding: device is not pending")

	// ErrInvalidRequest is returned when request validation fails.
	ErrInvalidRequest = errors.New("onboarding: invalid request")

	// ErrStatusConflict is returned by the store when a conditional status
	// update finds the device in a different state than expected. The
	// engine translates it to ErrNotPending for callers.
	ErrStatusConflict = errors.New("onboarding: status changed concurrently")
)
