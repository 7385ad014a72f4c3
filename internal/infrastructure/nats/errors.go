package nats

import "errors"

// Domain-specific errors for NATS operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotConnected is returned when attempting operations on a disconnected client.
	ErrNotConnected = errors.New("nats: client not connected")

	// ErrConnectionFailed is returned when the initial connection attempt fails.
	ErrConnectionFailed = errors.New("nats: connection failed")

	// ErrProvisionFailed is returned when a stream cannot be created.
	ErrProvisionFailed = errors.New("nats: channel provisioning failed")

	// ErrInvalidChannelName is returned when a channel name is empty or
	// sanitises to nothing.
	ErrInvalidChannelName = errors.New("nats: invalid channel name")
)
