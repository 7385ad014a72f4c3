package onboarding

import (
	"fmt"
	"regexp"
)

// Field length limits. Identities become part of channel names, so they are
// bounded and restricted to a safe character set.
const (
	maxIdentifierLength = 128
	maxSystemInfoLength = 64
	maxReasonLength     = 512
)

// identifierPattern matches hardware and tenant identifiers. Dots and
// underscores are excluded on purpose: the channel name derived from an
// identity uses "." as its part separator and the messaging layer maps "."
// to "_", so admitting either character would let two distinct identities
// derive the same channel.
var identifierPattern = regexp.MustCompile(`^[a-zA-Z0-9-]+$`)

// ValidateRegistration checks a registration payload.
// Returns an error wrapping ErrInvalidRequest describing the first problem found.
func ValidateRegistration(r Registration) error {
	if err := validateIdentifier("hardware_id", r.HardwareID); err != nil {
		return err
	}
	if err := validateIdentifier("tenant_id", r.TenantID); err != nil {
		return err
	}
	if err := validateSystemField("system_info.os", r.SystemInfo.OS); err != nil {
		return err
	}
	if err := validateSystemField("system_info.arch", r.SystemInfo.Arch); err != nil {
		return err
	}
	if err := validateSystemField("system_info.mac", r.SystemInfo.MAC); err != nil {
		return err
	}
	return nil
}

// ValidateRejectionReason checks the operator-supplied rejection reason.
func ValidateRejectionReason(reason string) error {
	if reason == "" {
		return fmt.Errorf("%w: reason is required", ErrInvalidRequest)
	}
	if len(reason) > maxReasonLength {
		return fmt.Errorf("%w: reason exceeds %d characters", ErrInvalidRequest, maxReasonLength)
	}
	return nil
}

func validateIdentifier(field, value string) error {
	if value == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidRequest, field)
	}
	if len(value) > maxIdentifierLength {
		return fmt.Errorf("%w: %s exceeds %d characters", ErrInvalidRequest, field, maxIdentifierLength)
	}
	if !identifierPattern.MatchString(value) {
		return fmt.Errorf("%w: %s contains invalid characters", ErrInvalidRequest, field)
	}
	return nil
}

func validateSystemField(field, value string) error {
	if value == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidRequest, field)
	}
	if len(value) > maxSystemInfoLength {
		return fmt.Errorf("%w: %s exceeds %d characters", ErrInvalidRequest, field, maxSystemInfoLength)
	}
	return nil
}
