package api

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/enrollgate/enroll-core/internal/onboarding"
)

// handleRegisterDevice accepts a device self-registration.
//
// Body: {"hardware_id", "tenant_id", "system_info": {"os", "arch", "mac"}}
//
// Responses:
//   - 201: registration accepted, device is pending review
//   - 400: malformed or invalid payload
//   - 409: identity already registered
func (s *Server) handleRegisterDevice(w http.ResponseWriter, r *http.Request) {
	var reg onboarding.Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	device, err := s.engine.Register(r.Context(), reg, clientIP(r))
	if err != nil {
		switch {
		case errors.Is(err, onboarding.ErrInvalidRequest):
			writeValidationError(w, err.Error())
		case errors.Is(err, onboarding.ErrAlreadyRegistered):
			writeConflict(w, ErrCodeConflict, "device already registered")
		default:
			s.logger.Error("device registration failed", "error", err)
			writeInternalError(w, "failed to register device")
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"status":      string(device.Status),
		"hardware_id": device.HardwareID,
		"tenant_id":   device.TenantID,
	})
}

// handleDeviceStatus reports a device's onboarding outcome.
//
// A device polls this endpoint with its own identity. Approved devices
// receive their device ID and channel address; every other state, including
// rejection, reads as pending.
//
// Query parameters:
//   - tenant_id: required, scopes the hardware ID lookup
func (s *Server) handleDeviceStatus(w http.ResponseWriter, r *http.Request) {
	hardwareID := chi.URLParam(r, "hardwareID")
	tenantID := r.URL.Query().Get("tenant_id")
	if tenantID == "" {
		writeBadRequest(w, "tenant_id query parameter is required")
		return
	}

	result, err := s.engine.Status(r.Context(), tenantID, hardwareID, clientIP(r))
	if err != nil {
		if errors.Is(err, onboarding.ErrDeviceNotFound) {
			writeNotFound(w, "device not registered")
			return
		}
		s.logger.Error("device status check failed", "error", err)
		writeInternalError(w, "failed to check device status")
		return
	}

	if result.Approved {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":          string(onboarding.StatusApproved),
			"device_id":       result.DeviceID,
			"channel_address": result.ChannelAddress,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": string(onboarding.StatusPending),
	})
}

// handleListPending returns all devices awaiting an operator decision.
func (s *Server) handleListPending(w http.ResponseWriter, r *http.Request) {
	devices, err := s.engine.ListPending(r.Context())
	if err != nil {
		s.logger.Error("listing pending devices failed", "error", err)
		writeInternalError(w, "failed to list pending devices")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"devices": devices,
		"count":   len(devices),
	})
}

// handleGetDevice returns one device for the operator surface, including
// terminal states and the rejection reason.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "deviceID")

	device, err := s.engine.Get(r.Context(), deviceID)
	if err != nil {
		if errors.Is(err, onboarding.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		s.logger.Error("fetching device failed", "error", err, "device_id", deviceID)
		writeInternalError(w, "failed to fetch device")
		return
	}

	writeJSON(w, http.StatusOK, device)
}

// handleApproveDevice approves a pending device and returns its
// freshly provisioned channel address.
//
// Responses:
//   - 200: approved, body carries the channel address
//   - 404: unknown device ID
//   - 409: device already decided
//   - 502: channel provisioning failed, device left pending
func (s *Server) handleApproveDevice(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "deviceID")

	result, err := s.engine.Approve(r.Context(), deviceID)
	if err != nil {
		switch {
		case errors.Is(err, onboarding.ErrDeviceNotFound):
			writeNotFound(w, "device not found")
		case errors.Is(err, onboarding.ErrNotPending):
			writeConflict(w, ErrCodeInvalidState, "device is not in pending status")
		default:
			s.logger.Error("device approval failed",
				"error", err,
				"device_id", deviceID,
				"operator_id", OperatorID(r.Context()),
			)
			writeError(w, http.StatusBadGateway, ErrCodeInternal, "failed to approve device")
		}
		return
	}

	s.logger.Info("device approved via API",
		"device_id", deviceID,
		"operator_id", OperatorID(r.Context()),
	)
	writeJSON(w, http.StatusOK, result)
}

// handleRejectDevice rejects a pending device with a reason.
//
// Body: {"reason": "..."}
func (s *Server) handleRejectDevice(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "deviceID")

	var body struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.engine.Reject(r.Context(), deviceID, body.Reason); err != nil {
		switch {
		case errors.Is(err, onboarding.ErrInvalidRequest):
			writeValidationError(w, err.Error())
		case errors.Is(err, onboarding.ErrDeviceNotFound):
			writeNotFound(w, "device not found")
		case errors.Is(err, onboarding.ErrNotPending):
			writeConflict(w, ErrCodeInvalidState, "device is not in pending status")
		default:
			s.logger.Error("device rejection failed",
				"error", err,
				"device_id", deviceID,
				"operator_id", OperatorID(r.Context()),
			)
			writeInternalError(w, "failed to reject device")
		}
		return
	}

	s.logger.Info("device rejected via API",
		"device_id", deviceID,
		"operator_id", OperatorID(r.Context()),
	)
	writeJSON(w, http.StatusOK, map[string]any{
		"status": string(onboarding.StatusRejected),
	})
}

// handleDeviceLogs returns the audit trail for a (tenant, hardware)
// identity, newest first. An identity with no history yields an empty list.
//
// Query parameters:
//   - tenant_id: required, scopes the hardware ID lookup
func (s *Server) handleDeviceLogs(w http.ResponseWriter, r *http.Request) {
	hardwareID := chi.URLParam(r, "hardwareID")
	tenantID := r.URL.Query().Get("tenant_id")
	if tenantID == "" {
		writeBadRequest(w, "tenant_id query parameter is required")
		return
	}

	logs, err := s.engine.Logs(r.Context(), tenantID, hardwareID)
	if err != nil {
		s.logger.Error("listing registration logs failed", "error", err)
		writeInternalError(w, "failed to list registration logs")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"logs":  logs,
		"count": len(logs),
	})
}

// clientIP extracts the originating client address, preferring the first
// X-Forwarded-For entry set by a fronting proxy over the socket peer.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if first, _, ok := strings.Cut(forwarded, ","); ok {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(forwarded)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
