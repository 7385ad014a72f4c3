package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
//
// The public surface carries no credentials: devices identify themselves by
// payload, and the status/logs lookups key on the (tenant, hardware)
// identity. Everything that mutates lifecycle state or reads operator data
// sits behind JWT auth.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// Device-facing endpoints (no auth required)
		r.Post("/devices/register", s.handleRegisterDevice)
		r.Get("/devices/status/{hardwareID}", s.handleDeviceStatus)

		// Operator endpoints
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Get("/devices/pending", s.handleListPending)
			r.Get("/devices/logs/{hardwareID}", s.handleDeviceLogs)
			r.Get("/devices/{deviceID}", s.handleGetDevice)
			r.Put("/devices/{deviceID}/approve", s.handleApproveDevice)
			r.Put("/devices/{deviceID}/reject", s.handleRejectDevice)
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
