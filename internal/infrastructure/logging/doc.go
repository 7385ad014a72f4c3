// Package logging wraps log/slog with the service's conventions: JSON by
// default (text for local development), level filtering from config, and
// service/version fields on every entry. Components take a child logger
// via With("component", ...) so log lines trace back to their origin.
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Info("API server started", "port", 8080)
//
// Never log bearer tokens or JWT secrets; device identities and tenant
// IDs are fine and expected in audit-adjacent messages.
package logging
