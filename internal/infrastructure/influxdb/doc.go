// Package influxdb provides InfluxDB connectivity for Enrollgate Core.
//
// It wraps the official influxdb-client-go v2 library with connection
// management, health monitoring, and the onboarding lifecycle-metrics sink.
//
// # Purpose
//
// This package records time-series data for:
//   - Onboarding lifecycle events (registrations, approvals, rejections)
//   - Per-tenant activity volume
//
// The sink is optional; when disabled in configuration the service runs
// without metrics.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.RecordLifecycleEvent("register", "acme")
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are delivered via a
// callback set with SetOnError. Connection and health check errors are
// returned directly.
package influxdb
