package influxdb_test

import (
	"errors"
	"testing"

	"github.com/enrollgate/enroll-core/internal/infrastructure/config"
	"github.com/enrollgate/enroll-core/internal/infrastructure/influxdb"
)

// testConfig returns a configuration for the local dev InfluxDB.
func testConfig() config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           "http://127.0.0.1:8086",
		Token:         "enrollgate-dev-token",
		Org:           "enrollgate",
		Bucket:        "metrics",
		BatchSize:     100,
		FlushInterval: 1,
	}
}

func TestConnect_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false

	_, err := influxdb.Connect(cfg)
	if err == nil {
		t.Fatal("Connect() should return error when disabled")
	}
	if !errors.Is(err, influxdb.ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_InvalidURL(t *testing.T) {
	cfg := testConfig()
	cfg.URL = "http://127.0.0.1:59999" // Non-existent port

	_, err := influxdb.Connect(cfg)
	if err == nil {
		t.Fatal("Connect() should return error for unreachable server")
	}
	if !errors.Is(err, influxdb.ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestClose_Nil(t *testing.T) {
	// Closing a zero-value client must not panic.
	var client influxdb.Client
	if err := client.Close(); err != nil {
		t.Errorf("Close() on zero-value client error = %v", err)
	}
}

func TestRecordLifecycleEvent_Disconnected(t *testing.T) {
	// A zero-value (never connected) client drops the point silently.
	var client influxdb.Client
	client.RecordLifecycleEvent("register", "acme")
}
