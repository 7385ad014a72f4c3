package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/enrollgate/enroll-core/internal/infrastructure/config"
)

func TestNew(t *testing.T) {
	configs := []config.LoggingConfig{
		{Level: "info", Format: "json", Output: "stdout"},
		{Level: "debug", Format: "text", Output: "stderr"},
		{Level: "nonsense", Format: "nonsense", Output: "nonsense"},
	}

	for _, cfg := range configs {
		if logger := New(cfg, "1.0.0"); logger == nil {
			t.Errorf("New(%+v) returned nil", cfg)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestLogger_With(t *testing.T) {
	parent := Default()
	child := parent.With("component", "api")

	if child == nil {
		t.Fatal("With() returned nil")
	}
	if child == parent {
		t.Error("With() returned the parent logger, want a new one")
	}
}

// Entries must carry the service defaults plus the call-site attributes,
// since downstream filtering keys on the service field.
func TestLogger_DefaultFields(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}).
		WithAttrs([]slog.Attr{
			slog.String("service", "enrollgate"),
			slog.String("version", "test"),
		})
	logger := &Logger{Logger: slog.New(handler)}

	logger.Info("device approved", "device_id", "dev-1")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("parsing log output: %v", err)
	}
	if entry["service"] != "enrollgate" {
		t.Errorf("service = %v, want enrollgate", entry["service"])
	}
	if entry["version"] != "test" {
		t.Errorf("version = %v, want test", entry["version"])
	}
	if entry["msg"] != "device approved" {
		t.Errorf("msg = %v, want %q", entry["msg"], "device approved")
	}
	if entry["device_id"] != "dev-1" {
		t.Errorf("device_id = %v, want dev-1", entry["device_id"])
	}
}
