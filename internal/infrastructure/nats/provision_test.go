package nats

import (
	"context"
	"errors"
	"testing"
)

func TestStreamName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "separator dots mapped",
			input: "device.HW-4411.acme",
			want:  "device_HW-4411_acme",
		},
		{
			name:  "subject metacharacters stripped",
			input: "device.hw*>.acme",
			want:  "device_hw___acme",
		},
		{
			name:    "empty name",
			input:   "",
			wantErr: true,
		},
		{
			name:    "sanitises to nothing",
			input:   "...",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := streamName(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidChannelName) {
					t.Errorf("streamName(%q) error = %v, want ErrInvalidChannelName", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("streamName(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("streamName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestStreamName_Deterministic(t *testing.T) {
	first, err := streamName("device.HW-4411.acme")
	if err != nil {
		t.Fatalf("streamName() error = %v", err)
	}
	second, err := streamName("device.HW-4411.acme")
	if err != nil {
		t.Fatalf("streamName() error = %v", err)
	}
	if first != second {
		t.Errorf("streamName() not deterministic: %q vs %q", first, second)
	}
}

// Identifiers never contain "_" or ".", so within the space of derived
// channel names the dot-to-underscore mapping must stay collision-free —
// including for identities that only differ in where a hyphen falls.
func TestStreamName_DistinctChannels(t *testing.T) {
	pairs := [][2]string{
		{"device.a-b.c", "device.a.b-c"},
		{"device.edge-4411.acme", "device.edge.4411-acme"},
	}

	for _, p := range pairs {
		first, err := streamName(p[0])
		if err != nil {
			t.Fatalf("streamName(%q) error = %v", p[0], err)
		}
		second, err := streamName(p[1])
		if err != nil {
			t.Fatalf("streamName(%q) error = %v", p[1], err)
		}
		if first == second {
			t.Errorf("streamName(%q) = streamName(%q) = %q, want distinct streams", p[0], p[1], first)
		}
	}
}

func TestClient_NotConnected(t *testing.T) {
	c := &Client{}

	if _, err := c.CreateChannel(context.Background(), "device.HW-4411.acme"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("CreateChannel() error = %v, want ErrNotConnected", err)
	}
	if err := c.DeleteChannel(context.Background(), "channel.device_HW-4411_acme"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("DeleteChannel() error = %v, want ErrNotConnected", err)
	}
	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
}
