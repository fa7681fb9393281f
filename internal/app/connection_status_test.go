package app

import (
	"errors"
	"testing"
	"time"

	"github.com/tunelink/tunelink/internal/events"
	"github.com/tunelink/tunelink/internal/session"
)

func TestTransportDisplayName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "uart", in: "uart", want: "UART"},
		{name: "rs485", in: "RS485", want: "RS485"},
		{name: "can", in: "can", want: "CAN"},
		{name: "i2c", in: " i2c ", want: "I2C"},
		{name: "unknown", in: "spi", want: "spi"},
		{name: "empty", in: "", want: "unknown"},
	}

	for _, tc := range tests {
		if got := TransportDisplayName(tc.in); got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}

func TestConnectionStatusFromSession(t *testing.T) {
	at := time.Now()
	status := ConnectionStatusFromSession(session.Status{
		State:     session.StateDisconnected,
		Transport: "can",
		Resource:  "can0",
		Err:       errors.New("network is down"),
		At:        at,
	})

	if status.State != events.ConnectionStateDisconnected {
		t.Fatalf("unexpected state %q", status.State)
	}
	if status.TransportName != "can" || status.Target != "can0" || status.Err != "network is down" || !status.Timestamp.Equal(at) {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestStatusLine(t *testing.T) {
	tests := []struct {
		name   string
		status events.ConnectionStatus
		want   string
	}{
		{
			name:   "connected",
			status: events.ConnectionStatus{State: events.ConnectionStateConnected, TransportName: "uart", Target: "/dev/ttyUSB0"},
			want:   "Connected to UART /dev/ttyUSB0",
		},
		{
			name:   "connecting",
			status: events.ConnectionStatus{State: events.ConnectionStateConnecting, TransportName: "i2c", Target: "i2c-1@0x42"},
			want:   "Connecting to I2C i2c-1@0x42...",
		},
		{
			name:   "failure",
			status: events.ConnectionStatus{State: events.ConnectionStateDisconnected, TransportName: "rs485", Target: "COM3", Err: "io receive COM3: device removed"},
			want:   "Disconnected from RS485 COM3 (error: io receive COM3: device removed)",
		},
		{
			name:   "initial",
			status: events.ConnectionStatus{State: events.ConnectionStateDisconnected},
			want:   "Disconnected",
		},
	}

	for _, tc := range tests {
		if got := StatusLine(tc.status); got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}
