package app

import (
	"fmt"
	"strings"

	"github.com/tunelink/tunelink/internal/events"
	"github.com/tunelink/tunelink/internal/session"
	"github.com/tunelink/tunelink/internal/transport"
)

// TransportDisplayName renders a transport name the way the protocol selector shows it.
func TransportDisplayName(name string) string {
	switch transport.Kind(strings.ToLower(strings.TrimSpace(name))) {
	case transport.KindUART:
		return "UART"
	case transport.KindRS485:
		return "RS485"
	case transport.KindCAN:
		return "CAN"
	case transport.KindI2C:
		return "I2C"
	default:
		if value := strings.TrimSpace(name); value != "" {
			return value
		}
		return "unknown"
	}
}

func ConnectionStatusFromSession(st session.Status) events.ConnectionStatus {
	status := events.ConnectionStatus{
		TransportName: st.Transport,
		Target:        st.Resource,
		Timestamp:     st.At,
	}
	switch st.State {
	case session.StateConnected:
		status.State = events.ConnectionStateConnected
	case session.StateConnecting:
		status.State = events.ConnectionStateConnecting
	default:
		status.State = events.ConnectionStateDisconnected
	}
	if st.Err != nil {
		status.Err = st.Err.Error()
	}

	return status
}

// StatusLine is the one-line status shown next to the connect button and written to the journal.
func StatusLine(status events.ConnectionStatus) string {
	name := TransportDisplayName(status.TransportName)
	target := strings.TrimSpace(status.Target)
	if target != "" {
		name = fmt.Sprintf("%s %s", name, target)
	}

	switch status.State {
	case events.ConnectionStateConnected:
		return "Connected to " + name
	case events.ConnectionStateConnecting:
		return "Connecting to " + name + "..."
	default:
		if errText := strings.TrimSpace(status.Err); errText != "" {
			return fmt.Sprintf("Disconnected from %s (error: %s)", name, errText)
		}
		if status.TransportName == "" && target == "" {
			return "Disconnected"
		}
		return "Disconnected from " + name
	}
}
