package events

import "time"

// ConnectionState describes the session lifecycle state shown in UI.
type ConnectionState string

const (
	ConnectionStateDisconnected ConnectionState = "disconnected"
	ConnectionStateConnecting   ConnectionState = "connecting"
	ConnectionStateConnected    ConnectionState = "connected"
)

// ConnectionStatus is a bus event snapshot of the current session status.
type ConnectionStatus struct {
	State         ConnectionState
	Err           string
	TransportName string
	Target        string
	Timestamp     time.Time
}

// Direction tells whether a frame was received from or sent to the device.
type Direction string

const (
	DirectionIn  Direction = "rx"
	DirectionOut Direction = "tx"
)

// RawFrame carries one received or sent payload for log views and the journal.
type RawFrame struct {
	Direction     Direction
	TransportName string
	Target        string
	Text          string
	Hex           string
	Len           int
	Timestamp     time.Time
}

// ErrorEvent carries a receive-path failure as a human-readable message.
type ErrorEvent struct {
	TransportName string
	Target        string
	Message       string
	Timestamp     time.Time
}
