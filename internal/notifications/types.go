package notifications

import (
	"fmt"
	"strings"
)

// Payload is one desktop notification.
type Payload struct {
	Title   string
	Content string
}

// Normalized trims both fields. ok is false when nothing is left to show.
func (p Payload) Normalized() (Payload, bool) {
	out := Payload{
		Title:   strings.TrimSpace(p.Title),
		Content: strings.TrimSpace(p.Content),
	}

	return out, out.Title != "" || out.Content != ""
}

// SessionLost describes a device session that ended on a failure.
func SessionLost(transportName, target, cause string) Payload {
	details := strings.TrimSpace(target)
	if details == "" {
		details = "No connection details"
	}
	content := details
	if cause = strings.TrimSpace(cause); cause != "" {
		content = fmt.Sprintf("%s (error: %s)", details, cause)
	}

	return Payload{
		Title:   fmt.Sprintf("%s connection lost", strings.TrimSpace(transportName)),
		Content: content,
	}
}

// Sender delivers notifications through a platform backend.
type Sender interface {
	Send(payload Payload)
}

// SenderFunc adapts a plain function to Sender.
type SenderFunc func(Payload)

func (f SenderFunc) Send(payload Payload) {
	if f != nil {
		f(payload)
	}
}
