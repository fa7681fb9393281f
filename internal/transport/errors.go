package transport

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotConnected is wrapped by ConnectionError when send/receive is called on a closed transport.
var ErrNotConnected = errors.New("transport is not connected")

// ConnectionError reports an unavailable resource, a missing connection or an unresponsive device.
type ConnectionError struct {
	Op       string
	Resource string
	Err      error
}

func (e *ConnectionError) Error() string {
	return formatError("connection", e.Op, e.Resource, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// TimeoutError reports a write that exceeded its deadline. Read timeouts are not errors.
type TimeoutError struct {
	Op       string
	Resource string
	Err      error
}

func (e *TimeoutError) Error() string {
	return formatError("timeout", e.Op, e.Resource, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// IOError reports a transport-level read or write fault other than a timeout.
type IOError struct {
	Op       string
	Resource string
	Err      error
}

func (e *IOError) Error() string {
	return formatError("io", e.Op, e.Resource, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// ConfigError reports malformed construction parameters. It is always returned before any I/O.
type ConfigError struct {
	Field string
	Value string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("config: %v", e.Err)
	}
	if e.Value == "" {
		return fmt.Sprintf("config: %s: %v", e.Field, e.Err)
	}

	return fmt.Sprintf("config: %s=%q: %v", e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func IsConnectionError(err error) bool {
	var target *ConnectionError
	return errors.As(err, &target)
}

func IsTimeoutError(err error) bool {
	var target *TimeoutError
	return errors.As(err, &target)
}

func IsIOError(err error) bool {
	var target *IOError
	return errors.As(err, &target)
}

func IsConfigError(err error) bool {
	var target *ConfigError
	return errors.As(err, &target)
}

func formatError(class, op, resource string, err error) string {
	msg := class
	if op != "" {
		msg += " " + op
	}
	if resource != "" {
		msg += " " + resource
	}
	if err != nil {
		msg += ": " + err.Error()
	}

	return msg
}

func notConnected(op, resource string) error {
	return &ConnectionError{Op: op, Resource: resource, Err: ErrNotConnected}
}

// writeError classifies a failed write. Expired caller deadlines are timeouts.
func writeError(resource string, err error, timeout func(error) bool) error {
	if errors.Is(err, context.DeadlineExceeded) || (timeout != nil && timeout(err)) {
		return &TimeoutError{Op: "send", Resource: resource, Err: err}
	}

	return &IOError{Op: "send", Resource: resource, Err: err}
}
