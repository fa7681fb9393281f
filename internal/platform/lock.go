package platform

import (
	"errors"
	"strings"
)

// ErrInstanceAlreadyRunning indicates another process already owns the app instance lock.
var ErrInstanceAlreadyRunning = errors.New("instance already running")

// ErrDeviceBusy indicates another process holds the lock for the same device.
var ErrDeviceBusy = errors.New("device is in use by another instance")

// ErrLockUnsupported indicates the current platform has no lock backend implementation.
var ErrLockUnsupported = errors.New("process lock unsupported")

// Lock represents an acquired inter-process lock.
type Lock interface {
	Release() error
}

// AcquireInstanceLock claims the single GUI instance for appID.
func AcquireInstanceLock(appID string) (Lock, error) {
	lock, err := acquireNamedLock(normalizeLockComponent(appID, "app"), "instance")
	if errors.Is(err, errLockHeld) {
		return nil, ErrInstanceAlreadyRunning
	}

	return lock, err
}

// AcquireDeviceLock claims resource (a port path, CAN channel or I2C bus address) for this process.
func AcquireDeviceLock(appID, resource string) (Lock, error) {
	lock, err := acquireNamedLock(normalizeLockComponent(appID, "app"), "device-"+normalizeLockComponent(resource, "device"))
	if errors.Is(err, errLockHeld) {
		return nil, ErrDeviceBusy
	}

	return lock, err
}

var errLockHeld = errors.New("lock held by another process")

func normalizeLockComponent(raw, fallback string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}

	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	normalized := strings.Trim(b.String(), "_-.")
	if normalized == "" {
		return fallback
	}

	return normalized
}
