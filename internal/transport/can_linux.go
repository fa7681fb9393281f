//go:build linux

package transport

import (
	"errors"

	"golang.org/x/sys/unix"
)

// isCANQueueFull reports the qdisc rejecting a frame because the tx queue is full.
func isCANQueueFull(err error) bool {
	return errors.Is(err, unix.ENOBUFS)
}
