//go:build linux

package transport

import (
	"errors"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

func isI2CTimeout(err error) bool {
	return matchesErrno(err, unix.ETIMEDOUT)
}

func isI2CBusGone(err error) bool {
	return errors.Is(err, os.ErrClosed) || matchesErrno(err, unix.ENODEV, unix.EBADF)
}

// matchesErrno also compares messages because periph formats driver errors with %v.
func matchesErrno(err error, errnos ...unix.Errno) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, errno := range errnos {
		if errors.Is(err, errno) || strings.HasSuffix(msg, errno.Error()) {
			return true
		}
	}

	return false
}
