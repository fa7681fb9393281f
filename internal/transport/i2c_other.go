//go:build !linux

package transport

import (
	"errors"
	"os"
)

func isI2CTimeout(error) bool {
	return false
}

func isI2CBusGone(err error) bool {
	return errors.Is(err, os.ErrClosed)
}
