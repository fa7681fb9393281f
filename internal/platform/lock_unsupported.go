//go:build !unix && !windows

package platform

import (
	"fmt"
	"runtime"
)

func acquireNamedLock(_, _ string) (Lock, error) {
	return nil, fmt.Errorf("%w on %s", ErrLockUnsupported, runtime.GOOS)
}
