//go:build !linux

package transport

func isCANQueueFull(error) bool {
	return false
}
