//go:build !linux

package hardware

import "errors"

// AvailableMemory is not implemented on this platform; callers fall back to
// the medium model.
func AvailableMemory() (uint64, error) {
	return 0, errors.New("memory probe unsupported on this platform")
}
