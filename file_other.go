//go:build !linux

package litepcie

import "fmt"

// OpenDeviceFile is only implemented on Linux, where the LitePCIe driver lives.
func OpenDeviceFile(path string) (DeviceFile, error) {
	return nil, fmt.Errorf("open %s: %w", path, ErrNotSupported)
}
