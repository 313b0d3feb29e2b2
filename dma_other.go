//go:build !linux

package litepcie

// IoctlDMA drives the DMA engine through driver ioctls. Only Linux has them.
type IoctlDMA struct{}

func (IoctlDMA) Start(control DeviceFile, size uint32, endpoint int, dir Direction) error {
	return ErrNotSupported
}

func (IoctlDMA) Stop(control DeviceFile, endpoint int, dir Direction) error {
	return ErrNotSupported
}
