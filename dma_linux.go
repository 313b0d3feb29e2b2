package litepcie

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	// _IOW('S', 20, struct litepcie_ioctl_dma_start)
	LITEPCIE_IOCTL_DMA_START = 0x40105314
	// _IOW('S', 21, struct litepcie_ioctl_dma_stop)
	LITEPCIE_IOCTL_DMA_STOP = 0x40085315
)

type litepcieDMAStart struct {
	Endpoint  uint32
	Direction uint32
	Size      uint32
	Reserved  uint32
}

type litepcieDMAStop struct {
	Endpoint  uint32
	Direction uint32
}

// IoctlDMA drives the DMA engine through LITEPCIE_IOCTL_DMA_* requests on
// the control descriptor.
type IoctlDMA struct{}

func (IoctlDMA) Start(control DeviceFile, size uint32, endpoint int, dir Direction) error {
	fd, err := controlFd(control)
	if err != nil {
		return err
	}
	req := litepcieDMAStart{
		Endpoint:  uint32(endpoint),
		Direction: uint32(dir),
		Size:      size,
	}
	return ioctl(fd, LITEPCIE_IOCTL_DMA_START, unsafe.Pointer(&req))
}

func (IoctlDMA) Stop(control DeviceFile, endpoint int, dir Direction) error {
	fd, err := controlFd(control)
	if err != nil {
		return err
	}
	req := litepcieDMAStop{
		Endpoint:  uint32(endpoint),
		Direction: uint32(dir),
	}
	return ioctl(fd, LITEPCIE_IOCTL_DMA_STOP, unsafe.Pointer(&req))
}

func controlFd(control DeviceFile) (uintptr, error) {
	f, ok := control.(fder)
	if !ok {
		return 0, fmt.Errorf("dma ioctl on %T: %w", control, ErrNotSupported)
	}
	return f.Fd(), nil
}

func ioctl(fd uintptr, request uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, request, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}
