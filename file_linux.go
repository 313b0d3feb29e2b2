package litepcie

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// fdFile is a DeviceFile backed by a raw blocking file descriptor. The
// descriptor bypasses os.File so that a zero-byte read is reported as
// "not ready" instead of io.EOF.
type fdFile struct {
	fd   int
	path string
}

// OpenDeviceFile opens path O_RDWR and returns it as a DeviceFile.
func OpenDeviceFile(path string) (DeviceFile, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		if err == unix.EACCES || err == unix.EPERM {
			return nil, fmt.Errorf("open %s: %w", path, ErrPermissionDenied)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &fdFile{fd: fd, path: path}, nil
}

func (f *fdFile) Read(p []byte) (int, error) {
	n, err := unix.Read(f.fd, p)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EINTR {
			return 0, nil
		}
		return 0, fmt.Errorf("read %s: %w", f.path, err)
	}
	return n, nil
}

func (f *fdFile) Write(p []byte) (int, error) {
	n, err := unix.Write(f.fd, p)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EINTR {
			return 0, nil
		}
		return 0, fmt.Errorf("write %s: %w", f.path, err)
	}
	return n, nil
}

func (f *fdFile) Close() error {
	if f.fd < 0 {
		return nil
	}
	err := unix.Close(f.fd)
	f.fd = -1
	return err
}

// Fd returns the underlying file descriptor, used for DMA ioctls.
func (f *fdFile) Fd() uintptr {
	return uintptr(f.fd)
}
