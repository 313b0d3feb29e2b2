package litepcie

// DeviceFile is an open handle to a LitePCIe character device.
//
// Unlike io.Reader, a Read or Write that returns (0, nil) means the device
// is not ready yet, not end of stream. Callers poll until data moves or
// their deadline passes.
type DeviceFile interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
}

// OpenFunc opens the device file at path for reading and writing.
type OpenFunc func(path string) (DeviceFile, error)
