package litepcie

// DMAEngine starts and stops the DMA channels of the device. Both calls are
// issued through the control handle. Implementations need not be idempotent:
// Connection never starts an armed channel or stops an unarmed one.
type DMAEngine interface {
	Start(control DeviceFile, size uint32, endpoint int, dir Direction) error
	Stop(control DeviceFile, endpoint int, dir Direction) error
}

// fder is implemented by device files that expose a raw descriptor.
type fder interface {
	Fd() uintptr
}
