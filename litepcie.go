package litepcie

import (
	"errors"
	"fmt"
)

// Version returns the version of the go-litepcie library
func Version() string {
	return "1.0.0"
}

// Error types
var (
	ErrNotConnected        = errors.New("control device not connected")
	ErrEndpointUnavailable = errors.New("endpoint unavailable")
	ErrInvalidEndpoint     = errors.New("invalid endpoint")
	ErrInvalidParameter    = errors.New("invalid parameter")
	ErrInvalidConfig       = errors.New("invalid configuration")
	ErrClosed              = errors.New("connection closed")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrNotSupported        = errors.New("not supported")
)

// MaxEndpoints is the number of streaming endpoints exposed by the device.
const MaxEndpoints = 3

// maxChunkCount caps the DMA buffer at this many packets.
const maxChunkCount = 16

// Direction selects the receive or transmit DMA channel of an endpoint.
type Direction uint8

const (
	DirectionRX Direction = iota
	DirectionTX
)

func (d Direction) String() string {
	switch d {
	case DirectionRX:
		return "rx"
	case DirectionTX:
		return "tx"
	default:
		return fmt.Sprintf("direction(%d)", uint8(d))
	}
}

// chunkCount returns the number of packets the DMA engine buffers for a
// transfer of length bytes, clamped to [1, maxChunkCount].
func chunkCount(length, packetSize int) int {
	n := length / packetSize
	if n < 1 {
		return 1
	}
	if n > maxChunkCount {
		return maxChunkCount
	}
	return n
}
