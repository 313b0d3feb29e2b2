package litepcie

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
)

// statusWordSize is the size of the control channel status word.
const statusWordSize = 4

// statusReadyMask selects the status bits that signal a pending response.
const statusReadyMask = 0xFF00

type channelState int32

const (
	unarmed channelState = iota
	armed
)

// channel tracks whether one DMA direction of an endpoint is armed.
type channel struct {
	state atomic.Int32
}

func (ch *channel) armed() bool {
	return channelState(ch.state.Load()) == armed
}

// tryArm moves the channel from unarmed to armed and reports whether this
// caller made the transition.
func (ch *channel) tryArm() bool {
	return ch.state.CompareAndSwap(int32(unarmed), int32(armed))
}

// tryDisarm moves the channel from armed to unarmed and reports whether this
// caller made the transition.
func (ch *channel) tryDisarm() bool {
	return ch.state.CompareAndSwap(int32(armed), int32(unarmed))
}

type endpoint struct {
	file DeviceFile
	rx   channel
	tx   channel
}

// Connection is a streaming connection to a LitePCIe device: one control
// handle for commands and MaxEndpoints endpoint handles for sample data.
//
// Different endpoints may be used from different goroutines at the same
// time. Transfers on the same endpoint and direction must be serialized by
// the caller.
type Connection struct {
	cfg     Config
	dma     DMAEngine
	clock   clock.Clock
	logger  *slog.Logger
	metrics *Metrics

	mu        sync.RWMutex
	control   DeviceFile
	connected bool
	closed    bool
	endpoints [MaxEndpoints]endpoint
}

// Open opens the control device and every endpoint device named by cfg.
//
// A device node that fails to open does not fail Open: a missing control
// node leaves the connection not connected (see IsOpen), and a missing
// endpoint node makes that endpoint return ErrEndpointUnavailable. Open
// only returns an error for an invalid cfg.
func Open(cfg Config) (*Connection, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withCollaborators()

	c := &Connection{
		cfg:     cfg,
		dma:     cfg.DMA,
		clock:   cfg.Clock,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
	}

	control, err := cfg.OpenFile(cfg.ControlPath)
	if err != nil {
		c.logger.Error("failed to open LitePCIe control device", "path", cfg.ControlPath, "error", err)
		c.metrics.ioError("open")
	} else {
		c.control = control
		c.connected = true
	}

	for i, path := range cfg.EndpointPaths {
		if path == "" {
			continue
		}
		f, err := cfg.OpenFile(path)
		if err != nil {
			c.logger.Warn("failed to open LitePCIe endpoint", "endpoint", i, "path", path, "error", err)
			c.metrics.ioError("open")
			continue
		}
		c.endpoints[i].file = f
	}

	return c, nil
}

// IsOpen reports whether the control device opened. It says nothing about
// the endpoints.
func (c *Connection) IsOpen() bool {
	return c.connected
}

// EndpointAvailable reports whether the endpoint's device node is open.
func (c *Connection) EndpointAvailable(endpoint int) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed || endpoint < 0 || endpoint >= MaxEndpoints {
		return false
	}
	return c.endpoints[endpoint].file != nil
}

// Close releases the control handle and every endpoint handle. Armed DMA
// channels are left running; call ResetAll first to stop them. Closing an
// already closed connection is a no-op.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	var errs []error
	if c.control != nil {
		errs = append(errs, c.control.Close())
		c.control = nil
	}
	for i := range c.endpoints {
		ep := &c.endpoints[i]
		if ep.file != nil {
			errs = append(errs, ep.file.Close())
			ep.file = nil
		}
	}
	return errors.Join(errs...)
}

// BuffersCount returns how many transfers may be in flight per channel.
// The synchronous engine only ever has one.
func (c *Connection) BuffersCount() int {
	return 1
}

// CheckStreamSize returns the stream buffer size the connection will use
// for a requested size. PCIe imposes no rounding, so it is unchanged.
func (c *Connection) CheckStreamSize(size int) int {
	return size
}

// controlFile returns the control handle. The caller must hold c.mu.
func (c *Connection) controlFile() (DeviceFile, error) {
	if c.closed {
		return nil, ErrClosed
	}
	if c.control == nil {
		return nil, ErrNotConnected
	}
	return c.control, nil
}

// SendCommand writes buf to the control device in a single write and
// returns the number of bytes the device accepted.
func (c *Connection) SendCommand(buf []byte) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	control, err := c.controlFile()
	if err != nil {
		return 0, err
	}

	c.metrics.command()
	n, err := control.Write(buf)
	if err != nil {
		c.metrics.ioError("command_write")
		return n, fmt.Errorf("write command: %w", err)
	}
	return n, nil
}

// ReceiveResponse waits for the control status word to signal a pending
// response, then reads up to len(buf) bytes of it.
//
// The status word is polled every StatusPollInterval. If no response is
// signalled within timeout, ReceiveResponse returns (0, nil).
func (c *Connection) ReceiveResponse(buf []byte, timeout time.Duration) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	control, err := c.controlFile()
	if err != nil {
		return 0, err
	}

	var status [statusWordSize]byte
	start := c.clock.Now()
	for {
		n, err := control.Read(status[:])
		if err != nil {
			c.metrics.ioError("status_read")
			return 0, fmt.Errorf("read status: %w", err)
		}
		if n == statusWordSize && responseReady(binary.LittleEndian.Uint32(status[:])) {
			break
		}
		c.clock.Sleep(c.cfg.StatusPollInterval)
		if c.clock.Since(start) >= timeout {
			return 0, nil
		}
	}

	n, err := control.Read(buf)
	if err != nil {
		c.metrics.ioError("response_read")
		return n, fmt.Errorf("read response: %w", err)
	}
	return n, nil
}

func responseReady(status uint32) bool {
	return status&statusReadyMask != 0
}
