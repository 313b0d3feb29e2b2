package litepcie

import (
	"errors"
	"fmt"
	"time"
)

// Receive reads len(buf) bytes from endpoint into buf, or as many as arrive
// before timeout elapses.
//
// The endpoint's receive DMA channel is started on first use, sized from
// len(buf), and stays armed until AbortReceive or ResetAll. A short count
// with a nil error means the deadline passed; it is not a failure. A read
// error ends the transfer and is returned with the bytes read so far.
func (c *Connection) Receive(buf []byte, endpoint int, timeout time.Duration) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := c.endpointFile(endpoint)
	if err != nil {
		return 0, err
	}
	if err := c.arm(endpoint, DirectionRX, len(buf)); err != nil {
		return 0, err
	}

	n, err := c.transfer(f.Read, buf, c.cfg.ReceiveBackoff, timeout)
	if err != nil {
		c.metrics.ioError("receive")
		c.metrics.transferred(endpoint, DirectionRX, n, n)
		return n, fmt.Errorf("receive on endpoint %d: %w", endpoint, err)
	}
	c.metrics.transferred(endpoint, DirectionRX, n, len(buf))
	return n, nil
}

// Send writes buf to endpoint, stopping early if timeout elapses.
//
// Arming and the returned count follow the same rules as Receive.
func (c *Connection) Send(buf []byte, endpoint int, timeout time.Duration) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := c.endpointFile(endpoint)
	if err != nil {
		return 0, err
	}
	if err := c.arm(endpoint, DirectionTX, len(buf)); err != nil {
		return 0, err
	}

	n, err := c.transfer(f.Write, buf, c.cfg.SendBackoff, timeout)
	if err != nil {
		c.metrics.ioError("send")
		c.metrics.transferred(endpoint, DirectionTX, n, n)
		return n, fmt.Errorf("send on endpoint %d: %w", endpoint, err)
	}
	c.metrics.transferred(endpoint, DirectionTX, n, len(buf))
	return n, nil
}

// transfer calls op on the unfilled tail of buf until buf is done or timeout
// has elapsed since entry. A zero-byte op means the device is not ready and
// is followed by a backoff sleep.
func (c *Connection) transfer(op func([]byte) (int, error), buf []byte, backoff, timeout time.Duration) (int, error) {
	start := c.clock.Now()
	total := 0
	for total < len(buf) {
		n, err := op(buf[total:])
		if err != nil {
			return total, err
		}
		if n == 0 {
			c.clock.Sleep(backoff)
		} else {
			total += n
		}
		if total < len(buf) && c.clock.Since(start) >= timeout {
			break
		}
	}
	return total, nil
}

// AbortReceive stops the endpoint's receive DMA channel if it is armed.
func (c *Connection) AbortReceive(endpoint int) error {
	return c.abort(endpoint, DirectionRX)
}

// AbortTransmit stops the endpoint's transmit DMA channel if it is armed.
func (c *Connection) AbortTransmit(endpoint int) error {
	return c.abort(endpoint, DirectionTX)
}

func (c *Connection) abort(endpoint int, dir Direction) error {
	if endpoint < 0 || endpoint >= MaxEndpoints {
		return fmt.Errorf("%w: %d", ErrInvalidEndpoint, endpoint)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrClosed
	}
	return c.disarm(endpoint, dir)
}

// ResetAll stops every armed DMA channel on every endpoint. Every channel
// ends up unarmed even if some stop requests fail; the failures are joined.
func (c *Connection) ResetAll() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrClosed
	}

	var errs []error
	for i := range c.endpoints {
		for _, dir := range []Direction{DirectionTX, DirectionRX} {
			if err := c.disarm(i, dir); err != nil {
				errs = append(errs, err)
			}
		}
	}
	c.logger.Info("reset LitePCIe stream buffers", "errors", len(errs))
	return errors.Join(errs...)
}

// Armed reports whether the endpoint's DMA channel in direction dir is armed.
func (c *Connection) Armed(endpoint int, dir Direction) bool {
	if endpoint < 0 || endpoint >= MaxEndpoints {
		return false
	}
	return c.channel(endpoint, dir).armed()
}

func (c *Connection) channel(endpoint int, dir Direction) *channel {
	ep := &c.endpoints[endpoint]
	if dir == DirectionTX {
		return &ep.tx
	}
	return &ep.rx
}

// endpointFile returns the endpoint's handle. The caller must hold c.mu.
func (c *Connection) endpointFile(endpoint int) (DeviceFile, error) {
	if c.closed {
		return nil, ErrClosed
	}
	if endpoint < 0 || endpoint >= MaxEndpoints {
		return nil, fmt.Errorf("%w: %d", ErrInvalidEndpoint, endpoint)
	}
	f := c.endpoints[endpoint].file
	if f == nil {
		return nil, fmt.Errorf("endpoint %d: %w", endpoint, ErrEndpointUnavailable)
	}
	return f, nil
}

// arm starts the DMA channel unless it is already armed. The DMA buffer
// holds chunkCount(length) packets. The caller must hold c.mu.
func (c *Connection) arm(endpoint int, dir Direction, length int) error {
	ch := c.channel(endpoint, dir)
	if !ch.tryArm() {
		return nil
	}
	if c.control == nil {
		ch.state.Store(int32(unarmed))
		return ErrNotConnected
	}

	size := chunkCount(length, c.cfg.PacketSize) * c.cfg.PacketSize
	if err := c.dma.Start(c.control, uint32(size), endpoint, dir); err != nil {
		ch.state.Store(int32(unarmed))
		c.metrics.ioError("dma_start")
		return fmt.Errorf("start %s DMA on endpoint %d: %w", dir, endpoint, err)
	}
	c.metrics.dmaStarted(endpoint, dir)
	c.logger.Debug("armed DMA channel", "endpoint", endpoint, "direction", dir, "size", size)
	return nil
}

// disarm stops the DMA channel if it is armed. The caller must hold c.mu.
func (c *Connection) disarm(endpoint int, dir Direction) error {
	ch := c.channel(endpoint, dir)
	if !ch.tryDisarm() {
		return nil
	}

	if err := c.dma.Stop(c.control, endpoint, dir); err != nil {
		c.metrics.ioError("dma_stop")
		return fmt.Errorf("stop %s DMA on endpoint %d: %w", dir, endpoint, err)
	}
	c.metrics.dmaStopped(endpoint, dir)
	c.logger.Debug("disarmed DMA channel", "endpoint", endpoint, "direction", dir)
	return nil
}
