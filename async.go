package litepcie

import (
	"time"
)

// asyncTransferTimeout bounds the synchronous transfer behind each
// AsyncTransfer.
const asyncTransferTimeout = 3 * time.Second

// AsyncTransfer adapts Receive and Send to a begin/wait/finish transfer API.
//
// The engine underneath is synchronous, so the two directions differ:
// BeginReceive only records the endpoint and FinishReceive does the read,
// while BeginSend performs the whole write and FinishSend reports its
// result. Wait always reports ready.
type AsyncTransfer struct {
	endpoint int
	n        int
	err      error
}

// Endpoint returns the endpoint the transfer targets.
func (t *AsyncTransfer) Endpoint() int {
	return t.endpoint
}

// BeginReceive returns a transfer handle for endpoint. No I/O happens until
// FinishReceive.
func (c *Connection) BeginReceive(buf []byte, endpoint int) *AsyncTransfer {
	return &AsyncTransfer{endpoint: endpoint}
}

// WaitReceiveReady always returns true.
func (c *Connection) WaitReceiveReady(t *AsyncTransfer, timeout time.Duration) bool {
	return true
}

// FinishReceive reads into buf from the transfer's endpoint, waiting at most
// three seconds.
func (c *Connection) FinishReceive(buf []byte, t *AsyncTransfer) (int, error) {
	if t == nil {
		return 0, ErrInvalidParameter
	}
	return c.Receive(buf, t.endpoint, asyncTransferTimeout)
}

// BeginSend writes buf to endpoint immediately, waiting at most three
// seconds, and returns a handle holding the result.
func (c *Connection) BeginSend(buf []byte, endpoint int) *AsyncTransfer {
	t := &AsyncTransfer{endpoint: endpoint}
	t.n, t.err = c.Send(buf, endpoint, asyncTransferTimeout)
	return t
}

// WaitSendReady always returns true.
func (c *Connection) WaitSendReady(t *AsyncTransfer, timeout time.Duration) bool {
	return true
}

// FinishSend returns the result of the write performed by BeginSend.
func (c *Connection) FinishSend(buf []byte, t *AsyncTransfer) (int, error) {
	if t == nil {
		return 0, ErrInvalidParameter
	}
	return t.n, t.err
}
