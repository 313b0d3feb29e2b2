package litepcie

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

// fakeFile is a scripted DeviceFile. Each Read consumes the next entry of
// reads (a nil entry is a zero-byte read); once reads is exhausted every Read
// returns fallback, or zero bytes if fallback is nil. Each Write accepts the
// next entry of writes bytes; once exhausted, writes are accepted whole if
// acceptAll is set and refused (zero bytes) otherwise.
type fakeFile struct {
	mu sync.Mutex

	reads    [][]byte
	fallback []byte
	readErr  error

	writes    []int
	acceptAll bool
	writeErr  error
	written   bytes.Buffer

	readCalls  int
	writeCalls int
	closed     bool
}

func (f *fakeFile) Read(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.readCalls++
	if f.readErr != nil {
		return 0, f.readErr
	}
	if len(f.reads) == 0 {
		return copy(p, f.fallback), nil
	}
	chunk := f.reads[0]
	n := copy(p, chunk)
	if n < len(chunk) {
		f.reads[0] = chunk[n:]
	} else {
		f.reads = f.reads[1:]
	}
	return n, nil
}

func (f *fakeFile) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.writeCalls++
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	n := 0
	if len(f.writes) > 0 {
		n = min(f.writes[0], len(p))
		f.writes = f.writes[1:]
	} else if f.acceptAll {
		n = len(p)
	}
	f.written.Write(p[:n])
	return n, nil
}

func (f *fakeFile) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	return nil
}

func (f *fakeFile) stats() (reads, writes int, written []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.readCalls, f.writeCalls, append([]byte(nil), f.written.Bytes()...)
}

func (f *fakeFile) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

type dmaCall struct {
	endpoint int
	dir      Direction
	size     uint32
}

// fakeDMA records every start and stop request.
type fakeDMA struct {
	mu       sync.Mutex
	starts   []dmaCall
	stops    []dmaCall
	startErr error
	stopErr  error
}

func (d *fakeDMA) Start(control DeviceFile, size uint32, endpoint int, dir Direction) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.startErr != nil {
		return d.startErr
	}
	d.starts = append(d.starts, dmaCall{endpoint: endpoint, dir: dir, size: size})
	return nil
}

func (d *fakeDMA) Stop(control DeviceFile, endpoint int, dir Direction) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stops = append(d.stops, dmaCall{endpoint: endpoint, dir: dir})
	return d.stopErr
}

func (d *fakeDMA) startCount(endpoint int, dir Direction) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return countCalls(d.starts, endpoint, dir)
}

func (d *fakeDMA) stopCount(endpoint int, dir Direction) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return countCalls(d.stops, endpoint, dir)
}

func (d *fakeDMA) lastStart() dmaCall {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.starts[len(d.starts)-1]
}

func countCalls(calls []dmaCall, endpoint int, dir Direction) int {
	n := 0
	for _, c := range calls {
		if c.endpoint == endpoint && c.dir == dir {
			n++
		}
	}
	return n
}

// fakeDevice is a complete set of fake device nodes behind a Connection.
type fakeDevice struct {
	control   *fakeFile
	endpoints [MaxEndpoints]*fakeFile
	dma       *fakeDMA
	clock     *clock.Mock
	missing   map[string]bool
}

func newFakeDevice() *fakeDevice {
	d := &fakeDevice{
		control: &fakeFile{},
		dma:     &fakeDMA{},
		clock:   clock.NewMock(),
		missing: map[string]bool{},
	}
	for i := range d.endpoints {
		d.endpoints[i] = &fakeFile{}
	}
	return d
}

func (d *fakeDevice) open(path string) (DeviceFile, error) {
	if d.missing[path] {
		return nil, fmt.Errorf("open %s: %w", path, os.ErrNotExist)
	}
	if path == DefaultControlPath {
		return d.control, nil
	}
	for i, p := range DefaultEndpointPaths {
		if p == path {
			return d.endpoints[i], nil
		}
	}
	return nil, fmt.Errorf("open %s: %w", path, os.ErrNotExist)
}

func (d *fakeDevice) config() Config {
	cfg := DefaultConfig()
	cfg.OpenFile = d.open
	cfg.DMA = d.dma
	cfg.Clock = d.clock
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return cfg
}

func (d *fakeDevice) connect(t *testing.T) *Connection {
	t.Helper()
	c, err := Open(d.config())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

// drive runs fn in a goroutine and advances the mock clock by step until fn
// returns.
func drive(t *testing.T, mock *clock.Mock, step time.Duration, fn func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	for i := 0; ; i++ {
		select {
		case <-done:
			return
		default:
		}
		if i > 100000 {
			t.Fatal("function did not return while the clock advanced")
		}
		mock.Add(step)
	}
}

func statusWord(v uint32) []byte {
	b := make([]byte, statusWordSize)
	binary.LittleEndian.PutUint32(b, v)
	return b
}
