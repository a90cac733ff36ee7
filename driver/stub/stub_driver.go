//go:build !tinygo && !baremetal

package stub

import (
	"sync"

	"github.com/ystepanoff/rclink/driver/ring"
	proto "github.com/ystepanoff/rclink/protocol"
)

// Driver implements a mock radio driver for host-side testing
type Driver struct {
	mu       sync.Mutex
	cfg      proto.RadioConfig
	loopback bool

	rxBuf *ring.Buffer
	txBuf *ring.Buffer
}

// New returns a driver whose receive queue is fed only through InjectRx.
func New() *Driver {
	return &Driver{rxBuf: ring.New(ring.DefaultCapacity), txBuf: ring.New(ring.DefaultCapacity)}
}

// NewLoopback returns a driver that also receives everything it writes.
func NewLoopback() *Driver {
	d := New()
	d.loopback = true
	return d
}

func (d *Driver) Configure(cfg proto.RadioConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	d.mu.Lock()
	d.cfg = cfg
	d.mu.Unlock()
	return nil
}

// Config returns the last configuration applied.
func (d *Driver) Config() proto.RadioConfig {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg
}

func (d *Driver) Available() bool { return d.rxBuf.Len() > 0 }

func (d *Driver) Read(buf []byte) (int, error) {
	frame, ok := d.rxBuf.Pop()
	if !ok {
		return 0, nil
	}
	if len(frame) > len(buf) {
		return 0, proto.ErrInvalidPayload
	}
	return copy(buf, frame), nil
}

func (d *Driver) Write(data []byte) error {
	if len(data) > proto.MaxPayloadSize {
		return proto.ErrInvalidPayload
	}
	d.txBuf.Push(data)
	if d.loopback {
		d.rxBuf.Push(data)
	}
	return nil
}

// InjectRx queues data as if it had been received over the air.
func (d *Driver) InjectRx(data []byte) { d.rxBuf.Push(data) }

// GetTxLog returns the most recent transmitted payloads, oldest first.
func (d *Driver) GetTxLog() [][]byte { return d.txBuf.Snapshot() }

// Dropped returns how many received payloads were lost to queue overflow.
func (d *Driver) Dropped() uint64 { return d.rxBuf.Dropped() }
