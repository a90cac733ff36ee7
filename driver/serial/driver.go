// Package serial drives a USB radio bridge: a microcontroller with an
// nRF24L01 that forwards every received payload over a serial port.
//
// Both directions use protocol frames (COBS, CRC32, 0x00 delimiter).
// Bridge-to-host frames carry a raw radio payload. Host-to-bridge frames
// start with a command byte: CmdConfigure followed by the radio settings, or
// CmdTransmit followed by a payload to send.
package serial

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	goserial "go.bug.st/serial"

	"github.com/ystepanoff/rclink/driver/ring"
	proto "github.com/ystepanoff/rclink/protocol"
)

const (
	CmdConfigure = 'C'
	CmdTransmit  = 'T'

	// Longest stuffed frame the bridge can legitimately send.
	maxStuffedFrame = proto.MaxFrameSize + proto.MaxFrameSize/254 + 1
)

// Driver implements transport.RadioDriver on top of a serial port. Frames are
// read by a background goroutine into a bounded queue, so Available and Read
// never block.
type Driver struct {
	port   SerialPorter
	logger *slog.Logger
	rx     *ring.Buffer

	writeMu sync.Mutex

	badFrames atomic.Uint64
	onBad     func(error)

	startOnce sync.Once
	done      chan struct{}
	err       error
}

// Option configures a Driver.
type Option func(*Driver)

// WithBadFrameHook registers fn to be called for every frame that fails to
// decode.
func WithBadFrameHook(fn func(error)) Option {
	return func(d *Driver) { d.onBad = fn }
}

// WithQueueSize sets the receive queue capacity.
func WithQueueSize(n int) Option {
	return func(d *Driver) { d.rx = ring.New(n) }
}

// New wraps an already open port.
func New(port SerialPorter, logger *slog.Logger, opts ...Option) *Driver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	d := &Driver{
		port:   port,
		logger: logger.With("component", "serial_bridge"),
		rx:     ring.New(ring.DefaultCapacity),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Open opens the serial port at path and wraps it.
func Open(path string, opts PortOptions, logger *slog.Logger, dopts ...Option) (*Driver, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}

	port, err := goserial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	return New(port, logger, dopts...), nil
}

// Start launches the reader goroutine. The port is closed when ctx is done.
func (d *Driver) Start(ctx context.Context) {
	d.startOnce.Do(func() {
		go func() {
			select {
			case <-ctx.Done():
				_ = d.port.Close()
			case <-d.done:
			}
		}()
		go func() {
			err := d.readLoop()
			if ctx.Err() != nil {
				err = ctx.Err()
			}
			d.err = err
			close(d.done)
		}()
	})
}

// Done is closed when the reader goroutine exits.
func (d *Driver) Done() <-chan struct{} { return d.done }

// Err returns why the reader stopped. Valid after Done is closed.
func (d *Driver) Err() error {
	select {
	case <-d.done:
		return d.err
	default:
		return nil
	}
}

func (d *Driver) readLoop() error {
	chunk := make([]byte, 256)
	frame := make([]byte, 0, maxStuffedFrame)
	discarding := false

	for {
		n, err := d.port.Read(chunk)
		for _, b := range chunk[:n] {
			if b == proto.FrameDelimiter {
				if !discarding && len(frame) > 0 {
					d.handleFrame(frame)
				}
				frame = frame[:0]
				discarding = false
				continue
			}
			if discarding {
				continue
			}
			if len(frame) == maxStuffedFrame {
				d.bad(fmt.Errorf("%w: no delimiter within %d bytes", proto.ErrBadFrame, maxStuffedFrame))
				frame = frame[:0]
				discarding = true
				continue
			}
			frame = append(frame, b)
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

func (d *Driver) handleFrame(frame []byte) {
	payload, err := proto.DecodeFrame(frame)
	if err != nil {
		d.bad(err)
		return
	}
	d.rx.Push(payload)
}

func (d *Driver) bad(err error) {
	d.badFrames.Add(1)
	d.logger.Warn("dropping serial frame", "err", err)
	if d.onBad != nil {
		d.onBad(err)
	}
}

// BadFrames returns how many frames failed to decode.
func (d *Driver) BadFrames() uint64 { return d.badFrames.Load() }

// Configure sends the radio settings to the bridge.
func (d *Driver) Configure(cfg proto.RadioConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	addr := cfg.AddressBytes()
	autoAck := byte(0)
	if cfg.AutoAck {
		autoAck = 1
	}
	msg := []byte{CmdConfigure}
	msg = append(msg, addr[:]...)
	msg = append(msg, cfg.Pipe, cfg.Channel, byte(cfg.DataRate), byte(cfg.PALevel), cfg.CRCLength, autoAck, cfg.PayloadSize)

	d.logger.Info("configuring bridge", "channel", cfg.Channel, "rate", cfg.DataRate.String(), "pa", cfg.PALevel.String())
	return d.send(msg)
}

func (d *Driver) Available() bool { return d.rx.Len() > 0 }

func (d *Driver) Read(buf []byte) (int, error) {
	payload, ok := d.rx.Pop()
	if !ok {
		return 0, nil
	}
	if len(payload) > len(buf) {
		return 0, proto.ErrInvalidPayload
	}
	return copy(buf, payload), nil
}

// Write asks the bridge to transmit data.
func (d *Driver) Write(data []byte) error {
	if len(data) > proto.MaxPayloadSize-1 {
		return proto.ErrInvalidPayload
	}
	return d.send(append([]byte{CmdTransmit}, data...))
}

func (d *Driver) send(msg []byte) error {
	frame := proto.EncodeFrame(msg)

	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	n, err := d.port.Write(frame)
	if err != nil {
		return fmt.Errorf("serial write: %w", err)
	}
	if n != len(frame) {
		return fmt.Errorf("serial write: short write %d/%d", n, len(frame))
	}
	return nil
}

// Close closes the underlying port.
func (d *Driver) Close() error { return d.port.Close() }
