package transport

import (
	"log/slog"
	"sync"
	"time"

	proto "github.com/ystepanoff/rclink/protocol"
)

// Transmitter sends command packets over a radio driver. It is the
// counterpart of LinkReceiver, used for bench testing and the loopback demo.
type Transmitter struct {
	driver RadioDriver
	logger *slog.Logger

	mu   sync.Mutex
	sent uint64
}

func NewTransmitterWithDriver(d RadioDriver, logger *slog.Logger) *Transmitter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Transmitter{driver: d, logger: logger.With("component", "transmitter")}
}

func (t *Transmitter) Initialise(cfg proto.RadioConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	return t.driver.Configure(cfg)
}

// Send transmits one packet.
func (t *Transmitter) Send(p proto.CommandPacket) error {
	if err := t.driver.Write(proto.EncodeCommand(p)); err != nil {
		return err
	}
	t.mu.Lock()
	t.sent++
	t.mu.Unlock()
	return nil
}

// Sent returns the number of packets transmitted successfully.
func (t *Transmitter) Sent() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sent
}

// StartStream sends next() every interval until stop is closed or next
// reports false. It returns immediately; done is closed when streaming ends.
func (t *Transmitter) StartStream(interval time.Duration, next func() (proto.CommandPacket, bool), stop <-chan struct{}) (done <-chan struct{}) {
	ch := make(chan struct{})
	go func() {
		defer close(ch)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				p, ok := next()
				if !ok {
					t.logger.Info("stream finished", "sent", t.Sent())
					return
				}
				if err := t.Send(p); err != nil {
					t.logger.Warn("send failed", "err", err)
				}
			}
		}
	}()
	return ch
}
