package transport

import (
	"errors"
	"log/slog"

	proto "github.com/ystepanoff/rclink/protocol"
)

// RadioSource adapts a RadioDriver to a PacketSource. Payloads that do not
// decode as a CommandPacket are dropped here and never reach the receiver.
type RadioSource struct {
	driver   RadioDriver
	logger   *slog.Logger
	observer Observer
	buf      [proto.MaxPayloadSize]byte
	rejected uint64
}

func NewRadioSource(d RadioDriver, logger *slog.Logger, obs Observer) *RadioSource {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if obs == nil {
		obs = NopObserver{}
	}
	return &RadioSource{
		driver:   d,
		logger:   logger.With("component", "radio_source"),
		observer: obs,
	}
}

// Initialise configures the driver for listening.
func (s *RadioSource) Initialise(cfg proto.RadioConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	return s.driver.Configure(cfg)
}

// maxSkipsPerReceive bounds how many malformed payloads one TryReceive
// discards, so a driver stuck reporting Available cannot spin the cycle.
const maxSkipsPerReceive = 256

// TryReceive returns the next well-formed packet, skipping malformed ones.
// Only a driver fault ends the poll early.
func (s *RadioSource) TryReceive() (proto.CommandPacket, bool) {
	for skipped := 0; skipped < maxSkipsPerReceive && s.driver.Available(); skipped++ {
		n, err := s.driver.Read(s.buf[:])
		if errors.Is(err, proto.ErrInvalidPayload) {
			s.reject("oversize", "err", err)
			continue
		}
		if err != nil {
			s.reject("read_error", "err", err)
			return proto.CommandPacket{}, false
		}
		pkt, err := proto.DecodeCommand(s.buf[:n])
		if err != nil {
			s.reject("bad_size", "size", n)
			continue
		}
		return pkt, true
	}
	return proto.CommandPacket{}, false
}

// Rejected returns how many payloads were dropped so far.
func (s *RadioSource) Rejected() uint64 { return s.rejected }

func (s *RadioSource) reject(reason string, attrs ...any) {
	s.rejected++
	s.observer.PacketRejected(reason)
	s.logger.Warn("dropping radio payload", append([]any{"reason", reason}, attrs...)...)
}
