// Package rclink provides a façade over the receiver-side link supervision
// and channel decoding layers.
package rclink

import (
	"github.com/ystepanoff/rclink/channel"
	"github.com/ystepanoff/rclink/protocol"
	"github.com/ystepanoff/rclink/transport"
)

// The actual constructors are split into build-tag specific files:
// - constructors_nrf.go - for embedded platforms (//go:build tinygo || baremetal)
// - constructors_host.go - for development/testing (//go:build !tinygo && !baremetal)

// Re-exported types
type (
	CommandPacket = protocol.CommandPacket
	RadioConfig   = protocol.RadioConfig
	ChannelOutput = channel.Output
	LinkReceiver  = transport.LinkReceiver
	LinkStatus    = transport.LinkStatus
	Transmitter   = transport.Transmitter
)

// Error constants exposed in the public API
var (
	ErrInvalidPayload = protocol.ErrInvalidPayload
	ErrInvalidChannel = protocol.ErrInvalidChannel
)

// Constants exposed in the public API
const (
	LinkDown = transport.LinkDown
	LinkUp   = transport.LinkUp

	FailsafeTimeout = protocol.FailsafeTimeout
)

// FailsafePacket returns the packet used while the link is down.
func FailsafePacket() CommandPacket { return protocol.FailsafePacket() }

// MapChannels converts a packet to pulse widths.
func MapChannels(p CommandPacket) ChannelOutput { return channel.Map(p) }

// DefaultRadioConfig returns the receiver's standard radio setup.
func DefaultRadioConfig() RadioConfig { return protocol.DefaultRadioConfig() }
