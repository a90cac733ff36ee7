//go:build !tinygo && !baremetal

// This file is built only for non-embedded targets (host-based testing).
package rclink

import (
	"github.com/ystepanoff/rclink/driver/stub"
	"github.com/ystepanoff/rclink/protocol"
	"github.com/ystepanoff/rclink/transport"
)

// NewReceiver returns a receiver listening on a loopback stub radio together
// with a transmitter on the same stub, configured with cfg.
func NewReceiver(cfg protocol.RadioConfig, opts ...transport.Option) (*transport.LinkReceiver, *transport.Transmitter, error) {
	d := stub.NewLoopback()
	src := transport.NewRadioSource(d, nil, nil)
	if err := src.Initialise(cfg); err != nil {
		return nil, nil, err
	}
	return transport.NewLinkReceiver(src, opts...), transport.NewTransmitterWithDriver(d, nil), nil
}
