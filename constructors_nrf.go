//go:build tinygo || baremetal

// This file is built only for embedded targets (using real radio hardware).
package rclink

import (
	"github.com/ystepanoff/rclink/driver/nrf"
	"github.com/ystepanoff/rclink/protocol"
	"github.com/ystepanoff/rclink/transport"
)

// NewReceiver returns a receiver listening on the on-chip radio and a
// transmitter sharing it, configured with cfg.
func NewReceiver(cfg protocol.RadioConfig, opts ...transport.Option) (*transport.LinkReceiver, *transport.Transmitter, error) {
	d := nrf.New()
	src := transport.NewRadioSource(d, nil, nil)
	if err := src.Initialise(cfg); err != nil {
		return nil, nil, err
	}
	return transport.NewLinkReceiver(src, opts...), transport.NewTransmitterWithDriver(d, nil), nil
}
