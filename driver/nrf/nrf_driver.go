//go:build tinygo || baremetal

package nrf

import (
	"unsafe"

	proto "github.com/ystepanoff/rclink/protocol"

	"device/nrf"
)

// Driver provides a RadioDriver backed by the real NRF peripheral registers.
// Between calls the radio is left in RX so Available only has to look at the
// END event.
type Driver struct {
	buffer      [proto.MaxPayloadSize]byte
	payloadSize int
	listening   bool
}

func New() *Driver { return &Driver{payloadSize: proto.CommandPacketSize} }

func (d *Driver) Configure(cfg proto.RadioConfig) error {
	StartHFCLK()
	d.disable()
	if err := ConfigureRadio(cfg); err != nil {
		return err
	}
	d.payloadSize = int(cfg.PayloadSize)
	d.startRx()
	return nil
}

// Available reports whether a packet with a valid CRC is waiting. Packets
// failing the CRC are discarded and reception restarted.
func (d *Driver) Available() bool {
	if !d.listening || nrf.RADIO.EVENTS_END.Get() == 0 {
		return false
	}
	if nrf.RADIO.CRCSTATUS.Get() != nrf.RADIO_CRCSTATUS_CRCSTATUS_CRCOk {
		d.restartRx()
		return false
	}
	return true
}

func (d *Driver) Read(buf []byte) (int, error) {
	if !d.Available() {
		return 0, nil
	}
	if len(buf) < d.payloadSize {
		d.restartRx()
		return 0, proto.ErrInvalidPayload
	}
	n := copy(buf, d.buffer[:d.payloadSize])
	d.restartRx()
	return n, nil
}

func (d *Driver) Write(data []byte) error {
	if len(data) > d.payloadSize {
		return proto.ErrInvalidPayload
	}
	d.disable()

	copy(d.buffer[:], data)
	nrf.RADIO.PACKETPTR.Set(uint32(uintptr(unsafe.Pointer(&d.buffer[0]))))
	nrf.RADIO.EVENTS_READY.Set(0)
	nrf.RADIO.EVENTS_END.Set(0)
	nrf.RADIO.TASKS_TXEN.Set(1)
	for nrf.RADIO.EVENTS_READY.Get() == 0 {
	}
	nrf.RADIO.TASKS_START.Set(1)
	for nrf.RADIO.EVENTS_END.Get() == 0 {
	}

	d.disable()
	d.startRx()
	return nil
}

func (d *Driver) startRx() {
	nrf.RADIO.PACKETPTR.Set(uint32(uintptr(unsafe.Pointer(&d.buffer[0]))))
	nrf.RADIO.EVENTS_READY.Set(0)
	nrf.RADIO.EVENTS_END.Set(0)
	nrf.RADIO.TASKS_RXEN.Set(1)
	for nrf.RADIO.EVENTS_READY.Get() == 0 {
	}
	nrf.RADIO.TASKS_START.Set(1)
	d.listening = true
}

// restartRx arms the radio for the next packet; after END it idles in RX.
func (d *Driver) restartRx() {
	nrf.RADIO.EVENTS_END.Set(0)
	nrf.RADIO.TASKS_START.Set(1)
}

func (d *Driver) disable() {
	d.listening = false
	nrf.RADIO.EVENTS_DISABLED.Set(0)
	nrf.RADIO.TASKS_DISABLE.Set(1)
	for nrf.RADIO.STATE.Get() != nrf.RADIO_STATE_STATE_Disabled {
	}
}
