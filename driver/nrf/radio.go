//go:build tinygo || baremetal

package nrf

import (
	proto "github.com/ystepanoff/rclink/protocol"

	"device/nrf"
)

// StartHFCLK starts the high-frequency clock required by the radio.
func StartHFCLK() {
	nrf.CLOCK.EVENTS_HFCLKSTARTED.Set(0)
	nrf.CLOCK.TASKS_HFCLKSTART.Set(1)
	for nrf.CLOCK.EVENTS_HFCLKSTARTED.Get() == 0 {
	}
}

// ConfigureRadio puts the on-chip radio into nRF24L01-compatible mode for
// cfg: static payload length, 5-byte pipe address, no packet header.
func ConfigureRadio(cfg proto.RadioConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	nrf.RADIO.POWER.Set(1)

	switch cfg.DataRate {
	case proto.DataRate250Kbps:
		nrf.RADIO.MODE.Set(nrf.RADIO_MODE_MODE_Nrf_250Kbit)
	case proto.DataRate2Mbps:
		nrf.RADIO.MODE.Set(nrf.RADIO_MODE_MODE_Nrf_2Mbit)
	default:
		nrf.RADIO.MODE.Set(nrf.RADIO_MODE_MODE_Nrf_1Mbit)
	}

	switch cfg.PALevel {
	case proto.PALevelMin:
		nrf.RADIO.TXPOWER.Set(nrf.RADIO_TXPOWER_TXPOWER_Neg12dBm)
	case proto.PALevelLow:
		nrf.RADIO.TXPOWER.Set(nrf.RADIO_TXPOWER_TXPOWER_Neg4dBm)
	case proto.PALevelHigh:
		nrf.RADIO.TXPOWER.Set(nrf.RADIO_TXPOWER_TXPOWER_0dBm)
	default:
		nrf.RADIO.TXPOWER.Set(nrf.RADIO_TXPOWER_TXPOWER_Pos4dBm)
	}

	nrf.RADIO.FREQUENCY.Set(uint32(cfg.Channel))

	regs := pipeAddress(cfg)
	nrf.RADIO.BASE0.Set(regs.Base0)
	nrf.RADIO.BASE1.Set(regs.Base1)
	nrf.RADIO.PREFIX0.Set(regs.Prefix0)
	nrf.RADIO.PREFIX1.Set(regs.Prefix1)
	nrf.RADIO.TXADDRESS.Set(uint32(cfg.Pipe))
	nrf.RADIO.RXADDRESSES.Set(1 << cfg.Pipe)

	nrf.RADIO.PCNF0.Set(0)
	nrf.RADIO.PCNF1.Set(
		(uint32(cfg.PayloadSize) << nrf.RADIO_PCNF1_MAXLEN_Pos) |
			(uint32(cfg.PayloadSize) << nrf.RADIO_PCNF1_STATLEN_Pos) |
			(4 << nrf.RADIO_PCNF1_BALEN_Pos) |
			(nrf.RADIO_PCNF1_ENDIAN_Big << nrf.RADIO_PCNF1_ENDIAN_Pos))

	nrf.RADIO.CRCCNF.Set(uint32(cfg.CRCLength))
	if cfg.CRCLength == 2 {
		nrf.RADIO.CRCINIT.Set(0xFFFF)
		nrf.RADIO.CRCPOLY.Set(0x11021)
	} else {
		nrf.RADIO.CRCINIT.Set(0xFF)
		nrf.RADIO.CRCPOLY.Set(0x107)
	}

	return nil
}
