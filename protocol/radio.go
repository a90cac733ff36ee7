package protocol

import "fmt"

// DataRate is the on-air bit rate of the radio.
type DataRate uint8

const (
	DataRate250Kbps DataRate = iota
	DataRate1Mbps
	DataRate2Mbps
)

func (r DataRate) String() string {
	switch r {
	case DataRate250Kbps:
		return "250kbps"
	case DataRate1Mbps:
		return "1mbps"
	case DataRate2Mbps:
		return "2mbps"
	}
	return fmt.Sprintf("DataRate(%d)", uint8(r))
}

// ParseDataRate accepts the String() forms.
func ParseDataRate(s string) (DataRate, error) {
	for _, r := range []DataRate{DataRate250Kbps, DataRate1Mbps, DataRate2Mbps} {
		if r.String() == s {
			return r, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidDataRate, s)
}

// PALevel is the power amplifier setting.
type PALevel uint8

const (
	PALevelMin PALevel = iota
	PALevelLow
	PALevelHigh
	PALevelMax
)

func (l PALevel) String() string {
	switch l {
	case PALevelMin:
		return "min"
	case PALevelLow:
		return "low"
	case PALevelHigh:
		return "high"
	case PALevelMax:
		return "max"
	}
	return fmt.Sprintf("PALevel(%d)", uint8(l))
}

// ParsePALevel accepts the String() forms.
func ParsePALevel(s string) (PALevel, error) {
	for _, l := range []PALevel{PALevelMin, PALevelLow, PALevelHigh, PALevelMax} {
		if l.String() == s {
			return l, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidPALevel, s)
}

// RadioConfig is everything a driver needs to start listening for command
// packets. Address is the 40-bit pipe address.
type RadioConfig struct {
	Address     uint64
	Pipe        uint8
	Channel     uint8
	DataRate    DataRate
	PALevel     PALevel
	CRCLength   uint8 // bytes, 0 disables
	AutoAck     bool
	PayloadSize uint8
}

// DefaultRadioConfig mirrors the receiver set-up the transmitters are paired
// against: pipe 1 at 0xE9E8F0F0E1, channel 108, 250kbps, max power, 8-bit
// CRC, no auto-ack.
func DefaultRadioConfig() RadioConfig {
	return RadioConfig{
		Address:     DefaultPipeAddress,
		Pipe:        DefaultPipe,
		Channel:     DefaultChannel,
		DataRate:    DataRate250Kbps,
		PALevel:     PALevelMax,
		CRCLength:   1,
		AutoAck:     false,
		PayloadSize: CommandPacketSize,
	}
}

func (c RadioConfig) Validate() error {
	if c.Channel > MaxChannel {
		return ErrInvalidChannel
	}
	if c.PayloadSize == 0 || c.PayloadSize > MaxPayloadSize {
		return fmt.Errorf("%w: payload size %d outside 1-%d", ErrInvalidPayload, c.PayloadSize, MaxPayloadSize)
	}
	if c.DataRate > DataRate2Mbps {
		return ErrInvalidDataRate
	}
	if c.PALevel > PALevelMax {
		return ErrInvalidPALevel
	}
	if c.Pipe > 5 {
		return fmt.Errorf("pipe %d: must be 0-5", c.Pipe)
	}
	if c.CRCLength > 2 {
		return fmt.Errorf("crc length %d: must be 0, 1 or 2", c.CRCLength)
	}
	if c.Address>>40 != 0 {
		return fmt.Errorf("pipe address %#x wider than 40 bits", c.Address)
	}
	return nil
}

// AddressBytes returns the pipe address least-significant byte first, the
// order the transceiver registers expect.
func (c RadioConfig) AddressBytes() [5]byte {
	var out [5]byte
	for i := range out {
		out[i] = byte(c.Address >> (8 * i))
	}
	return out
}
