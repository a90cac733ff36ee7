package protocol

import "time"

// Generic radio & link constants (platform independent). All higher layers should depend on this file.
const (
	// Command packet layout on air:
	//   Throttle(1) | Yaw(1) | Pitch(1) | Roll(1) | Aux1(1) | Aux2(1) | Aux3(1) | Aux4(1)
	// Every field is a raw byte; there is no header, length or checksum, the
	// radio hardware handles addressing and CRC.
	CommandPacketSize = 8

	// Neutral stick position for the centred axes (roll, pitch, yaw).
	NeutralStick = 127

	// Serial frame: CommandPacket | CRC32 (4, little-endian), COBS encoded and
	// terminated by FrameDelimiter.
	CRCSize        = 4
	FrameDelimiter = 0x00
	MaxFrameSize   = 32 + CRCSize

	// RF defaults of the receiver (nRF24L01 compatible).
	DefaultChannel     = 108
	DefaultPipe        = 1
	DefaultPipeAddress = 0xE9E8F0F0E1
	MaxChannel         = 125
	MaxPayloadSize     = 32

	// The link is considered lost when nothing was received for longer than this.
	FailsafeTimeout = 1000 * time.Millisecond
)
