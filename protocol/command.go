package protocol

import "fmt"

// CommandPacket is one complete set of stick and switch positions sent by the
// transmitter. Field order matches the on-air layout.
type CommandPacket struct {
	Throttle byte
	Yaw      byte
	Pitch    byte
	Roll     byte
	Aux1     byte
	Aux2     byte
	Aux3     byte
	Aux4     byte
}

// FailsafePacket returns the packet substituted while the link is down:
// centred sticks, zero throttle, all switches off.
func FailsafePacket() CommandPacket {
	return CommandPacket{
		Roll:     NeutralStick,
		Pitch:    NeutralStick,
		Yaw:      NeutralStick,
		Throttle: 0,
	}
}

// IsFailsafe reports whether p equals the failsafe packet.
func (p CommandPacket) IsFailsafe() bool { return p == FailsafePacket() }

func (p CommandPacket) String() string {
	return fmt.Sprintf("thr=%d yaw=%d pitch=%d roll=%d aux=[%d %d %d %d]",
		p.Throttle, p.Yaw, p.Pitch, p.Roll, p.Aux1, p.Aux2, p.Aux3, p.Aux4)
}

// EncodeCommand serialises p into its 8-byte on-air form.
func EncodeCommand(p CommandPacket) []byte {
	return []byte{p.Throttle, p.Yaw, p.Pitch, p.Roll, p.Aux1, p.Aux2, p.Aux3, p.Aux4}
}

// DecodeCommand parses an on-air payload. Anything that is not exactly
// CommandPacketSize bytes is rejected.
func DecodeCommand(data []byte) (CommandPacket, error) {
	if len(data) != CommandPacketSize {
		return CommandPacket{}, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidPayload, len(data), CommandPacketSize)
	}
	return CommandPacket{
		Throttle: data[0],
		Yaw:      data[1],
		Pitch:    data[2],
		Roll:     data[3],
		Aux1:     data[4],
		Aux2:     data[5],
		Aux3:     data[6],
		Aux4:     data[7],
	}, nil
}
