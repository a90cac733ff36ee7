package protocol

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

// Frames carry radio payloads over byte streams (the serial bridge to a USB
// transceiver). Layout before COBS stuffing:
//
//	Payload(1-32) | CRC32(4, little-endian, over payload)
//
// On the wire the stuffed frame is followed by FrameDelimiter.

// EncodeFrame appends the CRC to payload and COBS-encodes the result,
// including the trailing delimiter.
func EncodeFrame(payload []byte) []byte {
	if len(payload) > MaxPayloadSize {
		payload = payload[:MaxPayloadSize]
	}
	raw := make([]byte, len(payload)+CRCSize)
	copy(raw, payload)
	binary.LittleEndian.PutUint32(raw[len(payload):], crc32.ChecksumIEEE(payload))

	out := CobsEncode(raw)
	return append(out, FrameDelimiter)
}

// DecodeFrame reverses EncodeFrame. frame must not include the delimiter.
func DecodeFrame(frame []byte) ([]byte, error) {
	raw, err := CobsDecode(frame)
	if err != nil {
		return nil, err
	}
	if len(raw) <= CRCSize || len(raw) > MaxFrameSize {
		return nil, fmt.Errorf("%w: %d bytes after unstuffing", ErrBadFrame, len(raw))
	}

	payload := raw[:len(raw)-CRCSize]
	recv := binary.LittleEndian.Uint32(raw[len(payload):])
	if calc := crc32.ChecksumIEEE(payload); calc != recv {
		return nil, fmt.Errorf("%w: got %08x, want %08x", ErrBadCRC, recv, calc)
	}

	out := make([]byte, len(payload))
	copy(out, payload)
	return out, nil
}
