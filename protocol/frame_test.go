package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"testing"
)

func TestFrameEncoding(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
	}{
		{
			name:    "command packet",
			payload: EncodeCommand(CommandPacket{Throttle: 10, Yaw: 127, Pitch: 127, Roll: 127}),
		},
		{
			name:    "payload with zeros",
			payload: []byte{0, 0, 0, 0, 0, 0, 0, 0},
		},
		{
			name:    "maximum payload",
			payload: bytes.Repeat([]byte{0xAA}, MaxPayloadSize),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := EncodeFrame(tt.payload)

			// Delimiter only at the very end
			if encoded[len(encoded)-1] != FrameDelimiter {
				t.Fatalf("last byte = %#x, want delimiter", encoded[len(encoded)-1])
			}
			if i := bytes.IndexByte(encoded, FrameDelimiter); i != len(encoded)-1 {
				t.Fatalf("delimiter found at %d inside frame of %d bytes", i, len(encoded))
			}

			raw, err := CobsDecode(encoded[:len(encoded)-1])
			if err != nil {
				t.Fatalf("CobsDecode() error = %v", err)
			}
			if len(raw) != len(tt.payload)+CRCSize {
				t.Fatalf("unstuffed size = %d, want %d", len(raw), len(tt.payload)+CRCSize)
			}

			gotCRC := binary.LittleEndian.Uint32(raw[len(tt.payload):])
			if want := crc32.ChecksumIEEE(tt.payload); gotCRC != want {
				t.Errorf("CRC = %08x, want %08x", gotCRC, want)
			}
		})
	}
}

func TestFrameRoundTrip(t *testing.T) {
	payload := EncodeCommand(CommandPacket{Throttle: 200, Yaw: 1, Pitch: 0, Roll: 255, Aux1: 1, Aux4: 1})

	encoded := EncodeFrame(payload)
	decoded, err := DecodeFrame(encoded[:len(encoded)-1])
	if err != nil {
		t.Fatalf("DecodeFrame() error = %v", err)
	}
	if !bytes.Equal(decoded, payload) {
		t.Errorf("DecodeFrame() = %v, want %v", decoded, payload)
	}
}

func TestDecodeInvalidFrames(t *testing.T) {
	valid := EncodeFrame([]byte{1, 2, 3, 4, 5, 6, 7, 8})
	valid = valid[:len(valid)-1]

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{
			name:    "nil data",
			data:    nil,
			wantErr: ErrBadFrame,
		},
		{
			name:    "truncated cobs",
			data:    []byte{0x05, 0x01},
			wantErr: ErrBadFrame,
		},
		{
			name:    "crc only",
			data:    CobsEncode([]byte{1, 2, 3, 4}),
			wantErr: ErrBadFrame,
		},
		{
			name:    "oversized",
			data:    CobsEncode(bytes.Repeat([]byte{0x11}, MaxFrameSize+1)),
			wantErr: ErrBadFrame,
		},
		{
			name: "corrupt CRC",
			data: func() []byte {
				raw, _ := CobsDecode(valid)
				raw[len(raw)-1] ^= 0xFF
				return CobsEncode(raw)
			}(),
			wantErr: ErrBadCRC,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := DecodeFrame(tt.data)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("DecodeFrame() error = %v, want %v", err, tt.wantErr)
			}
			if decoded != nil {
				t.Errorf("DecodeFrame() = %v, want nil for invalid frame", decoded)
			}
		})
	}
}

func TestFrameSizeLimit(t *testing.T) {
	encoded := EncodeFrame(bytes.Repeat([]byte{0xAA}, MaxPayloadSize*2))

	decoded, err := DecodeFrame(encoded[:len(encoded)-1])
	if err != nil {
		t.Fatalf("DecodeFrame() error = %v", err)
	}
	if len(decoded) != MaxPayloadSize {
		t.Errorf("decoded payload size = %v, want %v", len(decoded), MaxPayloadSize)
	}
}
