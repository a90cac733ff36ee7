package protocol

import "errors"

var (
	ErrInvalidPayload  = errors.New("invalid payload size")
	ErrInvalidChannel  = errors.New("invalid channel (valid range: 0-125)")
	ErrInvalidDataRate = errors.New("invalid data rate")
	ErrInvalidPALevel  = errors.New("invalid PA level")
	ErrBadCRC          = errors.New("frame CRC mismatch")
	ErrBadFrame        = errors.New("malformed frame")
)
