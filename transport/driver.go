package transport

import proto "github.com/ystepanoff/rclink/protocol"

// RadioDriver is the interface that wraps the basic radio operations.
//
// Available and Read must not block: Available reports whether a received
// payload is waiting and Read copies the oldest one into buf, returning its
// length. Read on an empty driver returns 0, nil.
type RadioDriver interface {
	Configure(cfg proto.RadioConfig) error
	Available() bool
	Read(buf []byte) (int, error)
	Write(data []byte) error
}
