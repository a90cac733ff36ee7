package nrf

import proto "github.com/ystepanoff/rclink/protocol"

// addressRegisters holds the RADIO address register values for one pipe.
type addressRegisters struct {
	Base0, Base1     uint32
	Prefix0, Prefix1 uint32
}

// pipeAddress splits the pipe address into base and prefix registers. The
// logical address number equals the pipe: 0 uses BASE0 with PREFIX0.AP0,
// 1-3 use BASE1 with PREFIX0.AP1-AP3 and 4-5 use BASE1 with PREFIX1.AP4-AP5.
func pipeAddress(cfg proto.RadioConfig) addressRegisters {
	addr := cfg.AddressBytes()
	base := uint32(addr[0]) | uint32(addr[1])<<8 | uint32(addr[2])<<16 | uint32(addr[3])<<24
	prefix := uint32(addr[4])

	var r addressRegisters
	switch {
	case cfg.Pipe == 0:
		r.Base0 = base
		r.Prefix0 = prefix
	case cfg.Pipe < 4:
		r.Base1 = base
		r.Prefix0 = prefix << (8 * uint32(cfg.Pipe))
	default:
		r.Base1 = base
		r.Prefix1 = prefix << (8 * uint32(cfg.Pipe-4))
	}
	return r
}
