// Package channel converts command packets into actuator pulse widths.
package channel

import (
	"strconv"
	"strings"

	"github.com/ystepanoff/rclink/protocol"
)

// Pulse-width range of every output channel, in microseconds.
const (
	MinPulse = 1000
	MaxPulse = 2000
)

// Output channel indices. The order is fixed: downstream stages address
// channels by position.
const (
	Roll = iota
	Pitch
	Throttle
	Yaw
	Aux1
	Aux2
	Aux3
	Aux4

	NumChannels
)

var names = [NumChannels]string{"roll", "pitch", "throttle", "yaw", "aux1", "aux2", "aux3", "aux4"}

// Name returns the lower-case name of channel index i.
func Name(i int) string {
	if i < 0 || i >= NumChannels {
		return "ch" + strconv.Itoa(i+1)
	}
	return names[i]
}

// Output holds one pulse width per channel, each within [MinPulse, MaxPulse].
type Output [NumChannels]int

// String renders the widths space separated, ch1 first.
func (o Output) String() string {
	var b strings.Builder
	for i, w := range o {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.Itoa(w))
	}
	return b.String()
}

// Map converts p to pulse widths. It has no state and is safe for concurrent use.
//
// Sticks and throttle span the full byte range. Aux switches are defined on
// [0,1]; larger bytes extend the same line and saturate at MaxPulse.
func Map(p protocol.CommandPacket) Output {
	return Output{
		Roll:     stick(p.Roll),
		Pitch:    stick(p.Pitch),
		Throttle: stick(p.Throttle),
		Yaw:      stick(p.Yaw),
		Aux1:     aux(p.Aux1),
		Aux2:     aux(p.Aux2),
		Aux3:     aux(p.Aux3),
		Aux4:     aux(p.Aux4),
	}
}

func stick(v byte) int {
	return Rescale(int(v), 0, 255, MinPulse, MaxPulse)
}

func aux(v byte) int {
	return Clamp(Rescale(int(v), 0, 1, MinPulse, MaxPulse), MinPulse, MaxPulse)
}

// Rescale maps in from [inMin, inMax] onto [outMin, outMax] along the same
// line, rounding the exact result half up. Inputs outside the domain are
// extrapolated. An empty domain (inMin == inMax) maps everything to outMin.
func Rescale(in, inMin, inMax, outMin, outMax int) int {
	if inMin == inMax {
		return outMin
	}
	num := (in - inMin) * (outMax - outMin)
	den := inMax - inMin
	if den < 0 {
		num, den = -num, -den
	}
	return outMin + floorDiv(2*num+den, 2*den)
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
