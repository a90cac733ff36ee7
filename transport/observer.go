package transport

// Observer receives link events for instrumentation. Implementations must
// be cheap; they run inside the supervision cycle.
type Observer interface {
	// CycleCompleted is called once per UpdateCycle with the number of
	// packets drained from the source (only the last one is kept).
	CycleCompleted(status LinkStatus, drained int)
	// LinkChanged is called on every LINK_UP/LINK_DOWN edge.
	LinkChanged(status LinkStatus)
	// PacketRejected is called by RadioSource for payloads that never reach
	// the receiver.
	PacketRejected(reason string)
}

// NopObserver ignores every event. Embed it to implement a subset.
type NopObserver struct{}

func (NopObserver) CycleCompleted(LinkStatus, int) {}
func (NopObserver) LinkChanged(LinkStatus)         {}
func (NopObserver) PacketRejected(string)          {}
