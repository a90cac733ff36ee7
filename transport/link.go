package transport

import (
	"log/slog"
	"time"

	"github.com/ystepanoff/rclink/channel"
	proto "github.com/ystepanoff/rclink/protocol"
)

// PacketSource yields received command packets in arrival order.
// TryReceive must return immediately; ok is false when nothing is queued.
type PacketSource interface {
	TryReceive() (pkt proto.CommandPacket, ok bool)
}

// LinkStatus is the supervision state of the radio link.
type LinkStatus uint8

const (
	LinkDown LinkStatus = iota
	LinkUp
)

func (s LinkStatus) String() string {
	if s == LinkUp {
		return "up"
	}
	return "down"
}

// LinkState is what the receiver remembers between cycles.
// Received is false until the first packet arrives; LastReceive is
// meaningless until then.
type LinkState struct {
	LastPacket  proto.CommandPacket
	LastReceive time.Time
	Received    bool
}

func newLinkState() LinkState {
	return LinkState{LastPacket: proto.FailsafePacket()}
}

// LinkExpired reports whether the link must be treated as down at now.
// A link exactly timeout old is still up.
func LinkExpired(now time.Time, st LinkState, timeout time.Duration) bool {
	return !st.Received || now.Sub(st.LastReceive) > timeout
}

// LinkReceiver supervises the radio link and always produces a valid command
// for the actuator stage, substituting the failsafe packet while the link is
// down. It is driven by a single caller; UpdateCycle is not safe for
// concurrent use.
type LinkReceiver struct {
	source    PacketSource
	timeout   time.Duration
	logger    *slog.Logger
	observer  Observer
	callbacks []func(LinkStatus)

	state  LinkState
	status LinkStatus
	output channel.Output
}

// Option configures a LinkReceiver.
type Option func(*LinkReceiver)

// WithFailsafeTimeout overrides protocol.FailsafeTimeout. Non-positive
// values are ignored.
func WithFailsafeTimeout(d time.Duration) Option {
	return func(r *LinkReceiver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(r *LinkReceiver) {
		if l != nil {
			r.logger = l
		}
	}
}

func WithObserver(o Observer) Option {
	return func(r *LinkReceiver) {
		if o != nil {
			r.observer = o
		}
	}
}

func NewLinkReceiver(src PacketSource, opts ...Option) *LinkReceiver {
	r := &LinkReceiver{
		source:   src,
		timeout:  proto.FailsafeTimeout,
		logger:   slog.New(slog.DiscardHandler),
		observer: NopObserver{},
		state:    newLinkState(),
		status:   LinkDown,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "link")
	r.output = channel.Map(r.state.LastPacket)
	return r
}

// RegisterLinkCallback adds cb to the functions called at the end of every
// cycle with the current link status, e.g. to drive a status lamp.
func (r *LinkReceiver) RegisterLinkCallback(cb func(LinkStatus)) {
	if cb != nil {
		r.callbacks = append(r.callbacks, cb)
	}
}

// UpdateCycle runs one supervision cycle at now and returns the channel
// widths for the actuator stage.
func (r *LinkReceiver) UpdateCycle(now time.Time) channel.Output {
	drained := r.drain(now)

	status := LinkUp
	if LinkExpired(now, r.state, r.timeout) {
		// Reapplied every cycle while down.
		r.state.LastPacket = proto.FailsafePacket()
		status = LinkDown
	}
	r.setStatus(status, now)

	r.output = channel.Map(r.state.LastPacket)

	r.observer.CycleCompleted(status, drained)
	for _, cb := range r.callbacks {
		cb(status)
	}
	return r.output
}

// drain empties the source, keeping only the newest packet.
func (r *LinkReceiver) drain(now time.Time) int {
	n := 0
	var last proto.CommandPacket
	for {
		pkt, ok := r.source.TryReceive()
		if !ok {
			break
		}
		last = pkt
		n++
	}
	if n > 0 {
		r.state.LastPacket = last
		r.state.LastReceive = now
		r.state.Received = true
	}
	if n > 1 {
		r.logger.Debug("discarded stale packets", "count", n-1)
	}
	return n
}

func (r *LinkReceiver) setStatus(s LinkStatus, now time.Time) {
	if s == r.status {
		return
	}
	r.status = s
	if s == LinkUp {
		r.logger.Info("link up")
	} else {
		attrs := []any{"timeout", r.timeout}
		if r.state.Received {
			attrs = append(attrs, "silent_for", now.Sub(r.state.LastReceive))
		}
		r.logger.Warn("link down, failsafe engaged", attrs...)
	}
	r.observer.LinkChanged(s)
}

// Status returns the link status decided by the last cycle.
func (r *LinkReceiver) Status() LinkStatus { return r.status }

func (r *LinkReceiver) LinkUp() bool { return r.status == LinkUp }

// State returns a copy of the supervision state.
func (r *LinkReceiver) State() LinkState { return r.state }

// LastOutput returns the widths produced by the last cycle, or the failsafe
// mapping before the first one.
func (r *LinkReceiver) LastOutput() channel.Output { return r.output }

// FailsafeTimeout returns the configured link timeout.
func (r *LinkReceiver) FailsafeTimeout() time.Duration { return r.timeout }
