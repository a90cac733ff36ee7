// Package monitor is a terminal view of the receiver: one bar per channel and
// a link lamp, refreshed from the supervision loop.
package monitor

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ystepanoff/rclink/channel"
	proto "github.com/ystepanoff/rclink/protocol"
	"github.com/ystepanoff/rclink/transport"
)

const barWidth = 40

// CycleMsg carries one supervision result into the program.
type CycleMsg struct {
	Output channel.Output
	Status transport.LinkStatus
	At     time.Time
}

// Model is the bubbletea model. The zero value is not usable; use New.
type Model struct {
	output  channel.Output
	status  transport.LinkStatus
	cycles  uint64
	downFor time.Duration
	last    time.Time
	downAt  time.Time
	quit    bool
}

func New() Model {
	return Model{
		output: channel.Map(proto.FailsafePacket()),
		status: transport.LinkDown,
	}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quit = true
			return m, tea.Quit
		}
	case CycleMsg:
		if msg.Status == transport.LinkDown {
			if m.status == transport.LinkUp || m.downAt.IsZero() {
				m.downAt = msg.At
			}
			m.downFor = msg.At.Sub(m.downAt)
		} else {
			m.downAt = time.Time{}
			m.downFor = 0
		}
		m.output = msg.Output
		m.status = msg.Status
		m.last = msg.At
		m.cycles++
	}
	return m, nil
}

func (m Model) View() string {
	if m.quit {
		return ""
	}
	var b strings.Builder

	lamp := "● LINK UP"
	if m.status == transport.LinkDown {
		lamp = fmt.Sprintf("○ LINK DOWN  failsafe %s", m.downFor.Truncate(time.Millisecond))
	}
	fmt.Fprintf(&b, "%s   cycles %d\n\n", lamp, m.cycles)

	for i, us := range m.output {
		fmt.Fprintf(&b, "%-8s %4d │%s│\n", channel.Name(i), us, bar(us))
	}
	b.WriteString("\nq to quit\n")
	return b.String()
}

// bar renders a pulse width in [MinPulse, MaxPulse] as a fixed-width gauge.
func bar(us int) string {
	us = channel.Clamp(us, channel.MinPulse, channel.MaxPulse)
	n := (us - channel.MinPulse) * barWidth / (channel.MaxPulse - channel.MinPulse)
	return strings.Repeat("█", n) + strings.Repeat(" ", barWidth-n)
}

// Sink returns a transport.Sink that forwards every cycle to p.
func Sink(p *tea.Program, now func() time.Time) transport.Sink {
	if now == nil {
		now = time.Now
	}
	return func(out channel.Output, status transport.LinkStatus) {
		p.Send(CycleMsg{Output: out, Status: status, At: now()})
	}
}
