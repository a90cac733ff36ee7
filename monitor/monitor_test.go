package monitor

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ystepanoff/rclink/channel"
	proto "github.com/ystepanoff/rclink/protocol"
	"github.com/ystepanoff/rclink/transport"
)

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

func TestInitialViewShowsFailsafe(t *testing.T) {
	m := New()
	assert.Nil(t, m.Init())

	view := m.View()
	assert.Contains(t, view, "LINK DOWN")
	assert.Contains(t, view, "throttle 1000")
}

func TestCycleMsgUpdatesView(t *testing.T) {
	t0 := time.Unix(1000, 0)
	out := channel.Map(proto.CommandPacket{Throttle: 255, Yaw: 127, Pitch: 127, Roll: 127})

	m := update(t, New(), CycleMsg{Output: out, Status: transport.LinkUp, At: t0})
	view := m.View()
	assert.Contains(t, view, "LINK UP")
	assert.Contains(t, view, "cycles 1")
	assert.Contains(t, view, "throttle 2000 │"+strings.Repeat("█", barWidth)+"│")
	assert.Contains(t, view, "roll     1498")
}

func TestDownDurationTracksOutage(t *testing.T) {
	t0 := time.Unix(1000, 0)
	fs := channel.Map(proto.FailsafePacket())

	m := update(t, New(), CycleMsg{Output: fs, Status: transport.LinkUp, At: t0})
	m = update(t, m, CycleMsg{Output: fs, Status: transport.LinkDown, At: t0.Add(1100 * time.Millisecond)})
	m = update(t, m, CycleMsg{Output: fs, Status: transport.LinkDown, At: t0.Add(1600 * time.Millisecond)})
	assert.Equal(t, 500*time.Millisecond, m.downFor)
	assert.Contains(t, m.View(), "failsafe 500ms")

	m = update(t, m, CycleMsg{Output: fs, Status: transport.LinkUp, At: t0.Add(2 * time.Second)})
	assert.Zero(t, m.downFor)
}

func TestQuitKeys(t *testing.T) {
	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune{'q'}},
		{Type: tea.KeyCtrlC},
	} {
		next, cmd := New().Update(key)
		require.NotNil(t, cmd, key.String())
		assert.IsType(t, tea.QuitMsg{}, cmd())
		assert.Empty(t, next.View())
	}

	_, cmd := New().Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	assert.Nil(t, cmd)
}

func TestBar(t *testing.T) {
	assert.Equal(t, strings.Repeat(" ", barWidth), bar(channel.MinPulse))
	assert.Equal(t, strings.Repeat("█", barWidth), bar(channel.MaxPulse))
	assert.Equal(t, strings.Repeat("█", barWidth/2)+strings.Repeat(" ", barWidth/2), bar(1500))
	assert.Equal(t, bar(channel.MaxPulse), bar(5000))
}
