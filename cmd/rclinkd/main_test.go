package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ystepanoff/rclink/channel"
	"github.com/ystepanoff/rclink/config"
	proto "github.com/ystepanoff/rclink/protocol"
	"github.com/ystepanoff/rclink/transport"
)

var failsafeLine = channel.Map(proto.FailsafePacket()).String()

func TestRunHelp(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 0, run([]string{"help"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "rclinkd demo")
}

func TestRunUnknownCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, run([]string{"transmit"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "unknown command: transmit")
}

func TestRunRxBadFlags(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, run([]string{"rx", "-nope"}, &stdout, &stderr))
}

func TestRunRxBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("link:\n  failsafeTimeoutMs: -1\n"), 0o600))

	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, run([]string{"rx", "-config", path}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "failsafe timeout")
}

func TestRunRxBadSourceOverride(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, run([]string{"-source", "carrier-pigeon"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "invalid source kind")
}

func TestLoadRxConfigFlagsRepairEnvironment(t *testing.T) {
	t.Setenv("RCLINK_SOURCE", "udp")

	_, err := loadRxConfig("", "", "")
	assert.ErrorContains(t, err, "invalid source kind")

	cfg, err := loadRxConfig("", config.SourceStub, "")
	require.NoError(t, err)
	assert.Equal(t, config.SourceStub, cfg.Source.Kind)
}

func TestLoadRxConfigPortOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rx.yaml")
	require.NoError(t, os.WriteFile(path, []byte("source:\n  serialPath: \"\"\n"), 0o600))

	_, err := loadRxConfig(path, "", "")
	assert.ErrorContains(t, err, "serialPath")

	cfg, err := loadRxConfig(path, "", "/dev/ttyACM0")
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyACM0", cfg.Source.SerialPath)
}

// TestSessionLoopbackFailsafe drives the loopback session with explicit
// cycle times instead of the wall clock.
func TestSessionLoopbackFailsafe(t *testing.T) {
	cfg := config.Default()
	cfg.Source.Kind = config.SourceLoopback
	cfg.Metrics.Addr = ""

	var stderr bytes.Buffer
	s, err := newSession(context.Background(), cfg, &stderr)
	require.NoError(t, err)
	defer s.close()
	require.NotNil(t, s.loop)

	tx := transport.NewTransmitterWithDriver(s.loop, nil)
	p := proto.CommandPacket{Throttle: 200, Yaw: 127, Pitch: 127, Roll: 127}
	t0 := time.Unix(5000, 0)

	require.NoError(t, tx.Send(p))
	assert.Equal(t, channel.Map(p), s.receiver.UpdateCycle(t0))
	assert.True(t, s.linkUp.Load())

	timeout := cfg.Link.FailsafeTimeout()
	assert.Equal(t, channel.Map(p), s.receiver.UpdateCycle(t0.Add(timeout)))
	assert.Equal(t, channel.Map(proto.FailsafePacket()), s.receiver.UpdateCycle(t0.Add(timeout+time.Millisecond)))
	assert.False(t, s.linkUp.Load())
	assert.Contains(t, stderr.String(), `"msg":"link down, failsafe engaged"`)
}

func TestDemoEngagesFailsafe(t *testing.T) {
	if testing.Short() {
		t.Skip("runs the demo in real time")
	}

	// Generous margins: the link needs drop-after+failsafe to go down and
	// the run leaves well over a second after that.
	var stdout, stderr bytes.Buffer
	code := run([]string{"demo",
		"-drop-after", "200ms",
		"-duration", "1500ms",
		"-failsafe", "100ms",
		"-period", "10ms",
	}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.NotEmpty(t, lines)

	live := 0
	for _, l := range lines {
		if l != failsafeLine {
			live++
		}
	}
	assert.Positive(t, live, "expected cycles with live commands")
	assert.Equal(t, failsafeLine, lines[len(lines)-1])

	logs := stderr.String()
	assert.Contains(t, logs, `"msg":"link up"`)
	assert.Contains(t, logs, `"msg":"link down, failsafe engaged"`)
	assert.Contains(t, logs, `"session"`)
}

func TestSessionStubStaysDown(t *testing.T) {
	cfg := config.Default()
	cfg.Source.Kind = config.SourceStub
	cfg.Metrics.Addr = ""
	cfg.Link.CyclePeriodMs = 5

	var stderr bytes.Buffer
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	s, err := newSession(ctx, cfg, &stderr)
	require.NoError(t, err)
	defer s.close()
	assert.Nil(t, s.loop)

	var stdout bytes.Buffer
	assert.Equal(t, 0, s.serve(ctx, &stdout, true, false))

	assert.Equal(t, transport.LinkDown, s.receiver.Status())
	assert.False(t, s.linkUp.Load())
	for _, l := range strings.Split(strings.TrimSpace(stdout.String()), "\n") {
		assert.Equal(t, failsafeLine, l)
	}
}

func TestSessionSerialOpenFails(t *testing.T) {
	cfg := config.Default()
	cfg.Source.SerialPath = filepath.Join(t.TempDir(), "no-such-tty")

	var stderr bytes.Buffer
	_, err := newSession(context.Background(), cfg, &stderr)
	assert.Error(t, err)
}
