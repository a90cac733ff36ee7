package observability

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ystepanoff/rclink/config"
	"github.com/ystepanoff/rclink/transport"
)

func TestNewLoggerWritesJSONWithSession(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(config.LogConfig{Level: "info"}, &buf)

	logger.Debug("hidden")
	logger.Info("link up", "component", "link")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "link up", rec["msg"])
	assert.Equal(t, "link", rec["component"])
	assert.NotEmpty(t, rec["session"])
}

func TestNewLoggerRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rclink.log")
	logger := NewLogger(config.LogConfig{Level: "debug", File: path, MaxSizeMB: 1}, io.Discard)

	logger.Debug("first")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"first"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestMetricsObserver(t *testing.T) {
	m := NewMetrics()

	m.CycleCompleted(transport.LinkDown, 0)
	m.LinkChanged(transport.LinkUp)
	m.CycleCompleted(transport.LinkUp, 3)
	m.CycleCompleted(transport.LinkUp, 1)
	m.PacketRejected("bad_size")
	m.PacketRejected("bad_size")
	m.BadFrame(errors.New("crc"))

	assert.Equal(t, 3.0, testutil.ToFloat64(m.Cycles))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.PacketsDrained))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FailsafeCycles))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LinkUp))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LinkTransitions.WithLabelValues("up")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Rejected.WithLabelValues("bad_size")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BadFrames))

	m.CycleCompleted(transport.LinkDown, 0)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.LinkUp))
}

func TestHandler(t *testing.T) {
	m := NewMetrics()
	m.CycleCompleted(transport.LinkUp, 1)

	var up atomic.Bool
	up.Store(true)
	srv := httptest.NewServer(m.Handler(up.Load))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "rclink_cycles_total 1")

	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	up.Store(false)
	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
