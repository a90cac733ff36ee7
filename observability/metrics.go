// Package observability holds the daemon's logging and Prometheus metrics.
package observability

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ystepanoff/rclink/transport"
)

// Metrics implements transport.Observer. Each instance owns its registry so
// tests and multiple receivers do not collide on the default one.
type Metrics struct {
	Registry *prometheus.Registry

	Cycles          prometheus.Counter
	PacketsDrained  prometheus.Counter
	FailsafeCycles  prometheus.Counter
	LinkUp          prometheus.Gauge
	LinkTransitions *prometheus.CounterVec
	Rejected        *prometheus.CounterVec
	BadFrames       prometheus.Counter
}

var _ transport.Observer = (*Metrics)(nil)

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		Cycles: f.NewCounter(prometheus.CounterOpts{
			Name: "rclink_cycles_total",
			Help: "Supervision cycles run",
		}),
		PacketsDrained: f.NewCounter(prometheus.CounterOpts{
			Name: "rclink_packets_received_total",
			Help: "Command packets drained from the source, including superseded ones",
		}),
		FailsafeCycles: f.NewCounter(prometheus.CounterOpts{
			Name: "rclink_failsafe_cycles_total",
			Help: "Cycles that emitted the failsafe command",
		}),
		LinkUp: f.NewGauge(prometheus.GaugeOpts{
			Name: "rclink_link_up",
			Help: "1 while the radio link is up",
		}),
		LinkTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rclink_link_transitions_total",
			Help: "Link state changes by new state",
		}, []string{"state"}),
		Rejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rclink_packets_rejected_total",
			Help: "Payloads dropped before reaching the receiver",
		}, []string{"reason"}),
		BadFrames: f.NewCounter(prometheus.CounterOpts{
			Name: "rclink_serial_bad_frames_total",
			Help: "Serial bridge frames that failed to decode",
		}),
	}
}

func (m *Metrics) CycleCompleted(status transport.LinkStatus, drained int) {
	m.Cycles.Inc()
	m.PacketsDrained.Add(float64(drained))
	if status == transport.LinkDown {
		m.FailsafeCycles.Inc()
		m.LinkUp.Set(0)
	} else {
		m.LinkUp.Set(1)
	}
}

func (m *Metrics) LinkChanged(status transport.LinkStatus) {
	m.LinkTransitions.WithLabelValues(status.String()).Inc()
}

func (m *Metrics) PacketRejected(reason string) {
	m.Rejected.WithLabelValues(reason).Inc()
}

// BadFrame matches serial.WithBadFrameHook.
func (m *Metrics) BadFrame(error) {
	m.BadFrames.Inc()
}

// Handler serves /metrics from m and /healthz, which answers 503 while
// linkUp reports false.
func (m *Metrics) Handler(linkUp func() bool) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if linkUp != nil && !linkUp() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("link down"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// StartMetricsServer listens on addr until ctx is done. The returned channel
// yields the server's exit error once.
func (m *Metrics) StartMetricsServer(ctx context.Context, addr string, linkUp func() bool, logger *slog.Logger) <-chan error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           m.Handler(linkUp),
		ReadHeaderTimeout: 5 * time.Second,
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	errc := make(chan error, 1)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	go func() {
		logger.Info("metrics listening", "addr", addr)
		err := srv.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errc <- err
		close(errc)
	}()
	return errc
}
