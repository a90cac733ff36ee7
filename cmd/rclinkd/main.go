// Command rclinkd runs the link supervisor on a host: it reads command packets
// from a serial radio bridge (or a stub), applies the failsafe and prints or
// displays the resulting channel widths.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ystepanoff/rclink/channel"
	"github.com/ystepanoff/rclink/config"
	"github.com/ystepanoff/rclink/driver/serial"
	"github.com/ystepanoff/rclink/driver/stub"
	"github.com/ystepanoff/rclink/monitor"
	"github.com/ystepanoff/rclink/observability"
	proto "github.com/ystepanoff/rclink/protocol"
	"github.com/ystepanoff/rclink/transport"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout io.Writer, stderr io.Writer) int {
	if len(args) == 0 {
		return runRx([]string{}, stdout, stderr)
	}

	switch args[0] {
	case "rx":
		return runRx(args[1:], stdout, stderr)
	case "demo":
		return runDemo(args[1:], stdout, stderr)
	case "-h", "--help", "help":
		printUsage(stdout)
		return 0
	default:
		if len(args[0]) > 0 && args[0][0] == '-' {
			return runRx(args, stdout, stderr)
		}
		fmt.Fprintln(stderr, "unknown command:", args[0])
		printUsage(stderr)
		return 2
	}
}

// session is one configured receiver plus whatever feeds it.
type session struct {
	cfg      *config.Config
	logger   *slog.Logger
	metrics  *observability.Metrics
	receiver *transport.LinkReceiver
	loop     *stub.Driver
	linkUp   atomic.Bool
	cleanup  []func()
}

func (s *session) close() {
	for i := len(s.cleanup) - 1; i >= 0; i-- {
		s.cleanup[i]()
	}
}

func runRx(args []string, stdout io.Writer, stderr io.Writer) int {
	fs := flag.NewFlagSet("rx", flag.ContinueOnError)
	fs.SetOutput(stderr)

	cfgPath := fs.String("config", "", "YAML config path (default: $RCLINK_CONFIG)")
	source := fs.String("source", "", "override source kind: serial, stub or loopback")
	port := fs.String("port", "", "override serial port path")
	printTrace := fs.Bool("print", true, "print one channel trace line per cycle")
	tui := fs.Bool("tui", false, "show the terminal monitor instead of trace lines")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := loadRxConfig(*cfgPath, *source, *port)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	s, err := newSession(ctx, cfg, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer s.close()

	if cfg.Source.Kind == config.SourceLoopback {
		s.startSweep(0)
	}

	return s.serve(ctx, stdout, *printTrace, *tui)
}

// loadRxConfig reads the configuration, applies the command-line overrides
// and only then validates, so a flag can repair a bad file or environment.
func loadRxConfig(path, source, port string) (*config.Config, error) {
	cfg, err := config.Read(path)
	if err != nil {
		return nil, err
	}
	if source != "" {
		cfg.Source.Kind = source
	}
	if port != "" {
		cfg.Source.SerialPath = port
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func runDemo(args []string, stdout io.Writer, stderr io.Writer) int {
	fs := flag.NewFlagSet("demo", flag.ContinueOnError)
	fs.SetOutput(stderr)

	dropAfter := fs.Duration("drop-after", 3*time.Second, "stop transmitting after this long")
	duration := fs.Duration("duration", 6*time.Second, "total run time, 0 runs until interrupted")
	failsafe := fs.Duration("failsafe", proto.FailsafeTimeout, "link timeout")
	period := fs.Duration("period", 20*time.Millisecond, "supervision cycle period")
	metricsAddr := fs.String("metrics", "", "metrics listen address (empty disables)")
	tui := fs.Bool("tui", false, "show the terminal monitor instead of trace lines")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg := config.Default()
	cfg.Source.Kind = config.SourceLoopback
	cfg.Link.FailsafeTimeoutMs = int(*failsafe / time.Millisecond)
	cfg.Link.CyclePeriodMs = int(*period / time.Millisecond)
	cfg.Metrics.Addr = *metricsAddr
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	s, err := newSession(ctx, cfg, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer s.close()

	s.startSweep(*dropAfter)
	return s.serve(ctx, stdout, true, *tui)
}

func newSession(ctx context.Context, cfg *config.Config, stderr io.Writer) (*session, error) {
	s := &session{
		cfg:     cfg,
		logger:  observability.NewLogger(cfg.Log, stderr),
		metrics: observability.NewMetrics(),
	}

	rc, err := cfg.Radio.Protocol()
	if err != nil {
		return nil, err
	}

	driver, err := s.openDriver(ctx)
	if err != nil {
		return nil, err
	}

	src := transport.NewRadioSource(driver, s.logger, s.metrics)
	if err := src.Initialise(rc); err != nil {
		s.close()
		return nil, fmt.Errorf("initialise radio: %w", err)
	}

	s.receiver = transport.NewLinkReceiver(src,
		transport.WithFailsafeTimeout(cfg.Link.FailsafeTimeout()),
		transport.WithLogger(s.logger),
		transport.WithObserver(s.metrics),
	)
	s.receiver.RegisterLinkCallback(func(st transport.LinkStatus) {
		s.linkUp.Store(st == transport.LinkUp)
	})

	if loop, ok := driver.(*stub.Driver); ok && cfg.Source.Kind == config.SourceLoopback {
		s.cleanup = append(s.cleanup, func() {
			if n := loop.Dropped(); n > 0 {
				s.logger.Info("loopback overflow", "dropped", n)
			}
		})
		s.loop = loop
	}

	s.logger.Info("receiver ready",
		"source", cfg.Source.Kind,
		"channel", rc.Channel,
		"data_rate", rc.DataRate.String(),
		"failsafe_timeout", s.receiver.FailsafeTimeout(),
	)
	return s, nil
}

func (s *session) openDriver(ctx context.Context) (transport.RadioDriver, error) {
	switch s.cfg.Source.Kind {
	case config.SourceSerial:
		d, err := serial.Open(s.cfg.Source.SerialPath, s.cfg.Source.Serial, s.logger,
			serial.WithQueueSize(s.cfg.Source.QueueSize),
			serial.WithBadFrameHook(s.metrics.BadFrame),
		)
		if err != nil {
			return nil, err
		}
		d.Start(ctx)
		s.cleanup = append(s.cleanup, func() {
			_ = d.Close()
			<-d.Done()
			if err := d.Err(); err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Warn("serial bridge stopped", "err", err)
			}
		})
		return d, nil
	case config.SourceLoopback:
		return stub.NewLoopback(), nil
	default:
		return stub.New(), nil
	}
}

// startSweep feeds the loopback driver with a slow throttle sweep and
// centred sticks. A positive dropAfter stops the transmitter after that long
// so the failsafe can be watched engaging.
func (s *session) startSweep(dropAfter time.Duration) {
	if s.loop == nil {
		return
	}
	tx := transport.NewTransmitterWithDriver(s.loop, s.logger)
	rc, _ := s.cfg.Radio.Protocol()
	if err := tx.Initialise(rc); err != nil {
		s.logger.Error("loopback transmitter", "err", err)
		return
	}

	interval := s.cfg.Link.CyclePeriod()
	var deadline time.Time
	if dropAfter > 0 {
		deadline = time.Now().Add(dropAfter)
	}
	var throttle byte
	next := func() (proto.CommandPacket, bool) {
		if !deadline.IsZero() && time.Now().After(deadline) {
			return proto.CommandPacket{}, false
		}
		throttle++
		return proto.CommandPacket{
			Throttle: throttle,
			Yaw:      proto.NeutralStick,
			Pitch:    proto.NeutralStick,
			Roll:     proto.NeutralStick,
		}, true
	}

	stop := make(chan struct{})
	done := tx.StartStream(interval, next, stop)
	s.cleanup = append(s.cleanup, func() {
		close(stop)
		<-done
	})
}

func (s *session) serve(ctx context.Context, stdout io.Writer, printTrace, tui bool) int {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var metricsErr <-chan error
	if s.cfg.Metrics.Addr != "" {
		metricsErr = s.metrics.StartMetricsServer(ctx, s.cfg.Metrics.Addr, s.linkUp.Load, s.logger)
	}

	var sink transport.Sink
	var program *tea.Program
	switch {
	case tui:
		program = tea.NewProgram(monitor.New(), tea.WithOutput(stdout), tea.WithContext(ctx))
		sink = monitor.Sink(program, nil)
	case printTrace:
		sink = func(out channel.Output, _ transport.LinkStatus) {
			fmt.Fprintln(stdout, out.String())
		}
	}

	runErr := make(chan error, 1)
	go func() {
		runErr <- transport.Run(ctx, s.receiver, s.cfg.Link.CyclePeriod(), nil, sink)
	}()

	if program != nil {
		if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			s.logger.Error("monitor", "err", err)
		}
		cancel()
	}

	code := 0
	select {
	case err := <-runErr:
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			s.logger.Error("supervision loop", "err", err)
			code = 1
		}
	case err := <-metricsErr:
		if err != nil {
			s.logger.Error("metrics server", "err", err)
			code = 1
		}
		cancel()
		<-runErr
	}

	s.logger.Info("receiver stopped", "status", s.receiver.Status().String())
	return code
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "usage:")
	fmt.Fprintln(w, "  rclinkd [rx] [-config path] [-source kind] [-port path] [-print] [-tui]")
	fmt.Fprintln(w, "  rclinkd demo [-drop-after 3s] [-duration 6s] [-failsafe 1s] [-period 20ms] [-metrics addr] [-tui]")
}
