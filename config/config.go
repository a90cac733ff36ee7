// Package config loads the receiver daemon configuration: defaults, then a
// YAML file, then environment overrides, then validation.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/ystepanoff/rclink/driver/serial"
	"github.com/ystepanoff/rclink/protocol"
)

// Source kinds.
const (
	SourceSerial   = "serial"
	SourceStub     = "stub"
	SourceLoopback = "loopback"
)

// Config represents the complete configuration of the receiver daemon
type Config struct {
	Radio   RadioConfig   `yaml:"radio"`
	Link    LinkConfig    `yaml:"link"`
	Source  SourceConfig  `yaml:"source"`
	Metrics MetricsConfig `yaml:"metrics"`
	Log     LogConfig     `yaml:"log"`
}

// RadioConfig holds transceiver settings
type RadioConfig struct {
	Address   string `yaml:"address"` // hex, e.g. "0xE9E8F0F0E1"
	Pipe      uint8  `yaml:"pipe"`
	Channel   uint8  `yaml:"channel"`
	DataRate  string `yaml:"dataRate"`
	PALevel   string `yaml:"paLevel"`
	CRCLength uint8  `yaml:"crcLength"`
	AutoAck   bool   `yaml:"autoAck"`
}

// LinkConfig holds supervision timing
type LinkConfig struct {
	FailsafeTimeoutMs int `yaml:"failsafeTimeoutMs"`
	CyclePeriodMs     int `yaml:"cyclePeriodMs"`
}

// SourceConfig selects where packets come from
type SourceConfig struct {
	Kind       string             `yaml:"kind"`
	SerialPath string             `yaml:"serialPath"`
	Serial     serial.PortOptions `yaml:"serial"`
	QueueSize  int                `yaml:"queueSize"`
}

// MetricsConfig holds the Prometheus listener; an empty address disables it
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig holds logging settings; an empty file logs to stderr
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"maxSizeMb"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
}

// Load builds and validates the configuration. path may be empty, in which
// case RCLINK_CONFIG is consulted; with neither, defaults plus environment
// apply.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Read is Load without validation, for callers that layer further
// overrides (command-line flags) on top and validate afterwards.
func Read(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("RCLINK_CONFIG")
	}
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns the built-in configuration
func Default() *Config {
	rc := protocol.DefaultRadioConfig()
	return &Config{
		Radio: RadioConfig{
			Address:   fmt.Sprintf("0x%X", rc.Address),
			Pipe:      rc.Pipe,
			Channel:   rc.Channel,
			DataRate:  rc.DataRate.String(),
			PALevel:   rc.PALevel.String(),
			CRCLength: rc.CRCLength,
			AutoAck:   rc.AutoAck,
		},
		Link: LinkConfig{
			FailsafeTimeoutMs: int(protocol.FailsafeTimeout / time.Millisecond),
			CyclePeriodMs:     20,
		},
		Source: SourceConfig{
			Kind:       SourceSerial,
			SerialPath: "/dev/ttyUSB0",
			Serial:     serial.PortOptions{BaudRate: 115200},
			QueueSize:  64,
		},
		Metrics: MetricsConfig{
			Addr: ":9108",
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 7,
		},
	}
}

// loadFromFile loads configuration from a YAML file
func loadFromFile(cfg *Config, filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	return yaml.UnmarshalStrict(data, cfg)
}

// applyEnvOverrides applies environment variable overrides
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("RCLINK_SOURCE"); v != "" {
		cfg.Source.Kind = v
	}
	if v := os.Getenv("RCLINK_SERIAL_PATH"); v != "" {
		cfg.Source.SerialPath = v
	}
	if v, ok := os.LookupEnv("RCLINK_METRICS_ADDR"); ok {
		cfg.Metrics.Addr = v
	}
	if v := os.Getenv("RCLINK_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("RCLINK_FAILSAFE_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RCLINK_FAILSAFE_MS: %w", err)
		}
		cfg.Link.FailsafeTimeoutMs = ms
	}
	return nil
}

// Validate checks the configuration for consistency
func (c *Config) Validate() error {
	if _, err := c.Radio.Protocol(); err != nil {
		return err
	}

	if c.Link.FailsafeTimeoutMs <= 0 || c.Link.FailsafeTimeoutMs > 60000 {
		return fmt.Errorf("failsafe timeout %dms is outside range [1, 60000]", c.Link.FailsafeTimeoutMs)
	}
	if c.Link.CyclePeriodMs <= 0 || c.Link.CyclePeriodMs >= c.Link.FailsafeTimeoutMs {
		return fmt.Errorf("cycle period %dms must be positive and shorter than the failsafe timeout", c.Link.CyclePeriodMs)
	}

	switch c.Source.Kind {
	case SourceSerial:
		if c.Source.SerialPath == "" {
			return fmt.Errorf("serial source requires serialPath")
		}
		if _, err := c.Source.Serial.Normalize(); err != nil {
			return err
		}
	case SourceStub, SourceLoopback:
	default:
		return fmt.Errorf("invalid source kind %q, must be one of: %s", c.Source.Kind,
			strings.Join([]string{SourceSerial, SourceStub, SourceLoopback}, ", "))
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}

	return nil
}

// Protocol converts the YAML radio section into a validated protocol.RadioConfig.
func (r RadioConfig) Protocol() (protocol.RadioConfig, error) {
	out := protocol.DefaultRadioConfig()

	addr, err := strconv.ParseUint(strings.TrimSpace(r.Address), 0, 64)
	if err != nil {
		return out, fmt.Errorf("invalid radio address %q: %w", r.Address, err)
	}
	rate, err := protocol.ParseDataRate(strings.ToLower(r.DataRate))
	if err != nil {
		return out, err
	}
	pa, err := protocol.ParsePALevel(strings.ToLower(r.PALevel))
	if err != nil {
		return out, err
	}

	out.Address = addr
	out.Pipe = r.Pipe
	out.Channel = r.Channel
	out.DataRate = rate
	out.PALevel = pa
	out.CRCLength = r.CRCLength
	out.AutoAck = r.AutoAck
	return out, out.Validate()
}

// FailsafeTimeout returns the link timeout as a duration.
func (l LinkConfig) FailsafeTimeout() time.Duration {
	return time.Duration(l.FailsafeTimeoutMs) * time.Millisecond
}

// CyclePeriod returns the supervision cadence as a duration.
func (l LinkConfig) CyclePeriod() time.Duration {
	return time.Duration(l.CyclePeriodMs) * time.Millisecond
}
