package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Receive modes
const (
	ModeBlocking = "blocking"
	ModePolling  = "polling"
)

// Config represents the complete service configuration
type Config struct {
	Receiver ReceiverConfig `yaml:"receiver"`
	HTTP     HTTPConfig     `yaml:"http"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ReceiverConfig contains UDP receiver configuration
type ReceiverConfig struct {
	BindAddress    string `yaml:"bind_address"`
	Port           int    `yaml:"port"`
	Mode           string `yaml:"mode"`
	PollIntervalMs int    `yaml:"poll_interval_ms"`
	BufferSize     int    `yaml:"buffer_size"` // 0 = size from SO_RCVBUF
}

// HTTPConfig contains the metrics/health HTTP server configuration
type HTTPConfig struct {
	Port    int    `yaml:"port"`
	Address string `yaml:"address"`
	Enabled bool   `yaml:"enabled"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	Output     string `yaml:"output"`
	MaxSizeMB  int    `yaml:"max_size_mb"` // file output only
	MaxBackups int    `yaml:"max_backups"` // file output only
}

// Default returns a configuration that listens on 127.0.0.1:8861 in polling mode.
func Default() *Config {
	return &Config{
		Receiver: ReceiverConfig{
			BindAddress:    "127.0.0.1",
			Port:           8861,
			Mode:           ModePolling,
			PollIntervalMs: 100,
		},
		HTTP: HTTPConfig{
			Port:    9861,
			Address: "127.0.0.1",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}

// Load reads and parses the configuration file. Fields missing from the file keep
// their Default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Validate performs validation of the whole configuration
func (c *Config) Validate() error {
	if err := c.Receiver.Validate(); err != nil {
		return fmt.Errorf("receiver config: %w", err)
	}

	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates receiver configuration
func (r *ReceiverConfig) Validate() error {
	ip := net.ParseIP(r.BindAddress)
	if ip == nil || ip.To4() == nil {
		return fmt.Errorf("bind_address must be an IPv4 address, got '%s'", r.BindAddress)
	}

	if r.Port < 1 || r.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", r.Port)
	}

	switch r.Mode {
	case ModeBlocking:
	case ModePolling:
		if r.PollIntervalMs < 1 {
			return fmt.Errorf("poll_interval_ms must be at least 1 in polling mode, got %d", r.PollIntervalMs)
		}
	default:
		return fmt.Errorf("mode must be '%s' or '%s', got '%s'", ModeBlocking, ModePolling, r.Mode)
	}

	if r.BufferSize != 0 && r.BufferSize < 1024 {
		return fmt.Errorf("buffer_size must be 0 or at least 1024 bytes, got %d", r.BufferSize)
	}

	return nil
}

// Validate validates HTTP configuration
func (h *HTTPConfig) Validate() error {
	if h.Enabled {
		if h.Port < 1 || h.Port > 65535 {
			return fmt.Errorf("http port must be between 1 and 65535, got %d", h.Port)
		}

		if h.Address == "" {
			return fmt.Errorf("http address cannot be empty when HTTP is enabled")
		}
	}

	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	if l.MaxSizeMB < 0 {
		return fmt.Errorf("max_size_mb cannot be negative, got %d", l.MaxSizeMB)
	}

	if l.MaxBackups < 0 {
		return fmt.Errorf("max_backups cannot be negative, got %d", l.MaxBackups)
	}

	return nil
}

// GetPollInterval returns the poll interval as a time.Duration
func (r *ReceiverConfig) GetPollInterval() time.Duration {
	return time.Duration(r.PollIntervalMs) * time.Millisecond
}

// Addr returns bind_address:port
func (r *ReceiverConfig) Addr() string {
	return net.JoinHostPort(r.BindAddress, fmt.Sprint(r.Port))
}

// Addr returns address:port for the HTTP server
func (h *HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Address, fmt.Sprint(h.Port))
}
