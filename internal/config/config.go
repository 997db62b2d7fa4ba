package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/stopwatchd/internal/foundation/errors"
)

// Config is the complete stopwatchd configuration.
type Config struct {
	Daemon  DaemonConfig  `yaml:"daemon"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Journal JournalConfig `yaml:"journal"`
	Events  EventsConfig  `yaml:"events"`
	Client  ClientConfig  `yaml:"client"`
}

// DaemonConfig controls the socket server and the manager queue.
type DaemonConfig struct {
	SocketPath     string        `yaml:"socket_path"`
	PIDFile        string        `yaml:"pid_file"`
	MaxConnections int           `yaml:"max_connections"`
	IOTimeout      time.Duration `yaml:"io_timeout"`
	QueueSize      int           `yaml:"queue_size"`
	// StatsInterval is how often stopwatch counts are logged; negative disables it.
	StatsInterval time.Duration `yaml:"stats_interval"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// MetricsConfig enables the Prometheus endpoint when Address is set.
type MetricsConfig struct {
	Address string `yaml:"address"`
	Path    string `yaml:"path"`
}

// JournalConfig enables the sqlite event journal when Path is set.
type JournalConfig struct {
	Path string `yaml:"path"`
}

// EventsConfig enables NATS fan-out of stopwatch events when URL is set.
type EventsConfig struct {
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
}

// ClientConfig controls how client commands reach the daemon.
type ClientConfig struct {
	Autostart    *bool            `yaml:"autostart"`
	DialTimeout  time.Duration    `yaml:"dial_timeout"`
	RetryBackoff RetryBackoffMode `yaml:"retry_backoff"`
	RetryInitial time.Duration    `yaml:"retry_initial_delay"`
	RetryMax     time.Duration    `yaml:"retry_max_delay"`
	MaxRetries   int              `yaml:"max_retries"`
}

// AutostartEnabled reports whether clients may spawn a daemon; defaults to true.
func (c ClientConfig) AutostartEnabled() bool {
	return c.Autostart == nil || *c.Autostart
}

// Load reads configPath, applies .env files, environment overrides and
// defaults, and validates the result. An empty path or a missing file yields
// the defaults.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	cfg := &Config{}
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read config file").
				WithContext("path", configPath).
				Build()
		default:
			expanded := os.ExpandEnv(string(data))
			if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
				return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to parse config file").
					WithContext("path", configPath).
					Build()
			}
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	normalize(cfg)
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	normalize(cfg)
	applyDefaults(cfg)
	return cfg
}

// Init writes an example configuration to configPath.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return ferrors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).
			Build()
	}
	data, err := yaml.Marshal(Default())
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "failed to marshal example config").Build()
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0o750); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "failed to create config directory").Build()
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "failed to write config file").
			WithContext("path", configPath).
			Build()
	}
	return nil
}

// DefaultConfigPath is $XDG_CONFIG_HOME/stopwatchd/config.yaml or its
// platform equivalent.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "stopwatchd.yaml"
	}
	return filepath.Join(dir, "stopwatchd", "config.yaml")
}

// Validate checks invariants that defaults cannot repair.
func (c *Config) Validate() error {
	var errs []error
	if c.Daemon.SocketPath == "" {
		errs = append(errs, fmt.Errorf("daemon.socket_path is required"))
	}
	if c.Daemon.MaxConnections < 1 {
		errs = append(errs, fmt.Errorf("daemon.max_connections must be at least 1"))
	}
	if c.Daemon.QueueSize < 1 {
		errs = append(errs, fmt.Errorf("daemon.queue_size must be at least 1"))
	}
	if c.Daemon.IOTimeout <= 0 {
		errs = append(errs, fmt.Errorf("daemon.io_timeout must be positive"))
	}
	if c.Client.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("client.max_retries cannot be negative"))
	}
	if c.Events.NATSURL != "" && c.Events.Subject == "" {
		errs = append(errs, fmt.Errorf("events.subject is required when events.nats_url is set"))
	}
	if len(errs) == 0 {
		return nil
	}
	return ferrors.WrapError(errors.Join(errs...), ferrors.CategoryConfig, "configuration validation failed").Build()
}
