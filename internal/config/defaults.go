package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	defaultMaxConnections = 32
	defaultIOTimeout      = 5 * time.Second
	defaultQueueSize      = 64
	defaultStatsInterval  = time.Minute
	defaultMetricsPath    = "/metrics"
	defaultSubject        = "stopwatchd.events"
	defaultDialTimeout    = time.Second
	defaultRetryInitial   = 50 * time.Millisecond
	defaultRetryMax       = time.Second
	defaultMaxRetries     = 8
)

// RuntimeDir is where the socket and pid file live by default:
// $XDG_RUNTIME_DIR/stopwatchd, or a per-user directory under the temp dir.
func RuntimeDir() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "stopwatchd")
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("stopwatchd-%d", os.Getuid()))
}

func applyDefaults(cfg *Config) {
	d := &cfg.Daemon
	if d.SocketPath == "" {
		d.SocketPath = filepath.Join(RuntimeDir(), "stopwatchd.sock")
	}
	if d.PIDFile == "" {
		d.PIDFile = filepath.Join(filepath.Dir(d.SocketPath), "stopwatchd.pid")
	}
	if d.MaxConnections == 0 {
		d.MaxConnections = defaultMaxConnections
	}
	if d.IOTimeout == 0 {
		d.IOTimeout = defaultIOTimeout
	}
	if d.QueueSize == 0 {
		d.QueueSize = defaultQueueSize
	}
	if d.StatsInterval == 0 {
		d.StatsInterval = defaultStatsInterval
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = LogLevelInfo
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = LogFormatText
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = defaultMetricsPath
	}
	if cfg.Events.NATSURL != "" && cfg.Events.Subject == "" {
		cfg.Events.Subject = defaultSubject
	}

	c := &cfg.Client
	if c.DialTimeout == 0 {
		c.DialTimeout = defaultDialTimeout
	}
	if c.RetryBackoff == "" {
		c.RetryBackoff = RetryBackoffExponential
	}
	if c.RetryInitial == 0 {
		c.RetryInitial = defaultRetryInitial
	}
	if c.RetryMax == 0 {
		c.RetryMax = defaultRetryMax
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = defaultMaxRetries
	}
}
