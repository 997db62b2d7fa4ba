package config

import "strings"

// normalize case-folds enumerations and trims paths before defaults apply.
func normalize(cfg *Config) {
	if cfg.Logging.Level != "" {
		cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	}
	if cfg.Logging.Format != "" {
		cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))
	}
	if cfg.Client.RetryBackoff != "" {
		cfg.Client.RetryBackoff = NormalizeRetryBackoff(string(cfg.Client.RetryBackoff))
	}
	cfg.Daemon.SocketPath = strings.TrimSpace(cfg.Daemon.SocketPath)
	cfg.Daemon.PIDFile = strings.TrimSpace(cfg.Daemon.PIDFile)
	cfg.Journal.Path = strings.TrimSpace(cfg.Journal.Path)
	cfg.Metrics.Address = strings.TrimSpace(cfg.Metrics.Address)
}
