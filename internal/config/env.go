package config

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	ferrors "git.home.luguber.info/inful/stopwatchd/internal/foundation/errors"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "STOPWATCHD_"

// loadEnvFiles loads .env and .env.local when present. Variables already set
// in the process environment win.
func loadEnvFiles() {
	for _, path := range []string{".env", ".env.local"} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			slog.Warn("Failed to load env file", "path", path, "error", err)
			continue
		}
		slog.Debug("Loaded environment variables", "path", path)
	}
}

func applyEnvOverrides(cfg *Config) error {
	if v, ok := os.LookupEnv(EnvPrefix + "SOCKET"); ok {
		cfg.Daemon.SocketPath = v
	}
	if v, ok := os.LookupEnv(EnvPrefix + "PID_FILE"); ok {
		cfg.Daemon.PIDFile = v
	}
	if v, ok := os.LookupEnv(EnvPrefix + "LOG_LEVEL"); ok {
		cfg.Logging.Level = LogLevel(v)
	}
	if v, ok := os.LookupEnv(EnvPrefix + "LOG_FORMAT"); ok {
		cfg.Logging.Format = LogFormat(v)
	}
	if v, ok := os.LookupEnv(EnvPrefix + "METRICS_ADDRESS"); ok {
		cfg.Metrics.Address = v
	}
	if v, ok := os.LookupEnv(EnvPrefix + "JOURNAL_PATH"); ok {
		cfg.Journal.Path = v
	}
	if v, ok := os.LookupEnv(EnvPrefix + "NATS_URL"); ok {
		cfg.Events.NATSURL = v
	}
	if v, ok := os.LookupEnv(EnvPrefix + "AUTOSTART"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryConfig, "invalid boolean in environment").
				WithContext("variable", EnvPrefix+"AUTOSTART").
				Build()
		}
		cfg.Client.Autostart = &b
	}
	return nil
}
