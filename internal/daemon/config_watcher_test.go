package daemon

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/stopwatchd/internal/config"
)

func TestConfigWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: info\n"), 0o600))

	reloaded := make(chan *config.Config, 4)
	cw, err := NewConfigWatcher(path, func(cfg *config.Config) { reloaded <- cfg })
	require.NoError(t, err)
	cw.debounce = 20 * time.Millisecond
	require.NoError(t, cw.Start(t.Context()))
	defer cw.Stop()

	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0o600))

	select {
	case cfg := <-reloaded:
		require.Equal(t, config.LogLevelDebug, cfg.Logging.Level)
	case <-time.After(5 * time.Second):
		t.Fatal("config was not reloaded")
	}
}

func TestConfigWatcher_IgnoresOtherFilesAndBadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: info\n"), 0o600))

	reloaded := make(chan *config.Config, 4)
	cw, err := NewConfigWatcher(path, func(cfg *config.Config) { reloaded <- cfg })
	require.NoError(t, err)
	cw.debounce = 20 * time.Millisecond
	require.NoError(t, cw.Start(t.Context()))
	defer cw.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1\n"), 0o600))
	require.NoError(t, os.WriteFile(path, []byte("daemon: [broken"), 0o600))

	select {
	case <-reloaded:
		t.Fatal("unexpected reload")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestDaemon_ApplyReloadSetsLevel(t *testing.T) {
	level := new(slog.LevelVar)
	d := New(config.Default(), Options{LevelVar: level})
	cfg := config.Default()
	cfg.Logging.Level = config.LogLevelError
	d.applyReload(cfg)
	require.Equal(t, slog.LevelError, level.Level())
}
