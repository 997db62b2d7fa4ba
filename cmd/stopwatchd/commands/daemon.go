package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/stopwatchd/internal/daemon"
)

// DaemonCmd implements the 'daemon' command.
type DaemonCmd struct{}

func (d *DaemonCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if !root.Verbose {
		g.LevelVar.Set(cfg.Logging.Level.Slog())
	}
	setLogger(g, cfg.Logging.Format)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var configPath string
	if _, err := os.Stat(root.Config); err == nil {
		configPath = root.Config
	}
	if err := daemon.New(cfg, daemon.Options{ConfigPath: configPath, LevelVar: g.LevelVar}).Run(ctx); err != nil {
		return err
	}
	slog.Info("Daemon stopped")
	return nil
}
