package commands

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/stopwatchd/internal/client"
	"git.home.luguber.info/inful/stopwatchd/internal/config"
	"git.home.luguber.info/inful/stopwatchd/internal/protocol"
	"git.home.luguber.info/inful/stopwatchd/internal/version"
)

// Global carries state shared by every command.
type Global struct {
	LevelVar *slog.LevelVar
}

// NewGlobal returns the shared state with an info level.
func NewGlobal() *Global {
	return &Global{LevelVar: new(slog.LevelVar)}
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"${config_path}" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Output  string           `short:"o" help:"Output format (auto, text, json); auto prints JSON when stdout is not a terminal" enum:"auto,text,json" default:"auto"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Daemon  DaemonCmd  `cmd:"" help:"Run the stopwatch daemon in the foreground"`
	Start   StartCmd   `cmd:"" help:"Start a new stopwatch"`
	Info    InfoCmd    `cmd:"" help:"Show stopwatches (all of them when no identifier is given)"`
	Stop    StopCmd    `cmd:"" help:"Stop stopwatches for good"`
	Lap     LapCmd     `cmd:"" help:"Close the current lap and open a new one"`
	Pause   PauseCmd   `cmd:"" help:"Pause stopwatches"`
	Play    PlayCmd    `cmd:"" help:"Resume paused stopwatches"`
	Delete  DeleteCmd  `cmd:"" help:"Remove stopwatches from the daemon"`
	Ping    PingCmd    `cmd:"" help:"Check that the daemon is running"`
	Journal JournalCmd `cmd:"" help:"Print the stopwatch event journal"`
	Init    InitCmd    `cmd:"" help:"Write an example configuration file"`
}

// Options returns the kong options shared by main and tests.
func Options(g *Global) []kong.Option {
	return []kong.Option{
		kong.Name("stopwatchd"),
		kong.Description("Named stopwatches kept by a small local daemon."),
		kong.UsageOnError(),
		kong.Vars{
			"version":     version.String(),
			"config_path": config.DefaultConfigPath(),
		},
		kong.Bind(g),
	}
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply(g *Global) error {
	if c.Verbose {
		g.LevelVar.Set(slog.LevelDebug)
	}
	setLogger(g, config.LogFormatText)
	return nil
}

func setLogger(g *Global, format config.LogFormat) {
	opts := &slog.HandlerOptions{Level: g.LevelVar}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func loadConfig(root *CLI) (*config.Config, error) {
	return config.Load(root.Config)
}

func newClient(root *CLI, cfg *config.Config) *client.Client {
	var args []string
	if _, err := os.Stat(root.Config); err == nil {
		args = append(args, "--config", root.Config)
	}
	logPath := filepath.Join(filepath.Dir(cfg.Daemon.SocketPath), "daemon.log")
	return client.New(cfg, client.WithSpawner(client.ExecSpawner(args, logPath)))
}

// send loads config, sends cmd and renders the reply.
func send(root *CLI, cmd protocol.Command) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout(cfg))
	defer cancel()

	reply, err := newClient(root, cfg).Do(ctx, cmd)
	if err != nil {
		return err
	}
	r := newRenderer(os.Stdout, root.Output)
	if err := r.Reply(reply); err != nil {
		return err
	}
	return failureError(reply)
}
