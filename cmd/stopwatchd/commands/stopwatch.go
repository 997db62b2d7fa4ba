package commands

import (
	"time"

	"git.home.luguber.info/inful/stopwatchd/internal/config"
	"git.home.luguber.info/inful/stopwatchd/internal/protocol"
)

// Targets are the identifiers a command applies to: a name or a prefix of
// the short id.
type Targets struct {
	Identifiers []string `arg:"" optional:"" name:"identifier" help:"Stopwatch name or short id prefix"`
	Laps        bool     `short:"l" help:"Include every lap in the output"`
}

func (t Targets) command(kind protocol.CommandKind) protocol.Command {
	return protocol.Command{Kind: kind, Identifiers: t.Identifiers, Verbose: t.Laps}
}

// StartCmd implements the 'start' command.
type StartCmd struct {
	Name   string `arg:"" optional:"" help:"Name for the stopwatch; names need not be unique"`
	Paused bool   `short:"p" help:"Create the stopwatch paused"`
}

func (s *StartCmd) Run(_ *Global, root *CLI) error {
	return send(root, protocol.Command{Kind: protocol.KindStart, Name: s.Name, Paused: s.Paused})
}

// InfoCmd implements the 'info' command.
type InfoCmd struct{ Targets }

func (c *InfoCmd) Run(_ *Global, root *CLI) error { return send(root, c.command(protocol.KindInfo)) }

// StopCmd implements the 'stop' command.
type StopCmd struct{ Targets }

func (c *StopCmd) Run(_ *Global, root *CLI) error { return send(root, c.command(protocol.KindStop)) }

// LapCmd implements the 'lap' command.
type LapCmd struct{ Targets }

func (c *LapCmd) Run(_ *Global, root *CLI) error { return send(root, c.command(protocol.KindLap)) }

// PauseCmd implements the 'pause' command.
type PauseCmd struct{ Targets }

func (c *PauseCmd) Run(_ *Global, root *CLI) error { return send(root, c.command(protocol.KindPause)) }

// PlayCmd implements the 'play' command.
type PlayCmd struct{ Targets }

func (c *PlayCmd) Run(_ *Global, root *CLI) error { return send(root, c.command(protocol.KindPlay)) }

// DeleteCmd implements the 'delete' command.
type DeleteCmd struct{ Targets }

func (c *DeleteCmd) Run(_ *Global, root *CLI) error {
	return send(root, c.command(protocol.KindDelete))
}

// PingCmd implements the 'ping' command.
type PingCmd struct{}

func (p *PingCmd) Run(_ *Global, root *CLI) error {
	return send(root, protocol.Command{Kind: protocol.KindPing})
}

// requestTimeout covers a possible daemon autostart plus one round trip.
func requestTimeout(cfg *config.Config) time.Duration {
	return cfg.Client.DialTimeout + cfg.Daemon.IOTimeout + time.Duration(cfg.Client.MaxRetries+1)*cfg.Client.RetryMax
}
