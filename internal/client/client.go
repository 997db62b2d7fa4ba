// Package client talks to the daemon over its Unix socket, starting a daemon
// first when none is listening.
package client

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"git.home.luguber.info/inful/stopwatchd/internal/config"
	ferrors "git.home.luguber.info/inful/stopwatchd/internal/foundation/errors"
	"git.home.luguber.info/inful/stopwatchd/internal/logfields"
	"git.home.luguber.info/inful/stopwatchd/internal/protocol"
	"git.home.luguber.info/inful/stopwatchd/internal/retry"
)

// Spawner starts a daemon in the background.
type Spawner func() error

// Client sends one command per connection.
type Client struct {
	socketPath  string
	dialTimeout time.Duration
	ioTimeout   time.Duration
	autostart   bool
	policy      retry.Policy
	spawn       Spawner
	clock       clockwork.Clock
}

// Option customizes a Client.
type Option func(*Client)

// WithSpawner replaces the daemon launcher used by autostart.
func WithSpawner(s Spawner) Option { return func(c *Client) { c.spawn = s } }

// WithClock replaces the clock used between dial retries.
func WithClock(clock clockwork.Clock) Option { return func(c *Client) { c.clock = clock } }

// WithAutostart overrides the configured autostart setting.
func WithAutostart(on bool) Option { return func(c *Client) { c.autostart = on } }

// New builds a client from configuration.
func New(cfg *config.Config, opts ...Option) *Client {
	c := &Client{
		socketPath:  cfg.Daemon.SocketPath,
		dialTimeout: cfg.Client.DialTimeout,
		ioTimeout:   cfg.Daemon.IOTimeout,
		autostart:   cfg.Client.AutostartEnabled(),
		policy:      retry.FromConfig(cfg.Client),
		clock:       clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.spawn == nil {
		c.spawn = ExecSpawner(nil, "")
	}
	return c
}

// Do sends cmd and returns the daemon's reply. A reply carrying a
// request-level error is returned as a protocol error.
func (c *Client) Do(ctx context.Context, cmd protocol.Command) (*protocol.Reply, error) {
	conn, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if c.ioTimeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(c.ioTimeout))
	}
	if err := protocol.WriteMessage(conn, protocol.NewRequest(cmd)); err != nil {
		return nil, err
	}
	reply, err := protocol.ReadReply(conn)
	if err != nil {
		return nil, err
	}
	if reply.Error != "" {
		return reply, ferrors.ProtocolError(reply.Error).
			WithContext("command", string(cmd.Kind)).
			Build()
	}
	return reply, nil
}

func (c *Client) connect(ctx context.Context) (net.Conn, error) {
	conn, err := c.dial(ctx)
	if err == nil {
		return conn, nil
	}
	if !c.autostart || !daemonAbsent(err) {
		return nil, c.dialError(err)
	}

	slog.Debug("No daemon listening, starting one", logfields.Socket(c.socketPath))
	if err := c.spawn(); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryDaemon, "failed to start daemon").Build()
	}

	err = c.policy.Do(ctx, c.clock, func(attempt int) error {
		var derr error
		conn, derr = c.dial(ctx)
		if derr != nil {
			slog.Debug("Daemon not ready", slog.Int("attempt", attempt), logfields.Error(derr))
			return c.dialError(derr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func (c *Client) dial(ctx context.Context) (net.Conn, error) {
	d := net.Dialer{Timeout: c.dialTimeout}
	return d.DialContext(ctx, "unix", c.socketPath)
}

func (c *Client) dialError(err error) error {
	return ferrors.WrapError(err, ferrors.CategoryTransport, "cannot reach daemon").
		WithContext("socket", c.socketPath).
		Retryable().
		Build()
}

// daemonAbsent reports whether err means nothing is listening, as opposed to
// a daemon that is present but failing.
func daemonAbsent(err error) bool {
	return errors.Is(err, os.ErrNotExist) || errors.Is(err, syscall.ENOENT) || errors.Is(err, syscall.ECONNREFUSED)
}
