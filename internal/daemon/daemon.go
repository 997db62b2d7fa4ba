package daemon

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"git.home.luguber.info/inful/stopwatchd/internal/config"
	"git.home.luguber.info/inful/stopwatchd/internal/events"
	"git.home.luguber.info/inful/stopwatchd/internal/journal"
	"git.home.luguber.info/inful/stopwatchd/internal/logfields"
	"git.home.luguber.info/inful/stopwatchd/internal/manager"
	"git.home.luguber.info/inful/stopwatchd/internal/metrics"
	"git.home.luguber.info/inful/stopwatchd/internal/protocol"
	"git.home.luguber.info/inful/stopwatchd/internal/version"
)

// Status represents the lifecycle state of the daemon.
type Status string

const (
	StatusStopped  Status = "stopped"
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusStopping Status = "stopping"
)

const (
	sinkBuffer      = 128
	shutdownTimeout = 5 * time.Second
)

// Options carries runtime dependencies that are not configuration.
type Options struct {
	// ConfigPath enables hot reload when the file exists.
	ConfigPath string
	// LevelVar receives log level changes on reload.
	LevelVar *slog.LevelVar
	Clock    clockwork.Clock
}

// Daemon wires the manager service to the socket server and the optional
// sinks: journal, NATS and metrics.
type Daemon struct {
	cfg    *config.Config
	opts   Options
	status atomic.Value

	startTime time.Time
	ready     chan struct{}

	mu      sync.RWMutex
	server  *Server
	metrics *metricsServer
}

// New creates a daemon for cfg.
func New(cfg *config.Config, opts Options) *Daemon {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	d := &Daemon{cfg: cfg, opts: opts, ready: make(chan struct{})}
	d.status.Store(StatusStopped)
	return d
}

// GetStatus returns the current lifecycle state.
func (d *Daemon) GetStatus() Status {
	return d.status.Load().(Status)
}

// Ready is closed once the socket accepts connections.
func (d *Daemon) Ready() <-chan struct{} { return d.ready }

// MetricsAddr returns the bound metrics address, if enabled.
func (d *Daemon) MetricsAddr() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.metrics == nil {
		return ""
	}
	return d.metrics.Addr()
}

// Run starts every component, serves until ctx is done and then shuts down
// in reverse order.
func (d *Daemon) Run(ctx context.Context) error {
	d.status.Store(StatusStarting)
	defer d.status.Store(StatusStopped)
	d.startTime = d.opts.Clock.Now()

	pid, err := AcquirePIDFile(d.cfg.Daemon.PIDFile)
	if err != nil {
		return err
	}
	defer func() {
		if err := pid.Release(); err != nil {
			slog.Warn("Failed to release pid file", logfields.Error(err))
		}
	}()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	if d.cfg.Metrics.Address != "" {
		reg := newMetricsRegistry()
		recorder = metrics.NewPrometheusRecorder(reg)
		ms, err := startMetricsServer(d.cfg.Metrics.Address, d.cfg.Metrics.Path, reg)
		if err != nil {
			return err
		}
		d.mu.Lock()
		d.metrics = ms
		d.mu.Unlock()
		defer d.shutdownMetrics()
	}

	bus := events.NewBus()
	defer bus.Close()

	svc := manager.NewService(manager.New(d.opts.Clock), d.cfg.Daemon.QueueSize)
	svc.SetRecorder(recorder)
	svc.SetEventBus(bus)
	svc.SetDaemonInfo(d.info)

	sinks, err := d.startSinks(runCtx, bus)
	if err != nil {
		return err
	}
	defer sinks.stop(bus)

	svcDone := make(chan error, 1)
	go func() { svcDone <- svc.Run(runCtx) }()
	defer func() {
		cancel()
		<-svcDone
	}()

	server, err := Listen(d.cfg.Daemon.SocketPath, d.cfg.Daemon.MaxConnections, svc, d.cfg.Daemon.IOTimeout)
	if err != nil {
		return err
	}
	server.SetRecorder(recorder)
	d.mu.Lock()
	d.server = server
	d.mu.Unlock()

	if d.cfg.Daemon.StatsInterval > 0 {
		sched, err := NewScheduler()
		if err != nil {
			return err
		}
		if _, err := sched.Every(runCtx, "stopwatch-stats", d.cfg.Daemon.StatsInterval, statsTask(svc, recorder)); err != nil {
			return err
		}
		sched.Start()
		defer func() {
			if err := sched.Stop(); err != nil {
				slog.Warn("Scheduler shutdown failed", logfields.Error(err))
			}
		}()
	}

	if watcher := d.startConfigWatcher(runCtx); watcher != nil {
		defer watcher.Stop()
	}

	d.status.Store(StatusRunning)
	close(d.ready)
	slog.Info("Daemon started",
		logfields.PID(os.Getpid()),
		logfields.Socket(server.Addr()),
		slog.String("version", version.String()))

	err = server.Serve(runCtx)
	d.status.Store(StatusStopping)
	slog.Info("Daemon stopping")
	return err
}

func (d *Daemon) info() protocol.DaemonInfo {
	return protocol.DaemonInfo{
		Version:   version.String(),
		PID:       os.Getpid(),
		StartedAt: d.startTime.UTC(),
	}
}

func (d *Daemon) shutdownMetrics() {
	d.mu.RLock()
	ms := d.metrics
	d.mu.RUnlock()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := ms.Shutdown(ctx); err != nil {
		slog.Warn("Metrics server shutdown failed", logfields.Error(err))
	}
}

func (d *Daemon) startConfigWatcher(ctx context.Context) *ConfigWatcher {
	if d.opts.ConfigPath == "" {
		return nil
	}
	if _, err := os.Stat(d.opts.ConfigPath); err != nil {
		return nil
	}
	cw, err := NewConfigWatcher(d.opts.ConfigPath, d.applyReload)
	if err == nil {
		err = cw.Start(ctx)
	}
	if err != nil {
		slog.Warn("Config hot reload disabled", logfields.Error(err))
		return nil
	}
	return cw
}

// applyReload applies the settings that can change without a restart.
func (d *Daemon) applyReload(cfg *config.Config) {
	if d.opts.LevelVar != nil {
		d.opts.LevelVar.Set(cfg.Logging.Level.Slog())
		slog.Info("Log level updated", slog.String("level", string(cfg.Logging.Level)))
	}
	if cfg.Daemon.SocketPath != d.cfg.Daemon.SocketPath || cfg.Metrics.Address != d.cfg.Metrics.Address ||
		cfg.Journal.Path != d.cfg.Journal.Path || cfg.Events.NATSURL != d.cfg.Events.NATSURL {
		slog.Warn("Some configuration changes require a daemon restart")
	}
}

// sinkSet tracks the goroutines consuming the event bus.
type sinkSet struct {
	workers workerGroup
	journal journal.Store
	nats    *events.NATSForwarder
}

func (d *Daemon) startSinks(ctx context.Context, bus *events.Bus) (*sinkSet, error) {
	s := &sinkSet{}
	// Sinks run until the bus closes so buffered events are not dropped.
	sinkCtx := context.WithoutCancel(ctx)

	if path := d.cfg.Journal.Path; path != "" {
		store, err := journal.OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		s.journal = store
		ch, _ := events.Subscribe[events.StopwatchEvent](bus, sinkBuffer)
		s.workers.Go("journal", func() { journal.Record(sinkCtx, store, ch) })
		slog.Info("Journal enabled", logfields.Path(path))
	}

	if url := d.cfg.Events.NATSURL; url != "" {
		fwd, err := events.DialNATS(url, d.cfg.Events.Subject)
		if err != nil {
			s.stop(bus)
			return nil, err
		}
		s.nats = fwd
		ch, _ := events.Subscribe[events.StopwatchEvent](bus, sinkBuffer)
		s.workers.Go("nats", func() { fwd.Run(sinkCtx, ch) })
	}
	return s, nil
}

func (s *sinkSet) stop(bus *events.Bus) {
	bus.Close()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.workers.StopAndWait(ctx); err != nil {
		slog.Warn("Event sinks did not drain in time", logfields.Error(err))
	}
	var errs []error
	if s.journal != nil {
		errs = append(errs, s.journal.Close())
	}
	if s.nats != nil {
		s.nats.Close()
	}
	if err := errors.Join(errs...); err != nil {
		slog.Warn("Failed to close sinks", logfields.Error(err))
	}
}
