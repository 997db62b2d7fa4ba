package manager

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"git.home.luguber.info/inful/stopwatchd/internal/events"
	ferrors "git.home.luguber.info/inful/stopwatchd/internal/foundation/errors"
	"git.home.luguber.info/inful/stopwatchd/internal/logfields"
	"git.home.luguber.info/inful/stopwatchd/internal/metrics"
	"git.home.luguber.info/inful/stopwatchd/internal/protocol"
)

const defaultQueueSize = 64

// DaemonInfoFunc describes the running daemon for ping replies.
type DaemonInfoFunc func() protocol.DaemonInfo

type request struct {
	cmd      protocol.Command
	reply    chan *protocol.Reply
	enqueued time.Time
}

// Service runs a Manager on a single goroutine. Callers submit commands and
// block on their own reply channel; commands are processed in FIFO order.
type Service struct {
	m        *Manager
	queue    chan request
	clock    clockwork.Clock
	recorder metrics.Recorder
	bus      *events.Bus
	info     DaemonInfoFunc
	running  atomic.Bool
}

// NewService wraps m with a command queue holding up to queueSize commands.
func NewService(m *Manager, queueSize int) *Service {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &Service{
		m:        m,
		queue:    make(chan request, queueSize),
		clock:    m.clock,
		recorder: metrics.NoopRecorder{},
		info:     func() protocol.DaemonInfo { return protocol.DaemonInfo{} },
	}
}

// SetRecorder injects a metrics recorder (optional).
func (s *Service) SetRecorder(r metrics.Recorder) {
	if r == nil {
		r = metrics.NoopRecorder{}
	}
	s.recorder = r
}

// SetEventBus makes the service publish stopwatch events after each reply.
func (s *Service) SetEventBus(b *events.Bus) { s.bus = b }

// SetDaemonInfo installs the ping responder.
func (s *Service) SetDaemonInfo(fn DaemonInfoFunc) {
	if fn != nil {
		s.info = fn
	}
}

// Run drains the queue until ctx is done. It must be called exactly once.
func (s *Service) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ferrors.InternalError("manager service already running").Build()
	}
	slog.Info("Manager started", slog.Int("queue_size", cap(s.queue)))
	for {
		select {
		case <-ctx.Done():
			slog.Info("Manager stopped", logfields.Count(s.m.Len()))
			return nil
		case req := <-s.queue:
			s.handle(ctx, req)
		}
	}
}

func (s *Service) handle(ctx context.Context, req request) {
	reply := s.m.Execute(req.cmd)
	if req.cmd.Kind == protocol.KindPing {
		info := s.info()
		info.Stopwatches = s.m.Len()
		reply.Daemon = &info
	}
	evts := s.m.DrainEvents()

	// The reply channel is buffered, so this never blocks even if the caller left.
	req.reply <- reply

	kind := string(req.cmd.Kind)
	s.recorder.ObserveCommandDuration(kind, s.clock.Since(req.enqueued))
	s.recorder.IncCommandResult(kind, metrics.ResultFor(len(reply.Results), reply.Failed()))
	s.recorder.SetQueueDepth(len(s.queue))
	slog.Debug("Command processed",
		logfields.Command(kind),
		logfields.Count(len(reply.Results)),
		slog.Int("failed", reply.Failed()))

	s.publish(ctx, evts)
}

func (s *Service) publish(ctx context.Context, evts []events.StopwatchEvent) {
	for _, evt := range evts {
		s.recorder.IncEvent(string(evt.Type))
		if s.bus == nil {
			continue
		}
		if err := s.bus.Publish(ctx, evt); err != nil {
			slog.Warn("Failed to publish stopwatch event",
				logfields.EventType(string(evt.Type)),
				logfields.StopwatchID(evt.StopwatchID),
				logfields.Error(err))
		}
	}
}

// Submit enqueues cmd and waits for its reply. If ctx ends first the reply is
// abandoned; the command may still run.
func (s *Service) Submit(ctx context.Context, cmd protocol.Command) (*protocol.Reply, error) {
	req := request{cmd: cmd, reply: make(chan *protocol.Reply, 1), enqueued: s.clock.Now()}
	select {
	case s.queue <- req:
	case <-ctx.Done():
		return nil, ferrors.WrapError(ctx.Err(), ferrors.CategoryRuntime, "command not queued").
			WithContext("command", string(cmd.Kind)).
			Build()
	}
	select {
	case reply := <-req.reply:
		return reply, nil
	case <-ctx.Done():
		return nil, ferrors.WrapError(ctx.Err(), ferrors.CategoryRuntime, "gave up waiting for reply").
			WithContext("command", string(cmd.Kind)).
			Build()
	}
}

// QueueLen returns the number of commands waiting.
func (s *Service) QueueLen() int { return len(s.queue) }
