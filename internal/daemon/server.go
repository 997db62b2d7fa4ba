package daemon

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/net/netutil"

	ferrors "git.home.luguber.info/inful/stopwatchd/internal/foundation/errors"
	"git.home.luguber.info/inful/stopwatchd/internal/logfields"
	"git.home.luguber.info/inful/stopwatchd/internal/metrics"
	"git.home.luguber.info/inful/stopwatchd/internal/protocol"
)

// Submitter hands a command to the manager and waits for the reply.
type Submitter interface {
	Submit(ctx context.Context, cmd protocol.Command) (*protocol.Reply, error)
}

// Server accepts one request per connection on a Unix socket.
type Server struct {
	path      string
	listener  net.Listener
	svc       Submitter
	ioTimeout time.Duration
	recorder  metrics.Recorder
	wg        sync.WaitGroup
}

// Listen binds the socket at path. A socket file left behind by a dead daemon
// is removed; a live one is an error.
func Listen(path string, maxConns int, svc Submitter, ioTimeout time.Duration) (*Server, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryDaemon, "failed to create socket directory").
			WithContext("path", path).
			Build()
	}
	if err := removeStaleSocket(path); err != nil {
		return nil, err
	}

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryDaemon, "failed to listen on socket").
			WithContext("path", path).
			Build()
	}
	if err := os.Chmod(path, 0o600); err != nil {
		_ = ln.Close()
		return nil, ferrors.WrapError(err, ferrors.CategoryDaemon, "failed to restrict socket permissions").Build()
	}
	if maxConns > 0 {
		ln = netutil.LimitListener(ln, maxConns)
	}

	return &Server{
		path:      path,
		listener:  ln,
		svc:       svc,
		ioTimeout: ioTimeout,
		recorder:  metrics.NoopRecorder{},
	}, nil
}

func removeStaleSocket(path string) error {
	if _, err := os.Lstat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	conn, err := net.DialTimeout("unix", path, 200*time.Millisecond)
	if err == nil {
		_ = conn.Close()
		return ferrors.DaemonError("another daemon is already listening").
			WithContext("path", path).
			Build()
	}
	slog.Info("Removing stale socket", logfields.Socket(path))
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return ferrors.WrapError(err, ferrors.CategoryDaemon, "failed to remove stale socket").Build()
	}
	return nil
}

// SetRecorder injects a metrics recorder (optional).
func (s *Server) SetRecorder(r metrics.Recorder) {
	if r == nil {
		r = metrics.NoopRecorder{}
	}
	s.recorder = r
}

// Addr returns the socket path.
func (s *Server) Addr() string { return s.path }

// Serve accepts connections until ctx is done, then waits for in-flight
// connections and removes the socket file.
func (s *Server) Serve(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { _ = s.listener.Close() })
	defer stop()

	slog.Info("Listening", logfields.Socket(s.path))
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			s.recorder.IncConnection(false)
			slog.Warn("Accept failed", logfields.Error(err))
			continue
		}
		s.recorder.IncConnection(true)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(ctx, conn)
		}()
	}

	s.wg.Wait()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to remove socket", logfields.Socket(s.path), logfields.Error(err))
	}
	return nil
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	if s.ioTimeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(s.ioTimeout))
	}

	req, err := protocol.ReadRequest(conn)
	if err != nil {
		s.recorder.IncCommandResult("invalid", metrics.ResultRejected)
		slog.Debug("Rejected request", logfields.Error(err))
		s.write(conn, &protocol.Reply{Results: []protocol.Result{}, Error: rejectMessage(err)})
		return
	}

	reqCtx := ctx
	if s.ioTimeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, s.ioTimeout)
		defer cancel()
	}
	reply, err := s.svc.Submit(reqCtx, req.Command)
	if err != nil {
		slog.Warn("Command not processed", logfields.Command(string(req.Command.Kind)), logfields.Error(err))
		s.write(conn, &protocol.Reply{Command: req.Command.Kind, Results: []protocol.Result{}, Error: "daemon is shutting down or busy"})
		return
	}
	s.write(conn, reply)
}

func (s *Server) write(conn net.Conn, reply *protocol.Reply) {
	if s.ioTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(s.ioTimeout))
	}
	if err := protocol.WriteMessage(conn, reply); err != nil {
		slog.Debug("Failed to write reply", logfields.Error(err))
	}
}

func rejectMessage(err error) string {
	if ce, ok := ferrors.AsClassified(err); ok {
		return ce.Message()
	}
	return err.Error()
}
