package daemon

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	ferrors "git.home.luguber.info/inful/stopwatchd/internal/foundation/errors"
	"git.home.luguber.info/inful/stopwatchd/internal/logfields"
)

// PIDFile guards against two daemons sharing one runtime directory.
type PIDFile struct {
	path string
}

// AcquirePIDFile writes the current pid to path. A file naming a live
// process is an error; one naming a dead process is replaced.
func AcquirePIDFile(path string) (*PIDFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryDaemon, "failed to create pid file directory").Build()
	}
	for range 2 {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if err == nil {
			_, werr := fmt.Fprintf(f, "%d\n", os.Getpid())
			cerr := f.Close()
			if err := errors.Join(werr, cerr); err != nil {
				_ = os.Remove(path)
				return nil, ferrors.WrapError(err, ferrors.CategoryDaemon, "failed to write pid file").Build()
			}
			return &PIDFile{path: path}, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, ferrors.WrapError(err, ferrors.CategoryDaemon, "failed to create pid file").
				WithContext("path", path).
				Build()
		}

		pid, alive := readPID(path)
		if alive {
			return nil, ferrors.DaemonError("daemon already running").
				WithContext("pid", pid).
				WithContext("path", path).
				Build()
		}
		slog.Info("Removing stale pid file", logfields.Path(path), logfields.PID(pid))
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, ferrors.WrapError(err, ferrors.CategoryDaemon, "failed to remove stale pid file").Build()
		}
	}
	return nil, ferrors.DaemonError("could not acquire pid file").WithContext("path", path).Build()
}

// ReadPID returns the pid recorded at path and whether that process is alive.
func ReadPID(path string) (int, bool) { return readPID(path) }

func readPID(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, processAlive(pid)
}

func processAlive(pid int) bool {
	err := syscall.Kill(pid, 0)
	return err == nil || errors.Is(err, syscall.EPERM)
}

// Release removes the pid file if it still names this process.
func (p *PIDFile) Release() error {
	if p == nil {
		return nil
	}
	if pid, _ := readPID(p.path); pid != os.Getpid() {
		return nil
	}
	if err := os.Remove(p.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return ferrors.WrapError(err, ferrors.CategoryDaemon, "failed to remove pid file").Build()
	}
	return nil
}
