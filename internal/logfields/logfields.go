package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyStopwatchID = "stopwatch_id"
	KeyName        = "name"
	KeyIdentifier  = "identifier"
	KeyCommand     = "command"
	KeyState       = "state"
	KeyCount       = "count"
	KeySocket      = "socket"
	KeyPath        = "path"
	KeyRemoteAddr  = "remote_addr"
	KeyDurationMS  = "duration_ms"
	KeyEventType   = "event_type"
	KeySubject     = "subject"
	KeyJobID       = "job_id"
	KeyPID         = "pid"
	KeyError       = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func StopwatchID(id string) slog.Attr { return slog.String(KeyStopwatchID, id) }
func Name(n string) slog.Attr         { return slog.String(KeyName, n) }
func Identifier(raw string) slog.Attr { return slog.String(KeyIdentifier, raw) }
func Command(kind string) slog.Attr   { return slog.String(KeyCommand, kind) }
func State(s string) slog.Attr        { return slog.String(KeyState, s) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Socket(path string) slog.Attr    { return slog.String(KeySocket, path) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func RemoteAddr(a string) slog.Attr   { return slog.String(KeyRemoteAddr, a) }
func EventType(t string) slog.Attr    { return slog.String(KeyEventType, t) }
func Subject(s string) slog.Attr      { return slog.String(KeySubject, s) }
func JobID(id string) slog.Attr       { return slog.String(KeyJobID, id) }
func PID(pid int) slog.Attr           { return slog.Int(KeyPID, pid) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }

// Elapsed records d in milliseconds.
func Elapsed(d time.Duration) slog.Attr { return DurationMS(float64(d) / float64(time.Millisecond)) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
