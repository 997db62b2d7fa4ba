package protocol

import "time"

// Version is the wire protocol version sent with every request.
const Version = 1

// CommandKind names a daemon command.
type CommandKind string

const (
	KindStart  CommandKind = "start"
	KindInfo   CommandKind = "info"
	KindStop   CommandKind = "stop"
	KindLap    CommandKind = "lap"
	KindPause  CommandKind = "pause"
	KindPlay   CommandKind = "play"
	KindDelete CommandKind = "delete"
	KindPing   CommandKind = "ping"
)

// Kinds lists every command the daemon understands.
var Kinds = []CommandKind{KindStart, KindInfo, KindStop, KindLap, KindPause, KindPlay, KindDelete, KindPing}

// Valid reports whether k is a known command kind.
func (k CommandKind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Command is one client request. Name and Paused only apply to start;
// Identifiers and Verbose apply to every other kind. An info command with no
// identifiers targets every stopwatch.
type Command struct {
	Kind        CommandKind `json:"kind"`
	Name        string      `json:"name,omitempty"`
	Paused      bool        `json:"paused,omitempty"`
	Identifiers []string    `json:"identifiers,omitempty"`
	Verbose     bool        `json:"verbose,omitempty"`
}

// Request wraps a command with the protocol version.
type Request struct {
	Version int     `json:"version"`
	Command Command `json:"command"`
}

// NewRequest builds a request for the current protocol version.
func NewRequest(cmd Command) Request {
	return Request{Version: Version, Command: cmd}
}

// Reply is the single aggregate answer to a request.
type Reply struct {
	Command CommandKind `json:"command"`
	Results []Result    `json:"results"`
	// AccessOrder lists stopwatch ids oldest access first; only set for info-all.
	AccessOrder []string    `json:"access_order,omitempty"`
	Daemon      *DaemonInfo `json:"daemon,omitempty"`
	// Error is set when the request as a whole could not be processed.
	Error string `json:"error,omitempty"`
}

// Failed reports how many results carry an error.
func (r *Reply) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Error != nil {
			n++
		}
	}
	return n
}

// Result is the outcome for one identifier: exactly one of Details or Error is set.
type Result struct {
	Identifier string        `json:"identifier"`
	Details    *Details      `json:"details,omitempty"`
	Error      *ErrorPayload `json:"error,omitempty"`
}

// Details is a snapshot of one stopwatch.
type Details struct {
	ID          string     `json:"id"`
	ShortID     string     `json:"short_id"`
	Name        string     `json:"name"`
	State       string     `json:"state"`
	StartTime   *time.Time `json:"start_time,omitempty"`
	TotalTimeMS int64      `json:"total_time_ms"`
	LapCount    int        `json:"lap_count"`
	// Changed is false when the command was a no-op for this stopwatch.
	Changed bool  `json:"changed"`
	Laps    []Lap `json:"laps,omitempty"`
}

// TotalTime converts the wire milliseconds back to a duration.
func (d *Details) TotalTime() time.Duration {
	return time.Duration(d.TotalTimeMS) * time.Millisecond
}

// Lap is a snapshot of one lap.
type Lap struct {
	ID          string    `json:"id"`
	StartTime   time.Time `json:"start_time"`
	TotalTimeMS int64     `json:"total_time_ms"`
	Running     bool      `json:"running"`
	Ended       bool      `json:"ended"`
}

// TotalTime converts the wire milliseconds back to a duration.
func (l *Lap) TotalTime() time.Duration {
	return time.Duration(l.TotalTimeMS) * time.Millisecond
}

// ErrorKind classifies a per-identifier failure.
type ErrorKind string

const (
	ErrorNotFound  ErrorKind = "not_found"
	ErrorAmbiguous ErrorKind = "ambiguous"
)

// ErrorPayload describes why an identifier could not be resolved.
type ErrorPayload struct {
	Kind       ErrorKind   `json:"kind"`
	Identifier string      `json:"identifier"`
	Duplicates []Duplicate `json:"duplicates"`
	Message    string      `json:"message"`
}

// Duplicate is one of the stopwatches an ambiguous identifier matched.
type Duplicate struct {
	ID      string `json:"id"`
	ShortID string `json:"short_id"`
	Name    string `json:"name"`
}

// DaemonInfo answers a ping.
type DaemonInfo struct {
	Version     string    `json:"version"`
	PID         int       `json:"pid"`
	StartedAt   time.Time `json:"started_at"`
	Stopwatches int       `json:"stopwatches"`
}
