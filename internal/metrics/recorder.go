package metrics

import "time"

// ResultLabel enumerates command outcomes for counters.
type ResultLabel string

const (
	// ResultOK means every identifier in the command resolved.
	ResultOK ResultLabel = "ok"
	// ResultPartial means some identifiers resolved and some did not.
	ResultPartial ResultLabel = "partial"
	// ResultFailed means no identifier resolved.
	ResultFailed ResultLabel = "failed"
	// ResultRejected means the request never reached the manager.
	ResultRejected ResultLabel = "rejected"
)

// Recorder defines observability hooks for the daemon. Implementations may
// forward to Prometheus; NoopRecorder is the default.
type Recorder interface {
	ObserveCommandDuration(kind string, d time.Duration)
	IncCommandResult(kind string, result ResultLabel)
	SetStopwatches(state string, n int)
	SetQueueDepth(n int)
	IncConnection(accepted bool)
	IncEvent(eventType string)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveCommandDuration(string, time.Duration) {}
func (NoopRecorder) IncCommandResult(string, ResultLabel)         {}
func (NoopRecorder) SetStopwatches(string, int)                   {}
func (NoopRecorder) SetQueueDepth(int)                            {}
func (NoopRecorder) IncConnection(bool)                           {}
func (NoopRecorder) IncEvent(string)                              {}

// ResultFor classifies a command by how many of its results failed.
func ResultFor(total, failed int) ResultLabel {
	switch {
	case failed == 0:
		return ResultOK
	case failed < total:
		return ResultPartial
	default:
		return ResultFailed
	}
}
