package daemon

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/stopwatchd/internal/logfields"
	"git.home.luguber.info/inful/stopwatchd/internal/metrics"
	"git.home.luguber.info/inful/stopwatchd/internal/protocol"
	"git.home.luguber.info/inful/stopwatchd/internal/stopwatch"
)

// collectStats asks the manager for every stopwatch through the normal queue
// and reports counts by state.
func collectStats(ctx context.Context, svc Submitter, rec metrics.Recorder) (map[string]int, error) {
	reply, err := svc.Submit(ctx, protocol.Command{Kind: protocol.KindInfo})
	if err != nil {
		return nil, err
	}
	counts := map[string]int{
		string(stopwatch.StatePlaying): 0,
		string(stopwatch.StatePaused):  0,
		string(stopwatch.StateEnded):   0,
	}
	for _, res := range reply.Results {
		if res.Details != nil {
			counts[res.Details.State]++
		}
	}
	for state, n := range counts {
		rec.SetStopwatches(state, n)
	}
	return counts, nil
}

func statsTask(svc Submitter, rec metrics.Recorder) func(context.Context) {
	return func(ctx context.Context) {
		counts, err := collectStats(ctx, svc, rec)
		if err != nil {
			slog.Warn("Stats collection failed", logfields.Error(err))
			return
		}
		slog.Info("Stopwatch stats",
			slog.Int("playing", counts[string(stopwatch.StatePlaying)]),
			slog.Int("paused", counts[string(stopwatch.StatePaused)]),
			slog.Int("ended", counts[string(stopwatch.StateEnded)]))
	}
}
