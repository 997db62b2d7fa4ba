package journal

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/stopwatchd/internal/events"
	"git.home.luguber.info/inful/stopwatchd/internal/logfields"
)

// Record appends every event from ch to store until ch closes or ctx ends.
// Write failures are logged and do not stop the sink.
func Record(ctx context.Context, store Store, ch <-chan events.StopwatchEvent) {
	events.Consume(ctx, ch, func(ctx context.Context, evt events.StopwatchEvent) {
		if err := store.Append(ctx, evt); err != nil {
			slog.Warn("Journal append failed",
				logfields.EventType(string(evt.Type)),
				logfields.StopwatchID(evt.StopwatchID),
				logfields.Error(err))
		}
	})
}
