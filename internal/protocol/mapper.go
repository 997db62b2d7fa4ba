package protocol

import (
	"git.home.luguber.info/inful/stopwatchd/internal/stopwatch"
)

// FromDetails converts a stopwatch snapshot to its wire form.
func FromDetails(d stopwatch.Details, changed bool) *Details {
	out := &Details{
		ID:          d.ID.String(),
		ShortID:     d.ShortID,
		Name:        d.Name,
		State:       string(d.State),
		TotalTimeMS: d.TotalTime.Milliseconds(),
		LapCount:    d.LapCount,
		Changed:     changed,
	}
	if d.StartTime != nil {
		start := d.StartTime.UTC()
		out.StartTime = &start
	}
	if d.Laps != nil {
		out.Laps = make([]Lap, 0, len(d.Laps))
		for _, l := range d.Laps {
			out.Laps = append(out.Laps, FromLapSnapshot(l))
		}
	}
	return out
}

// FromLapSnapshot converts a lap snapshot to its wire form.
func FromLapSnapshot(l stopwatch.LapSnapshot) Lap {
	return Lap{
		ID:          l.ID.String(),
		StartTime:   l.WallStart.UTC(),
		TotalTimeMS: l.TotalTime.Milliseconds(),
		Running:     l.Running,
		Ended:       l.Ended,
	}
}
