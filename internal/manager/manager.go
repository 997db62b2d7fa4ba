package manager

import (
	"errors"
	"slices"

	"github.com/jonboulle/clockwork"

	"git.home.luguber.info/inful/stopwatchd/internal/events"
	"git.home.luguber.info/inful/stopwatchd/internal/protocol"
	"git.home.luguber.info/inful/stopwatchd/internal/stopwatch"
)

// Outcome is the result of a command for one identifier. Exactly one of
// Details and Err is set.
type Outcome struct {
	Identifier string
	Details    *stopwatch.Details
	Changed    bool
	Err        *ResolutionError
}

// Manager is the exclusive owner of the stopwatch collection.
type Manager struct {
	clock       clockwork.Clock
	stopwatches []*stopwatch.Stopwatch
	pending     []events.StopwatchEvent
}

// New creates an empty manager. A nil clock means the real clock.
func New(clock clockwork.Clock) *Manager {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Manager{clock: clock}
}

// Add appends sw as the most recently accessed stopwatch.
func (m *Manager) Add(sw *stopwatch.Stopwatch) {
	m.stopwatches = append(m.stopwatches, sw)
}

// Len returns the number of live stopwatches.
func (m *Manager) Len() int { return len(m.stopwatches) }

// LookupExactlyOne removes and returns the single stopwatch the identifier
// resolves to. The caller must Add it back unless it is being deleted.
func (m *Manager) LookupExactlyOne(raw string) (*stopwatch.Stopwatch, error) {
	ident := stopwatch.NewIdentifier(raw)
	res := stopwatch.Resolve(ident, m.stopwatches)
	if len(res.Matches) != 1 {
		return nil, newResolutionError(ident, res.Matches)
	}
	sw := res.Matches[0]
	m.stopwatches = slices.DeleteFunc(m.stopwatches, func(other *stopwatch.Stopwatch) bool { return other == sw })
	return sw, nil
}

// Start creates a stopwatch, running unless paused is set, and adds it.
func (m *Manager) Start(name string, paused bool) Outcome {
	var sw *stopwatch.Stopwatch
	if paused {
		sw = stopwatch.New(m.clock, name)
	} else {
		sw = stopwatch.Start(m.clock, name)
	}
	m.Add(sw)
	m.emit(events.TypeStarted, sw)
	d := sw.Details(false)
	return Outcome{Identifier: name, Details: &d, Changed: true}
}

// Info snapshots one stopwatch and promotes it to most recent.
func (m *Manager) Info(raw string, verbose bool) Outcome {
	return m.apply(raw, verbose, func(*stopwatch.Stopwatch) (events.Type, bool) { return "", true })
}

// InfoAll snapshots every stopwatch in collection order, oldest access first,
// without touching the order.
func (m *Manager) InfoAll(verbose bool) []Outcome {
	out := make([]Outcome, 0, len(m.stopwatches))
	for _, sw := range m.stopwatches {
		d := sw.Details(verbose)
		out = append(out, Outcome{Identifier: sw.ID().String(), Details: &d})
	}
	return out
}

// AccessOrder lists stopwatch ids oldest access first.
func (m *Manager) AccessOrder() []string {
	ids := make([]string, 0, len(m.stopwatches))
	for _, sw := range m.stopwatches {
		ids = append(ids, sw.ID().String())
	}
	return ids
}

// CountByState counts live stopwatches per state.
func (m *Manager) CountByState() map[stopwatch.State]int {
	counts := map[stopwatch.State]int{
		stopwatch.StatePlaying: 0,
		stopwatch.StatePaused:  0,
		stopwatch.StateEnded:   0,
	}
	for _, sw := range m.stopwatches {
		counts[sw.State()]++
	}
	return counts
}

// Stop ends each stopwatch permanently.
func (m *Manager) Stop(idents []string, verbose bool) []Outcome {
	return m.each(idents, verbose, func(sw *stopwatch.Stopwatch) (events.Type, bool) {
		return events.TypeEnded, sw.End()
	})
}

// Pause pauses each stopwatch's current lap.
func (m *Manager) Pause(idents []string, verbose bool) []Outcome {
	return m.each(idents, verbose, func(sw *stopwatch.Stopwatch) (events.Type, bool) {
		return events.TypePaused, sw.Pause()
	})
}

// Play resumes each stopwatch's current lap.
func (m *Manager) Play(idents []string, verbose bool) []Outcome {
	return m.each(idents, verbose, func(sw *stopwatch.Stopwatch) (events.Type, bool) {
		return events.TypePlayed, sw.Play()
	})
}

// Lap closes each stopwatch's current lap and opens a new one that runs only
// if the stopwatch was playing. Ended stopwatches are left alone.
func (m *Manager) Lap(idents []string, verbose bool) []Outcome {
	return m.each(idents, verbose, func(sw *stopwatch.Stopwatch) (events.Type, bool) {
		before := sw.State()
		if before == stopwatch.StateEnded {
			return events.TypeLapped, false
		}
		sw.NewLap(before == stopwatch.StatePlaying)
		return events.TypeLapped, true
	})
}

// Delete removes each stopwatch for good. The reported details are taken
// just before removal.
func (m *Manager) Delete(idents []string, verbose bool) []Outcome {
	out := make([]Outcome, 0, len(idents))
	for _, raw := range idents {
		sw, err := m.LookupExactlyOne(raw)
		if err != nil {
			out = append(out, failed(raw, err))
			continue
		}
		d := sw.Details(verbose)
		m.emit(events.TypeDeleted, sw)
		out = append(out, Outcome{Identifier: raw, Details: &d, Changed: true})
	}
	return out
}

// Execute runs one command and builds its aggregate reply. Ping replies carry
// no results; the daemon section is filled in by Service.
func (m *Manager) Execute(cmd protocol.Command) *protocol.Reply {
	reply := &protocol.Reply{Command: cmd.Kind}
	var outcomes []Outcome
	switch cmd.Kind {
	case protocol.KindStart:
		outcomes = []Outcome{m.Start(cmd.Name, cmd.Paused)}
	case protocol.KindInfo:
		if len(cmd.Identifiers) == 0 {
			outcomes = m.InfoAll(cmd.Verbose)
			reply.AccessOrder = m.AccessOrder()
		} else {
			outcomes = make([]Outcome, 0, len(cmd.Identifiers))
			for _, raw := range cmd.Identifiers {
				outcomes = append(outcomes, m.Info(raw, cmd.Verbose))
			}
		}
	case protocol.KindStop:
		outcomes = m.Stop(cmd.Identifiers, cmd.Verbose)
	case protocol.KindPause:
		outcomes = m.Pause(cmd.Identifiers, cmd.Verbose)
	case protocol.KindPlay:
		outcomes = m.Play(cmd.Identifiers, cmd.Verbose)
	case protocol.KindLap:
		outcomes = m.Lap(cmd.Identifiers, cmd.Verbose)
	case protocol.KindDelete:
		outcomes = m.Delete(cmd.Identifiers, cmd.Verbose)
	case protocol.KindPing:
	default:
		reply.Error = "unknown command " + string(cmd.Kind)
	}
	reply.Results = make([]protocol.Result, 0, len(outcomes))
	for _, o := range outcomes {
		reply.Results = append(reply.Results, o.Result())
	}
	return reply
}

// DrainEvents returns and clears the events produced since the last call.
func (m *Manager) DrainEvents() []events.StopwatchEvent {
	evts := m.pending
	m.pending = nil
	return evts
}

// Result converts the outcome to its wire form.
func (o Outcome) Result() protocol.Result {
	r := protocol.Result{Identifier: o.Identifier}
	if o.Err != nil {
		r.Error = o.Err.Payload()
		return r
	}
	r.Details = protocol.FromDetails(*o.Details, o.Changed)
	return r
}

type transition func(sw *stopwatch.Stopwatch) (evt events.Type, changed bool)

func (m *Manager) each(idents []string, verbose bool, fn transition) []Outcome {
	out := make([]Outcome, 0, len(idents))
	for _, raw := range idents {
		out = append(out, m.apply(raw, verbose, fn))
	}
	return out
}

// apply is the lookup, mutate, re-add, report cycle for one identifier.
func (m *Manager) apply(raw string, verbose bool, fn transition) Outcome {
	sw, err := m.LookupExactlyOne(raw)
	if err != nil {
		return failed(raw, err)
	}
	evt, changed := fn(sw)
	m.Add(sw)
	if evt == "" {
		changed = false
	} else if changed {
		m.emit(evt, sw)
	}
	d := sw.Details(verbose)
	return Outcome{Identifier: raw, Details: &d, Changed: changed}
}

func (m *Manager) emit(t events.Type, sw *stopwatch.Stopwatch) {
	m.pending = append(m.pending, events.StopwatchEvent{
		Type:        t,
		StopwatchID: sw.ID().String(),
		ShortID:     sw.ShortID(),
		Name:        sw.Name(),
		State:       string(sw.State()),
		TotalTime:   sw.TotalTime(),
		LapCount:    sw.LapCount(),
		At:          m.clock.Now(),
	})
}

func failed(raw string, err error) Outcome {
	var rerr *ResolutionError
	if !errors.As(err, &rerr) {
		rerr = &ResolutionError{Kind: protocol.ErrorNotFound, Identifier: raw}
	}
	return Outcome{Identifier: raw, Err: rerr}
}
