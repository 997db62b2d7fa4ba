package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	ferrors "git.home.luguber.info/inful/stopwatchd/internal/foundation/errors"
	"git.home.luguber.info/inful/stopwatchd/internal/journal"
	"git.home.luguber.info/inful/stopwatchd/internal/protocol"
)

type renderer struct {
	out  io.Writer
	json bool
}

// newRenderer picks JSON output when asked to, or in auto mode when out is
// not a terminal.
func newRenderer(out io.Writer, mode string) *renderer {
	r := &renderer{out: out}
	switch mode {
	case "json":
		r.json = true
	case "text":
	default:
		r.json = !isTerminal(out)
	}
	return r
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (r *renderer) encode(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Reply prints a daemon reply.
func (r *renderer) Reply(reply *protocol.Reply) error {
	if r.json {
		return r.encode(reply)
	}
	if reply.Daemon != nil {
		d := reply.Daemon
		_, err := fmt.Fprintf(r.out, "stopwatchd %s (pid %d) up since %s, %s\n",
			d.Version, d.PID, humanize.Time(d.StartedAt), plural(d.Stopwatches, "stopwatch", "stopwatches"))
		return err
	}
	if len(reply.Results) == 0 {
		_, err := fmt.Fprintln(r.out, "No stopwatches")
		return err
	}

	tw := tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATE\tSTARTED\tTOTAL\tLAPS")
	var failures []*protocol.ErrorPayload
	for _, res := range reply.Results {
		if res.Error != nil {
			failures = append(failures, res.Error)
			continue
		}
		d := res.Details
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n",
			d.ShortID, displayName(d.Name), stateLabel(reply.Command, d), started(d.StartTime), formatDuration(d.TotalTime()), d.LapCount)
		for i, lap := range d.Laps {
			fmt.Fprintf(tw, "\t  lap %d\t%s\t%s\t%s\t\n", i+1, lapState(lap), started(&lap.StartTime), formatDuration(lap.TotalTime()))
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, f := range failures {
		if err := r.failure(f); err != nil {
			return err
		}
	}
	return nil
}

func (r *renderer) failure(f *protocol.ErrorPayload) error {
	if _, err := fmt.Fprintf(r.out, "%s: %s\n", f.Identifier, f.Message); err != nil {
		return err
	}
	for _, dup := range f.Duplicates {
		if _, err := fmt.Fprintf(r.out, "  %s  %s\n", dup.ShortID, displayName(dup.Name)); err != nil {
			return err
		}
	}
	return nil
}

// Journal prints journal entries, oldest first.
func (r *renderer) Journal(entries []journal.Entry) error {
	if r.json {
		if entries == nil {
			entries = []journal.Entry{}
		}
		return r.encode(entries)
	}
	if len(entries) == 0 {
		_, err := fmt.Fprintln(r.out, "No journal entries")
		return err
	}
	tw := tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tAT\tEVENT\tID\tNAME\tSTATE\tTOTAL\tLAPS")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
			e.Seq, e.At.Local().Format(time.DateTime), e.Type, e.ShortID, displayName(e.Name), e.State, formatDuration(e.TotalTime), e.LapCount)
	}
	return tw.Flush()
}

// failureError turns per-identifier failures into a non-zero exit. Any
// ambiguity wins over not-found.
func failureError(reply *protocol.Reply) error {
	failed := reply.Failed()
	if failed == 0 {
		return nil
	}
	msg := fmt.Sprintf("%d of %d identifiers could not be resolved", failed, len(reply.Results))
	for _, res := range reply.Results {
		if res.Error != nil && res.Error.Kind == protocol.ErrorAmbiguous {
			return ferrors.AmbiguousError(msg).Build()
		}
	}
	return ferrors.NotFoundError(msg).Build()
}

// formatDuration renders d as [h:]mm:ss.mmm.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Millisecond)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	d -= s * time.Second
	ms := d / time.Millisecond
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d.%03d", h, m, s, ms)
	}
	return fmt.Sprintf("%02d:%02d.%03d", m, s, ms)
}

func started(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return humanize.Time(*t)
}

func displayName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "-"
	}
	return name
}

func stateLabel(kind protocol.CommandKind, d *protocol.Details) string {
	switch kind {
	case protocol.KindStop, protocol.KindPause, protocol.KindPlay, protocol.KindLap:
		if !d.Changed {
			return d.State + " (unchanged)"
		}
	}
	return d.State
}

func lapState(l protocol.Lap) string {
	switch {
	case l.Running:
		return "running"
	case l.Ended:
		return "ended"
	default:
		return "paused"
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return fmt.Sprintf("%d %s", n, many)
}
