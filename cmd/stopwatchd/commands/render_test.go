package commands

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/stopwatchd/internal/foundation/errors"
	"git.home.luguber.info/inful/stopwatchd/internal/journal"
	"git.home.luguber.info/inful/stopwatchd/internal/protocol"
)

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00.000"},
		{1500 * time.Millisecond, "00:01.500"},
		{61*time.Second + 7*time.Millisecond, "01:01.007"},
		{2*time.Hour + 3*time.Minute, "2:03:00.000"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, formatDuration(tc.d), "duration %s", tc.d)
	}
}

func TestNewRenderer_AutoUsesJSONWhenNotTerminal(t *testing.T) {
	var buf bytes.Buffer
	assert.True(t, newRenderer(&buf, "auto").json)
	assert.False(t, newRenderer(&buf, "text").json)
	assert.True(t, newRenderer(&buf, "json").json)
}

func sampleReply() *protocol.Reply {
	start := time.Now().Add(-2 * time.Minute)
	return &protocol.Reply{
		Command: protocol.KindPause,
		Results: []protocol.Result{
			{Identifier: "work", Details: &protocol.Details{
				ID: "00000000-0000-0000-0000-00000000abcd", ShortID: "00000000abcd", Name: "work",
				State: "paused", StartTime: &start, TotalTimeMS: 90500, LapCount: 1, Changed: true,
			}},
			{Identifier: "tea", Details: &protocol.Details{
				ShortID: "0000000000ff", Name: "tea", State: "ended", TotalTimeMS: 1000, LapCount: 2,
			}},
			{Identifier: "nope", Error: &protocol.ErrorPayload{
				Kind: protocol.ErrorNotFound, Identifier: "nope", Message: `no stopwatch matches "nope"`,
			}},
		},
	}
}

func TestRenderer_ReplyText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newRenderer(&buf, "text").Reply(sampleReply()))

	out := buf.String()
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "00000000abcd")
	assert.Contains(t, out, "01:30.500")
	assert.Contains(t, out, "2 minutes ago")
	assert.Contains(t, out, "ended (unchanged)")
	assert.NotContains(t, out, "paused (unchanged)")
	assert.Contains(t, out, `nope: no stopwatch matches "nope"`)
}

func TestRenderer_ReplyJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newRenderer(&buf, "json").Reply(sampleReply()))

	var decoded protocol.Reply
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Len(t, decoded.Results, 3)
	assert.Equal(t, 1, decoded.Failed())
}

func TestRenderer_EmptyAndPing(t *testing.T) {
	var buf bytes.Buffer
	r := newRenderer(&buf, "text")
	require.NoError(t, r.Reply(&protocol.Reply{Command: protocol.KindInfo, Results: []protocol.Result{}}))
	assert.Equal(t, "No stopwatches\n", buf.String())

	buf.Reset()
	require.NoError(t, r.Reply(&protocol.Reply{Command: protocol.KindPing, Daemon: &protocol.DaemonInfo{
		Version: "v1.2.3", PID: 42, StartedAt: time.Now().Add(-time.Hour), Stopwatches: 1,
	}}))
	assert.Contains(t, buf.String(), "stopwatchd v1.2.3 (pid 42)")
	assert.Contains(t, buf.String(), "1 stopwatch")
}

func TestRenderer_Ambiguous(t *testing.T) {
	var buf bytes.Buffer
	reply := &protocol.Reply{Command: protocol.KindStop, Results: []protocol.Result{{
		Identifier: "dup",
		Error: &protocol.ErrorPayload{
			Kind: protocol.ErrorAmbiguous, Identifier: "dup", Message: `"dup" matches 2 stopwatches`,
			Duplicates: []protocol.Duplicate{{ShortID: "000000000001", Name: "dup"}, {ShortID: "000000000002", Name: "dup"}},
		},
	}}}
	require.NoError(t, newRenderer(&buf, "text").Reply(reply))
	assert.Contains(t, buf.String(), "000000000001  dup")
	assert.Contains(t, buf.String(), "000000000002  dup")
}

func TestFailureError(t *testing.T) {
	assert.NoError(t, failureError(&protocol.Reply{}))

	err := failureError(sampleReply())
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryNotFound))

	amb := sampleReply()
	amb.Results = append(amb.Results, protocol.Result{Identifier: "d", Error: &protocol.ErrorPayload{Kind: protocol.ErrorAmbiguous}})
	assert.True(t, ferrors.HasCategory(failureError(amb), ferrors.CategoryAmbiguous))
}

func TestRenderer_Journal(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newRenderer(&buf, "text").Journal(nil))
	assert.Equal(t, "No journal entries\n", buf.String())

	buf.Reset()
	entries := []journal.Entry{{Seq: 1, Type: "started", ShortID: "00000000abcd", Name: "work", State: "playing", At: time.Now()}}
	require.NoError(t, newRenderer(&buf, "text").Journal(entries))
	assert.Contains(t, buf.String(), "started")
	assert.Contains(t, buf.String(), "00000000abcd")

	buf.Reset()
	require.NoError(t, newRenderer(&buf, "json").Journal(nil))
	assert.Equal(t, "[]\n", buf.String())
}
