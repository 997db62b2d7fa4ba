package manager

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/stopwatchd/internal/events"
	ferrors "git.home.luguber.info/inful/stopwatchd/internal/foundation/errors"
	"git.home.luguber.info/inful/stopwatchd/internal/metrics"
	"git.home.luguber.info/inful/stopwatchd/internal/protocol"
)

type countingRecorder struct {
	metrics.NoopRecorder
	mu      sync.Mutex
	results map[string]metrics.ResultLabel
	events  []string
}

func (r *countingRecorder) IncCommandResult(kind string, result metrics.ResultLabel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[kind] = result
}

func (r *countingRecorder) IncEvent(t string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, t)
}

func runService(t *testing.T, queueSize int) *Service {
	t.Helper()
	svc := NewService(New(clockwork.NewRealClock()), queueSize)
	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})
	return svc
}

func TestService_SubmitRoundTrip(t *testing.T) {
	svc := runService(t, 4)

	reply, err := svc.Submit(t.Context(), protocol.Command{Kind: protocol.KindStart, Name: "w"})
	require.NoError(t, err)
	require.Len(t, reply.Results, 1)
	assert.Equal(t, "w", reply.Results[0].Details.Name)

	reply, err = svc.Submit(t.Context(), protocol.Command{Kind: protocol.KindInfo, Identifiers: []string{"w"}})
	require.NoError(t, err)
	assert.Equal(t, "playing", reply.Results[0].Details.State)
}

func TestService_ConcurrentSubmitters(t *testing.T) {
	svc := runService(t, 2)

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Submit(t.Context(), protocol.Command{Kind: protocol.KindStart, Name: "w"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	reply, err := svc.Submit(t.Context(), protocol.Command{Kind: protocol.KindInfo})
	require.NoError(t, err)
	assert.Len(t, reply.Results, 20)
	assert.Len(t, reply.AccessOrder, 20)
}

func TestService_Ping(t *testing.T) {
	svc := NewService(New(nil), 1)
	started := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.SetDaemonInfo(func() protocol.DaemonInfo {
		return protocol.DaemonInfo{Version: "test", PID: 42, StartedAt: started}
	})
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	go func() { _ = svc.Run(ctx) }()

	_, err := svc.Submit(t.Context(), protocol.Command{Kind: protocol.KindStart})
	require.NoError(t, err)

	reply, err := svc.Submit(t.Context(), protocol.Command{Kind: protocol.KindPing})
	require.NoError(t, err)
	require.NotNil(t, reply.Daemon)
	assert.Equal(t, "test", reply.Daemon.Version)
	assert.Equal(t, 42, reply.Daemon.PID)
	assert.Equal(t, 1, reply.Daemon.Stopwatches)
	assert.Empty(t, reply.Results)
}

func TestService_PublishesEventsAndRecords(t *testing.T) {
	svc := NewService(New(nil), 4)
	rec := &countingRecorder{results: map[string]metrics.ResultLabel{}}
	svc.SetRecorder(rec)
	bus := events.NewBus()
	defer bus.Close()
	svc.SetEventBus(bus)
	ch, unsub := events.Subscribe[events.StopwatchEvent](bus, 8)
	defer unsub()

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	go func() { _ = svc.Run(ctx) }()

	_, err := svc.Submit(t.Context(), protocol.Command{Kind: protocol.KindStart, Name: "w"})
	require.NoError(t, err)
	_, err = svc.Submit(t.Context(), protocol.Command{Kind: protocol.KindStop, Identifiers: []string{"w", "nope"}})
	require.NoError(t, err)

	for _, want := range []events.Type{events.TypeStarted, events.TypeEnded} {
		select {
		case evt := <-ch:
			assert.Equal(t, want, evt.Type)
			assert.Equal(t, "w", evt.Name)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %s", want)
		}
	}

	// The event for the stop command is published after its metrics are recorded.
	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, metrics.ResultOK, rec.results["start"])
	assert.Equal(t, metrics.ResultPartial, rec.results["stop"])
	assert.Equal(t, []string{"started", "ended"}, rec.events)
}

func TestService_SubmitCanceled(t *testing.T) {
	svc := NewService(New(nil), 1)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err := svc.Submit(ctx, protocol.Command{Kind: protocol.KindInfo})
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryRuntime))
}

func TestService_RunTwice(t *testing.T) {
	svc := runService(t, 1)
	// Give the first Run a chance to claim the service.
	_, err := svc.Submit(t.Context(), protocol.Command{Kind: protocol.KindPing})
	require.NoError(t, err)

	err = svc.Run(t.Context())
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryInternal))
}
