package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/stopwatchd/internal/foundation/errors"
)

type typed interface{ EventType() Type }

type lapped struct{}

func (lapped) EventType() Type { return TypeLapped }

func TestBus_DeliversToTypedSubscribers(t *testing.T) {
	b := NewBus()
	defer b.Close()

	ch, unsub := Subscribe[StopwatchEvent](b, 1)
	defer unsub()
	other, unsubOther := Subscribe[lapped](b, 1)
	defer unsubOther()

	evt := StopwatchEvent{Type: TypeStarted, Name: "w"}
	require.NoError(t, b.Publish(context.Background(), evt))

	select {
	case got := <-ch:
		assert.Equal(t, evt, got)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	assert.Empty(t, other)
}

func TestBus_InterfaceSubscription(t *testing.T) {
	b := NewBus()
	defer b.Close()

	ch, unsub := Subscribe[typed](b, 1)
	defer unsub()

	require.NoError(t, b.Publish(context.Background(), lapped{}))
	got := <-ch
	assert.Equal(t, TypeLapped, got.EventType())
}

func TestBus_PublishRespectsContext(t *testing.T) {
	b := NewBus()
	defer b.Close()

	_, unsub := Subscribe[StopwatchEvent](b, 0)
	defer unsub()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := b.Publish(ctx, StopwatchEvent{Type: TypePaused})
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryRuntime))
}

func TestBus_UnsubscribeAndCount(t *testing.T) {
	b := NewBus()
	defer b.Close()

	_, unsub1 := Subscribe[StopwatchEvent](b, 1)
	ch2, unsub2 := Subscribe[StopwatchEvent](b, 1)
	assert.Equal(t, 2, SubscriberCount[StopwatchEvent](b))

	unsub2()
	unsub2()
	_, ok := <-ch2
	assert.False(t, ok)
	assert.Equal(t, 1, SubscriberCount[StopwatchEvent](b))

	unsub1()
	assert.Equal(t, 0, SubscriberCount[StopwatchEvent](b))
}

func TestBus_CloseClosesSubscriptions(t *testing.T) {
	b := NewBus()
	ch, _ := Subscribe[StopwatchEvent](b, 1)

	b.Close()
	b.Close()

	_, ok := <-ch
	require.False(t, ok)

	err := b.Publish(context.Background(), StopwatchEvent{})
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryDaemon))

	late, _ := Subscribe[StopwatchEvent](b, 1)
	_, ok = <-late
	assert.False(t, ok)
}

func TestBus_PublishNil(t *testing.T) {
	b := NewBus()
	defer b.Close()
	err := b.Publish(context.Background(), nil)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
}

func TestConsume_StopsWhenChannelCloses(t *testing.T) {
	b := NewBus()
	ch, _ := Subscribe[StopwatchEvent](b, 4)

	require.NoError(t, b.Publish(context.Background(), StopwatchEvent{Type: TypeStarted}))
	require.NoError(t, b.Publish(context.Background(), StopwatchEvent{Type: TypeEnded}))
	b.Close()

	var seen []Type
	Consume(context.Background(), ch, func(_ context.Context, evt StopwatchEvent) {
		seen = append(seen, evt.Type)
	})
	assert.Equal(t, []Type{TypeStarted, TypeEnded}, seen)
}
