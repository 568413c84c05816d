package eventbus_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/eventbus"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/eventbus/testbus"
)

func TestEventBus_DeliversInOrder(t *testing.T) {
	bus := eventbus.New(16)

	var (
		mu  sync.Mutex
		got []string
	)
	done := make(chan struct{})
	bus.SubscribeSessionOutputUpdated(func(p eventbus.SessionOutputUpdatedPayload) {
		mu.Lock()
		got = append(got, p.Chunk)
		n := len(got)
		mu.Unlock()
		if n == 3 {
			close(done)
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go bus.Start(ctx)

	for _, c := range []string{"a", "b", "c"} {
		bus.PublishSessionOutputUpdated(eventbus.SessionOutputUpdatedPayload{Chunk: c})
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("events not delivered")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestEventBus_PanicHook(t *testing.T) {
	tb := testbus.New(t)

	recovered := make(chan any, 1)
	tb.OnPanic(func(_ eventbus.Event, _ any, r any) { recovered <- r })
	tb.SubscribeSessionReset(func(eventbus.SessionResetPayload) { panic("boom") })

	tb.PublishSessionReset(eventbus.SessionResetPayload{SessionID: "s"})

	select {
	case r := <-recovered:
		assert.Equal(t, "boom", r)
	case <-time.After(time.Second):
		t.Fatal("panic hook not called")
	}

	// The bus keeps running after a subscriber panics.
	tb.PublishVersionSaved(eventbus.VersionSavedPayload{Name: "after"})
	tb.AssertPublished(t, eventbus.EventVersionSaved)
}

func TestEventBus_OnSubscribe(t *testing.T) {
	bus := eventbus.New(1)

	var seen []eventbus.Event
	bus.OnSubscribe(func(e eventbus.Event) { seen = append(seen, e) })
	bus.SubscribeSessionError(func(eventbus.SessionErrorPayload) {})

	require.Len(t, seen, 1)
	assert.Equal(t, eventbus.EventSessionError, seen[0])
}

func TestEventBus_CountsDrops(t *testing.T) {
	bus := eventbus.New(1)
	var dropped []eventbus.Event
	bus.OnDrop(func(e eventbus.Event, _ any) { dropped = append(dropped, e) })

	bus.PublishSessionOutputUpdated(eventbus.SessionOutputUpdatedPayload{Chunk: "a"})
	bus.PublishSessionOutputUpdated(eventbus.SessionOutputUpdatedPayload{Chunk: "b"})
	bus.PublishVersionSaved(eventbus.VersionSavedPayload{Name: "v"})

	assert.Equal(t, uint64(2), bus.Dropped())
	assert.Equal(t, []eventbus.Event{eventbus.EventSessionOutputUpdate, eventbus.EventVersionSaved}, dropped)
}
