// Package testbus runs a real event bus for tests and records what its
// subscribers receive.
package testbus

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/eventbus"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/session"
)

// RecordedEvent is one delivered event.
type RecordedEvent struct {
	Event   eventbus.Event
	Payload any
}

// Bus is a started EventBus that records every delivery.
type Bus struct {
	*eventbus.EventBus

	mu      sync.Mutex
	events  []RecordedEvent
	changed chan struct{}
}

// New starts a bus for the duration of the test.
func New(t *testing.T) *Bus {
	t.Helper()

	tb := &Bus{EventBus: eventbus.New(256), changed: make(chan struct{})}

	track(tb, eventbus.EventChatTurnCompleted, tb.SubscribeChatTurnCompleted)
	track(tb, eventbus.EventFeaturesRetrieved, tb.SubscribeFeaturesRetrieved)
	track(tb, eventbus.EventNoticePublished, tb.SubscribeNoticePublished)
	track(tb, eventbus.EventSessionError, tb.SubscribeSessionError)
	track(tb, eventbus.EventSessionOutputUpdate, tb.SubscribeSessionOutputUpdated)
	track(tb, eventbus.EventSessionReset, tb.SubscribeSessionReset)
	track(tb, eventbus.EventSessionStateChanged, tb.SubscribeSessionStateChanged)
	track(tb, eventbus.EventVersionRestored, tb.SubscribeVersionRestored)
	track(tb, eventbus.EventVersionSaved, tb.SubscribeVersionSaved)

	ctx, cancel := context.WithCancel(context.Background())
	go tb.Start(ctx)
	t.Cleanup(cancel)

	return tb
}

func track[P any](tb *Bus, event eventbus.Event, subscribe func(func(P))) {
	subscribe(func(p P) {
		tb.mu.Lock()
		tb.events = append(tb.events, RecordedEvent{Event: event, Payload: p})
		close(tb.changed)
		tb.changed = make(chan struct{})
		tb.mu.Unlock()
	})
}

// Events returns the deliveries so far, oldest first.
func (tb *Bus) Events() []RecordedEvent {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return slices.Clone(tb.events)
}

// Reset forgets every recorded delivery.
func (tb *Bus) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.events = nil
}

// Payloads returns every recorded payload of type P, oldest first.
func Payloads[P any](tb *Bus) []P {
	var out []P
	for _, e := range tb.Events() {
		if p, ok := e.Payload.(P); ok {
			out = append(out, p)
		}
	}
	return out
}

// WaitFor reports whether event is delivered before timeout.
func (tb *Bus) WaitFor(event eventbus.Event, timeout time.Duration) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		tb.mu.Lock()
		found := slices.ContainsFunc(tb.events, func(e RecordedEvent) bool { return e.Event == event })
		changed := tb.changed
		tb.mu.Unlock()

		if found {
			return true
		}
		select {
		case <-changed:
		case <-deadline.C:
			return false
		}
	}
}

// AssertPublished fails the test unless event is delivered shortly.
func (tb *Bus) AssertPublished(t *testing.T, event eventbus.Event) {
	t.Helper()
	if !tb.WaitFor(event, 500*time.Millisecond) {
		t.Errorf("event %q was not published", event)
	}
}

// AssertNotPublished fails the test if event is delivered within wait.
func (tb *Bus) AssertNotPublished(t *testing.T, event eventbus.Event, wait time.Duration) {
	t.Helper()
	if tb.WaitFor(event, wait) {
		t.Errorf("event %q was published", event)
	}
}

// States returns the target state of each state change, in order.
func (tb *Bus) States() []session.State {
	var out []session.State
	for _, p := range Payloads[eventbus.SessionStateChangedPayload](tb) {
		out = append(out, p.To)
	}
	return out
}
