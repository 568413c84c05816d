package eventbus_test

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/eventbus"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/eventbus/testbus"
	"github.com/4ndr0666/4ndr0debugger-sub000/internal/core/session"
)

func TestRegisterDebugLogger(t *testing.T) {
	tb := testbus.New(t)

	// A nop logger must not panic.
	eventbus.RegisterDebugLogger(tb.EventBus, zerolog.Nop())

	tb.PublishSessionStateChanged(eventbus.SessionStateChangedPayload{
		SessionID: "s1", From: session.StateIdle, To: session.StateSubmitting,
	})
	tb.PublishVersionSaved(eventbus.VersionSavedPayload{ID: "v1", Name: "first"})

	tb.AssertPublished(t, eventbus.EventVersionSaved)
}

func TestRegisterDebugLogger_LogsDrops(t *testing.T) {
	var buf bytes.Buffer
	bus := eventbus.New(1)
	eventbus.RegisterDebugLogger(bus, zerolog.New(&buf))

	// Not started: the second publish overflows the buffer.
	bus.PublishVersionSaved(eventbus.VersionSavedPayload{Name: "a"})
	bus.PublishVersionSaved(eventbus.VersionSavedPayload{Name: "b"})

	assert.Contains(t, buf.String(), "event dropped")
}

func TestRegisterDebugLogger_SessionFields(t *testing.T) {
	var buf bytes.Buffer
	bus := eventbus.New(1)
	eventbus.RegisterDebugLogger(bus, zerolog.New(&buf).Level(zerolog.DebugLevel))

	bus.PublishSessionStateChanged(eventbus.SessionStateChangedPayload{
		SessionID: "s1", From: session.StateIdle, To: session.StateSubmitting,
	})
	assert.Contains(t, buf.String(), `"session_id":"s1"`)
	assert.Contains(t, buf.String(), `"event":"session.state-changed"`)

	// Buffer is full: the chunk is dropped and its size reported.
	buf.Reset()
	bus.PublishSessionOutputUpdated(eventbus.SessionOutputUpdatedPayload{SessionID: "s1", Chunk: "abcd"})
	assert.Contains(t, buf.String(), "event dropped")
	assert.Contains(t, buf.String(), `"chunk_bytes":4`)
}

func TestRegisterDebugLogger_ChunksAtTrace(t *testing.T) {
	var buf bytes.Buffer
	bus := eventbus.New(4)
	eventbus.RegisterDebugLogger(bus, zerolog.New(&buf).Level(zerolog.DebugLevel))

	bus.PublishSessionOutputUpdated(eventbus.SessionOutputUpdatedPayload{SessionID: "s1", Chunk: "a"})
	assert.Empty(t, buf.String())
}
