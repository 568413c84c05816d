package eventbus

import (
	"fmt"

	"github.com/rs/zerolog"
)

// RegisterDebugLogger registers bus hooks that log event activity. Output
// chunks are logged at trace level since one is published per streamed chunk;
// everything else is logged at debug. Drops and subscriber panics are always
// reported.
func RegisterDebugLogger(bus *EventBus, logger zerolog.Logger) {
	bus.OnPublish(func(event Event, payload any) {
		level := zerolog.DebugLevel
		if event == EventSessionOutputUpdate {
			level = zerolog.TraceLevel
		}
		withSession(logger.WithLevel(level), payload).
			Str("event", string(event)).
			Msg("event fired")
	})

	bus.OnDrop(func(event Event, payload any) {
		e := withSession(logger.Warn(), payload).Str("event", string(event))
		if p, ok := payload.(SessionOutputUpdatedPayload); ok {
			e = e.Int("chunk_bytes", len(p.Chunk))
		}
		e.Msg("event dropped: buffer full")
	})

	bus.OnPanic(func(event Event, payload any, recovered any) {
		withSession(logger.Error(), payload).
			Str("event", string(event)).
			Str("panic", fmt.Sprint(recovered)).
			Msg("subscriber panicked")
	})
}

func withSession(e *zerolog.Event, payload any) *zerolog.Event {
	if id := sessionOf(payload); id != "" {
		return e.Str("session_id", id)
	}
	return e
}

// sessionOf returns the session id carried by a payload, if any.
func sessionOf(payload any) string {
	switch p := payload.(type) {
	case SessionStateChangedPayload:
		return p.SessionID
	case SessionOutputUpdatedPayload:
		return p.SessionID
	case SessionErrorPayload:
		return p.SessionID
	case SessionResetPayload:
		return p.SessionID
	case ChatTurnCompletedPayload:
		return p.SessionID
	case FeaturesRetrievedPayload:
		return p.SessionID
	case VersionRestoredPayload:
		return p.SessionID
	default:
		return ""
	}
}
