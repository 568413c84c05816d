package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Component creates a new logger with a component identifier.
// Uses the "cmp" key for consistency with zerolog conventions.
func Component(name string) zerolog.Logger {
	return log.With().Str("cmp", name).Logger()
}

// Call derives a logger for one generation call. A request id already in ctx
// is reused; otherwise a fresh one is minted, so the call's start and finish
// events share it. ContextHook writes the ids from ctx onto each event.
func Call(parent zerolog.Logger, ctx context.Context, kind, model string) zerolog.Logger {
	if GetRequestID(ctx) == "" {
		ctx = WithRequestID(ctx, uuid.NewString())
	}
	return parent.With().
		Ctx(ctx).
		Str("kind", kind).
		Str("model", model).
		Logger()
}
