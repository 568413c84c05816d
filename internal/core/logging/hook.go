package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// ContextHook copies the session, operation and request ids carried by the
// event's context onto the event. Empty values are skipped.
type ContextHook struct{}

// Run implements zerolog.Hook.
func (ContextHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	ctx := e.GetCtx()
	if ctx == nil || ctx == context.Background() {
		return
	}

	for _, key := range fieldKeys {
		if v := value(ctx, key); v != "" {
			e.Str(string(key), v)
		}
	}
}
