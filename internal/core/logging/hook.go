package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// ContextHook copies tab_id and user_id from the event's context.
type ContextHook struct{}

func (h ContextHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	ctx := e.GetCtx()
	if ctx == nil || ctx == context.Background() {
		return
	}

	if id := TabID(ctx); id != "" {
		e.Str("tab_id", id)
	}
	if id := UserID(ctx); id != "" {
		e.Str("user_id", id)
	}
}
