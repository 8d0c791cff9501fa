package eventbus

import (
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// RegisterDebugLogger traces bus traffic on logger. Publishes log at trace
// level with the payload type. Drops carry a running total so a saturated
// bus is visible in a single line.
func RegisterDebugLogger(bus *EventBus, logger zerolog.Logger) {
	var dropped atomic.Int64

	bus.OnPublish(func(event Event, payload any) {
		logger.Trace().
			Str("event", string(event)).
			Type("payload", payload).
			Msg("publish")
	})

	bus.OnDrop(func(event Event, _ any) {
		logger.Warn().
			Str("event", string(event)).
			Int64("dropped_total", dropped.Add(1)).
			Msg("bus full, event dropped")
	})

	bus.OnPanic(func(event Event, _ any, recovered any) {
		logger.Error().
			Str("event", string(event)).
			Str("recovered", fmt.Sprint(recovered)).
			Msg("subscriber panic")
	})
}
