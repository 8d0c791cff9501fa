// Package logging carries beacon's log conventions: a "cmp" field per
// component and tab/user ids lifted from context.Context.
package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Install attaches ContextHook to base and makes it the global logger.
func Install(base zerolog.Logger) zerolog.Logger {
	l := base.Hook(ContextHook{})
	log.Logger = l
	zerolog.DefaultContextLogger = &l
	return l
}

// Component derives a logger tagged with cmp=name from the global logger.
func Component(name string) zerolog.Logger {
	return log.With().Str("cmp", name).Logger()
}
