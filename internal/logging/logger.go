// Package logging builds the zerolog logger used by the engine and the
// CLI. Each Manager carries its own logger instance (no global singleton,
// matching the engine's "no global singleton" design note); this package
// is just the shared construction recipe.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

const (
	logTimeFormat = time.TimeOnly
	callerSkip    = 3
)

// lineInfoHook attaches caller info only to error-and-above events, so
// routine Info/Debug lines stay uncluttered.
type lineInfoHook struct{}

func (h lineInfoHook) Run(e *zerolog.Event, l zerolog.Level, msg string) {
	if l >= zerolog.ErrorLevel {
		e.Caller(callerSkip)
	}
}

// New builds a console-writer logger at the given level. An empty or
// unparseable level disables logging entirely rather than erroring, so a
// misconfigured deployment stays quiet instead of crashing.
func New(level string) zerolog.Logger {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		parsed = zerolog.Disabled
	}

	var w io.Writer = zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: logTimeFormat,
	}

	return zerolog.New(w).
		Level(parsed).
		With().
		Timestamp().
		Logger().
		Hook(lineInfoHook{})
}

// Component returns a child logger tagged with a "component" field, so a
// log line names the subsystem it came from rather than relying on
// caller info alone.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}
