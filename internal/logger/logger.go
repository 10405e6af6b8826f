// Package logger configures zerolog for the service. One root logger is
// built at startup; subsystems derive tagged children via Component so every
// line can be filtered by the part of the system that wrote it.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Setup builds the root logger and sets the global level.
//   - level: trace, debug, info, warn, error, fatal, panic (bad values fall
//     back to info)
//   - format: "pretty" for human-readable dev output, anything else emits
//     JSON for log shipping
func Setup(level, format string) zerolog.Logger {
	var writer io.Writer = os.Stdout
	if format == "pretty" {
		writer = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	return zerolog.New(writer).
		With().
		Timestamp().
		Caller().
		Logger()
}

// Component derives a child logger tagged with the subsystem name (worker,
// service, session manager). The tag is what operators grep for.
func Component(log zerolog.Logger, name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}
