// Package debug sets up logging. Protocol tracing is controlled the same
// way as in libwayland, by setting $WAYLAND_DEBUG to a positive number.
package debug

import (
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var trace = zerolog.Nop()

func init() {
	debugLevel, err := strconv.ParseInt(os.Getenv("WAYLAND_DEBUG"), 10, 0)
	if err != nil {
		return
	}
	if debugLevel > 0 {
		trace = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
			With().Timestamp().Logger()
	}
}

// Printf writes a protocol trace message if tracing is enabled.
func Printf(str string, args ...any) {
	trace.Log().Msgf(str, args...)
}

// New creates the root logger. The format is either "json" or
// "console". Unknown levels fall back to info.
func New(w io.Writer, level, format string) zerolog.Logger {
	if format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if (err != nil) || (lvl == zerolog.NoLevel) {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// Component returns a child of log tagged with the component's name.
func Component(log zerolog.Logger, name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}
