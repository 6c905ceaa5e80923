// Package logger builds the process-wide zerolog logger. Handlers, the
// transfer engine and the reconciler all log through children of this logger
// so transfer references stay queryable across components.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Output formats. JSON is the deployment default; console is for reading
// locally.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Config selects the log level and output format. The zero value means
// info-level JSON on stdout.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // json, console
}

// New creates the root logger. Caller information is included because balance
// mutations are logged from several layers and the message alone does not
// locate them.
func New(cfg Config) zerolog.Logger {
	return zerolog.New(writerFor(cfg.Format)).
		Level(parseLevel(cfg.Level)).
		With().
		Timestamp().
		Caller().
		Logger()
}

func writerFor(format string) io.Writer {
	if format == FormatConsole {
		return zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
	}

	return os.Stdout
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
