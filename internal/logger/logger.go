// Package logger provides structured logging using zerolog.
package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Log is the process-wide logger. It starts as a console writer at debug
// level; Configure applies the operator's settings at startup.
var Log = consoleLogger()

func init() {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
}

// Configure applies the log level and output format from configuration.
// Unrecognized levels fall back to info. Format "json" emits machine
// readable lines; anything else keeps the console writer.
func Configure(level, format string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if format == "json" {
		Log = zerolog.New(os.Stdout).With().Timestamp().Logger()
		return
	}
	Log = consoleLogger()
}

func consoleLogger() zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).With().Timestamp().Caller().Logger()
}
