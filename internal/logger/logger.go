// Package logger configures the global zerolog logger.
package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	LogFormatJsonValue = "json"
	LogFormatTextValue = "text"
)

// SetLogLevel replaces log.Logger with a stderr logger at the given level
// and format.
func SetLogLevel(logLevelStr string, logFormat string) error {
	l, err := New(os.Stderr, logLevelStr, logFormat)
	if err != nil {
		return err
	}
	log.Logger = l
	return nil
}

// New builds a logger writing to w. Debug level adds the caller and pid.
func New(w io.Writer, logLevelStr string, logFormat string) (zerolog.Logger, error) {
	var logLevel zerolog.Level
	switch logLevelStr {
	case zerolog.LevelDebugValue:
		logLevel = zerolog.DebugLevel
	case zerolog.LevelInfoValue:
		logLevel = zerolog.InfoLevel
	case zerolog.LevelWarnValue:
		logLevel = zerolog.WarnLevel
	case zerolog.LevelErrorValue:
		logLevel = zerolog.ErrorLevel
	default:
		return zerolog.Nop(), fmt.Errorf("unknown log level %s", logLevelStr)
	}

	var formatWriter io.Writer
	switch logFormat {
	case LogFormatJsonValue:
		formatWriter = w
	case LogFormatTextValue:
		formatWriter = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	default:
		return zerolog.Nop(), fmt.Errorf("unknown log format %s", logFormat)
	}

	if logLevel == zerolog.DebugLevel {
		return zerolog.New(formatWriter).
			Level(logLevel).
			With().
			Timestamp().
			Caller().
			Int("pid", os.Getpid()).Logger(), nil
	}
	return zerolog.New(formatWriter).
		Level(logLevel).
		With().
		Timestamp().
		Logger(), nil
}
