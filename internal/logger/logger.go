package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var defaultLogger *zerolog.Logger

// Setup configures the process logger. level is one of debug|info|warn|error,
// format is console (default) or json.
func Setup(level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	var out io.Writer = os.Stderr
	if strings.ToLower(format) != "json" {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}

	l := zerolog.New(out).Level(lvl).With().Timestamp().Logger()
	defaultLogger = &l
	return l
}

// L returns the process logger, falling back to info-level console output.
func L() *zerolog.Logger {
	if defaultLogger == nil {
		Setup("info", "console")
	}
	return defaultLogger
}

// Component returns a child logger tagged with the component name.
func Component(name string) *zerolog.Logger {
	l := L().With().Str("component", name).Logger()
	return &l
}

// LogRequest logs an outbound request being made.
func LogRequest(source, method, url string, params map[string]string) {
	ev := L().Debug().Str("component", source).Str("method", method).Str("url", url)
	if len(params) > 0 {
		ev = ev.Interface("params", params)
	}
	ev.Msg("outbound request")
}

// LogResponse logs an outbound response received.
func LogResponse(source string, statusCode int, duration time.Duration, resultCount int) {
	L().Info().
		Str("component", source).
		Int("status", statusCode).
		Int64("duration_ms", duration.Milliseconds()).
		Int("results", resultCount).
		Msg("outbound response")
}

// LogError logs an error from an outbound operation.
func LogError(source, operation string, err error) {
	L().Warn().Str("component", source).Str("op", operation).Err(err).Msg("outbound error")
}

// LogTransform logs the conversion of source rows into records.
func LogTransform(source string, inputCount, outputCount int, duration time.Duration) {
	L().Info().
		Str("component", source).
		Int("input", inputCount).
		Int("output", outputCount).
		Int64("duration_ms", duration.Milliseconds()).
		Msg("transformed")
}
