// Package logging configures the process-wide JSON logger every component
// logs through.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

const serviceName = "rescue-dispatch"

// Setup installs the service logger as the slog default.
func Setup(level string) {
	slog.SetDefault(New(os.Stdout, level))
}

// New builds a JSON logger at the given level, tagged with the service name
// so aggregated output stays attributable. Unknown levels fall back to info.
func New(w io.Writer, level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler).With("service", serviceName)
}

func Fatalf(format string, args ...any) {
	slog.Error(fmt.Sprintf(format, args...))
	os.Exit(1)
}
