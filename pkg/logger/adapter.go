package logger

import (
	"fmt"
	"log"
	"strings"
)

// LoggerAdapter adapts ColoredLogger to non-format logging interfaces
type LoggerAdapter struct {
	*ColoredLogger
}

// NewLoggerAdapter creates a new logger adapter
func NewLoggerAdapter(logger *ColoredLogger) *LoggerAdapter {
	return &LoggerAdapter{ColoredLogger: logger}
}

// Fatal implements the non-format Fatal variant
func (l *LoggerAdapter) Fatal(v ...interface{}) {
	l.ColoredLogger.Fatal(fmt.Sprint(v...))
}

// Fatalf forwards to the formatting Fatal
func (l *LoggerAdapter) Fatalf(format string, v ...interface{}) {
	l.ColoredLogger.Fatal(format, v...)
}

// Print implements standard print interface
func (l *LoggerAdapter) Print(v ...interface{}) {
	l.ColoredLogger.Info(fmt.Sprint(v...))
}

type errorWriter struct {
	logger *ColoredLogger
}

func (w errorWriter) Write(p []byte) (int, error) {
	w.logger.Error("%s", strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// StdLogger wraps a ColoredLogger as a *log.Logger at ERROR level,
// suitable for http.Server.ErrorLog.
func StdLogger(logger *ColoredLogger) *log.Logger {
	return log.New(errorWriter{logger: logger}, "", 0)
}
