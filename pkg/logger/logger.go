// Package logger provides the run-wide file logger.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/phuslu/log"
)

var (
	globalLogger *log.Logger
	logFile      *os.File
	level        = log.InfoLevel
	mu           sync.Mutex
)

// Init initializes the global logger with the specified log file path.
// Calls made before Init are dropped.
func Init(logPath string) error {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
	}

	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //#nosec G304 -- path is derived from the output directory
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	logFile = f
	globalLogger = &log.Logger{
		Level:      level,
		TimeFormat: "15:04:05.000000",
		Writer:     &log.ConsoleWriter{Writer: f},
	}
	return nil
}

// SetVerbose switches between debug and info level.
func SetVerbose(verbose bool) {
	mu.Lock()
	defer mu.Unlock()

	level = log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	if globalLogger != nil {
		globalLogger.Level = level
	}
}

// Close closes the log file.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	globalLogger = nil
}

// Info logs an info message.
func Info(format string, v ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	if globalLogger != nil {
		globalLogger.Info().Msgf(format, v...)
	}
}

// Debug logs a debug message.
func Debug(format string, v ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	if globalLogger != nil {
		globalLogger.Debug().Msgf(format, v...)
	}
}

// Error logs an error message.
func Error(format string, v ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	if globalLogger != nil {
		globalLogger.Error().Msgf(format, v...)
	}
}

// Warn logs a warning message.
func Warn(format string, v ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	if globalLogger != nil {
		globalLogger.Warn().Msgf(format, v...)
	}
}

// GetWriter returns the underlying writer for use by drivers.
func GetWriter() io.Writer {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		return logFile
	}
	return io.Discard
}
