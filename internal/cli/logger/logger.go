// Package logger writes impactctl diagnostics to the log file with
// charmbracelet/log, keeping stdout for command output.
package logger

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

var logger = log.New(io.Discard)

// Init opens path for appending, falling back to stderr
func Init(path string, verbose bool) {
	var w io.Writer = os.Stderr
	if path != "" {
		if f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600); err == nil {
			w = f
		}
	}
	logger = log.NewWithOptions(w, log.Options{ReportTimestamp: true, Prefix: "impactctl"})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	} else {
		logger.SetLevel(log.InfoLevel)
	}
}

// Debug logs at debug level
func Debug(msg string, keyvals ...interface{}) { logger.Debug(msg, keyvals...) }

// Info logs at info level
func Info(msg string, keyvals ...interface{}) { logger.Info(msg, keyvals...) }

// Warn logs at warn level
func Warn(msg string, keyvals ...interface{}) { logger.Warn(msg, keyvals...) }

// Error logs at error level
func Error(msg string, keyvals ...interface{}) { logger.Error(msg, keyvals...) }
