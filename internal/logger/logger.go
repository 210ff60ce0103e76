// Package logger provides leveled logging for the marginalia CLI.
// Warnings and errors always print to stderr; debug and info messages are
// gated behind verbose mode (the --verbose flag) so normal runs stay quiet.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer. Defaults to os.Stderr.
// Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	logAt("DEBUG", true, format, args...)
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	logAt("INFO", true, format, args...)
}

// Warn prints a warning message.
func Warn(format string, args ...any) {
	logAt("WARN", false, format, args...)
}

// Error prints an error message.
func Error(format string, args ...any) {
	logAt("ERROR", false, format, args...)
}

func logAt(level string, gated bool, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if gated && !verbose {
		return
	}
	fmt.Fprintf(output, "["+level+"] "+format+"\n", args...)
}
