// Package logger provides verbose logging for the pikia CLI.
// When verbose mode is enabled via the --verbose flag, debug messages
// are printed to stderr to trace scanning, detection, clustering and
// materialization. Errors are printed regardless of verbosity.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

type level string

const (
	levelDebug level = "DEBUG"
	levelInfo  level = "INFO"
	levelWarn  level = "WARN"
	levelError level = "ERROR"
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

// SetOutput redirects all log output. Defaults to os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// Debug traces fine-grained steps such as individual transfers.
func Debug(format string, args ...any) { logf(levelDebug, format, args...) }

// Info reports batch progress and phase changes.
func Info(format string, args ...any) { logf(levelInfo, format, args...) }

// Warn reports recoverable problems, such as a dropped detection.
func Warn(format string, args ...any) { logf(levelWarn, format, args...) }

// Error reports a per-item failure that does not abort a batch.
// It is printed even when verbose mode is off.
func Error(format string, args ...any) { logf(levelError, format, args...) }

// Section prints a header before a batch step in verbose mode.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

func logf(lvl level, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if !verbose && lvl != levelError {
		return
	}
	fmt.Fprintf(output, "[%s] %s\n", lvl, fmt.Sprintf(format, args...))
}
