// Package logging provides the leveled logger used throughout bayzzer.
// It wraps the standard library's log.Logger rather than reaching for a
// structured logging library, matching the teacher's own choice for its
// interprocedural and taint packages.
package logging

import (
	"io"
	"log"
	"os"
)

var (
	// Logger is the package-level logger, writing to stderr with a
	// microsecond-precision timestamp.
	Logger *log.Logger

	// Verbose controls whether Debugf/Infof/Warnf messages are printed.
	Verbose bool
)

func init() {
	Logger = log.New(os.Stderr, "", log.Ltime|log.Lmicroseconds)
	Verbose = os.Getenv("BAYZZER_VERBOSE") == "1"
}

// SetVerbose enables or disables verbose logging at runtime, typically
// from a --verbose CLI flag.
func SetVerbose(enabled bool) {
	Verbose = enabled
}

// SetOutput redirects logger output, used by tests to capture messages.
func SetOutput(w io.Writer) {
	Logger.SetOutput(w)
}

// Debugf prints a debug message if verbose mode is enabled.
func Debugf(format string, args ...interface{}) {
	if Verbose {
		Logger.Printf("[DEBUG] "+format, args...)
	}
}

// Infof prints an info message if verbose mode is enabled.
func Infof(format string, args ...interface{}) {
	if Verbose {
		Logger.Printf("[INFO] "+format, args...)
	}
}

// Warnf prints a warning message if verbose mode is enabled.
func Warnf(format string, args ...interface{}) {
	if Verbose {
		Logger.Printf("[WARN] "+format, args...)
	}
}

// Errorf always prints an error message regardless of verbose mode.
func Errorf(format string, args ...interface{}) {
	Logger.Printf("[ERROR] "+format, args...)
}
