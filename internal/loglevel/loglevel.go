// Package loglevel gates the engine's plain log.Printf calls behind a
// single process-wide verbosity threshold (0=error,1=warn,2=info,3=debug),
// rather than swapping in a structured logging library.
package loglevel

import (
	"log"
	"sync/atomic"
)

const (
	LevelError = 0
	LevelWarn  = 1
	LevelInfo  = 2
	LevelDebug = 3
)

var current atomic.Int32

func init() {
	current.Store(LevelWarn)
}

// SetLevel sets the process-wide verbosity. Called once from
// ffi.InitLogging.
func SetLevel(level int) {
	current.Store(int32(level))
}

// Enabled reports whether level is at or below the current threshold.
func Enabled(level int) bool {
	return int32(level) <= current.Load()
}

// Errorf always logs; errors are never suppressed by verbosity.
func Errorf(format string, args ...any) {
	log.Printf(format, args...)
}

// Warnf logs when the threshold is warn or more verbose.
func Warnf(format string, args ...any) {
	if Enabled(LevelWarn) {
		log.Printf(format, args...)
	}
}

// Infof logs when the threshold is info or more verbose.
func Infof(format string, args ...any) {
	if Enabled(LevelInfo) {
		log.Printf(format, args...)
	}
}

// Debugf logs when the threshold is debug.
func Debugf(format string, args ...any) {
	if Enabled(LevelDebug) {
		log.Printf(format, args...)
	}
}
