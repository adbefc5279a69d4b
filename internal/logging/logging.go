// Package logging defines the small logging seam shared by the engine's
// long-lived components, matching the teacher's cache.Logger / App.Log
// shape: a single Log(level, message) call, with no dependency on what
// receives it.
package logging

import "log"

// Logger receives leveled log lines from engine components. The host
// process (shell) can implement this to route lines to its own console;
// nil is always safe to pass and behaves like Discard.
type Logger interface {
	Log(level, message string)
}

// Std is the default Logger, writing through the standard library's log
// package, exactly as the teacher's cache and workspace packages fall back
// to log.Printf when no logger is injected.
type Std struct{}

func (Std) Log(level, message string) {
	log.Printf("[%s] %s", level, message)
}

// Discard silently drops every log line.
type Discard struct{}

func (Discard) Log(level, message string) {}

// Of returns l if non-nil, otherwise Discard{}, so callers never need a nil
// check before logging.
func Of(l Logger) Logger {
	if l == nil {
		return Discard{}
	}
	return l
}
