// Package monitoring holds the replaceable package-level logger shared by the
// renderers, the run store and the actuator link.
package monitoring

import (
	"io"
	"log"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// WriterLogger returns a logger writing prefixed, timestamped lines to w,
// suitable for SetLogger. A nil writer yields nil, which SetLogger treats
// as mute.
func WriterLogger(w io.Writer, prefix string) func(format string, v ...interface{}) {
	if w == nil {
		return nil
	}
	l := log.New(w, prefix, log.LstdFlags|log.Lmicroseconds)
	return l.Printf
}
