// Package logging writes the `[DEBUG] Component: message` lines enabled by --debug.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Logger writes debug and warning lines to a single writer.
// A nil *Logger is valid and discards everything.
type Logger struct {
	out   io.Writer
	debug bool
}

// New creates a logger writing to out. Debug lines are only written when debug is true.
func New(out io.Writer, debug bool) *Logger {
	if out == nil {
		out = os.Stderr
	}
	return &Logger{out: out, debug: debug}
}

// Enabled reports whether debug output is on
func (l *Logger) Enabled() bool {
	return l != nil && l.debug
}

// Debugf writes a debug line tagged with component
func (l *Logger) Debugf(component, format string, args ...interface{}) {
	if !l.Enabled() {
		return
	}
	l.write("DEBUG", component, format, args...)
}

// Warnf writes a warning line regardless of the debug setting
func (l *Logger) Warnf(component, format string, args ...interface{}) {
	if l == nil {
		return
	}
	l.write("WARN", component, format, args...)
}

func (l *Logger) write(level, component, format string, args ...interface{}) {
	msg := strings.TrimRight(fmt.Sprintf(format, args...), "\n")
	fmt.Fprintf(l.out, "[%s] %s: %s\n", level, component, msg)
}
