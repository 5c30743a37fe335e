package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Logger writes human-oriented status lines to stderr, never stdout, so the
// resolved KEY=value stream on stdout stays machine-loadable.
type Logger struct {
	debug   bool
	noColor bool
	out     io.Writer
}

// New creates a logger. Color is disabled explicitly rather than sniffed
// from the terminal so --no-color behaves the same under pipes and CI.
func New(debug, noColor bool) *Logger {
	return &Logger{debug: debug, noColor: noColor, out: os.Stderr}
}

// NewWithWriter creates a logger writing to w, for tests.
func NewWithWriter(w io.Writer, debug, noColor bool) *Logger {
	return &Logger{debug: debug, noColor: noColor, out: w}
}

// Info logs an informational message.
func (l *Logger) Info(format string, args ...interface{}) {
	l.emit("\033[32m✓\033[0m", "✓", format, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.emit("\033[33m⚠\033[0m", "⚠", format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...interface{}) {
	l.emit("\033[31m✗\033[0m", "✗", format, args...)
}

// Debug logs a debug message when debug mode is enabled.
func (l *Logger) Debug(format string, args ...interface{}) {
	if !l.debug {
		return
	}
	l.emit("\033[36m[DEBUG]\033[0m", "[DEBUG]", format, args...)
}

func (l *Logger) emit(colored, plain, format string, args ...interface{}) {
	prefix := colored
	if l.noColor {
		prefix = plain
	}
	fmt.Fprintf(l.out, "%s %s\n", prefix, fmt.Sprintf(format, args...))
}

// Secret wraps a value that must never appear in log output. Formatting a
// Secret with %s or %v always yields the redaction marker.
type Secret string

// String implements fmt.Stringer.
func (s Secret) String() string {
	return "[REDACTED]"
}

// GoString implements fmt.GoStringer for %#v formatting.
func (s Secret) GoString() string {
	return "[REDACTED]"
}

// Redact replaces each non-trivial secret value occurring in s with the
// redaction marker. Values of three characters or fewer are skipped to
// avoid mangling unrelated text.
func Redact(s string, secrets []string) string {
	result := s
	for _, secret := range secrets {
		if len(secret) > 3 {
			result = strings.ReplaceAll(result, secret, "[REDACTED]")
		}
	}
	return result
}

// Mask returns a preview of a sensitive value safe for provenance output:
// the last four characters for values long enough to stay unguessable,
// otherwise a fixed marker.
func Mask(value string) string {
	if len(value) < 8 {
		return "***"
	}
	return "…" + value[len(value)-4:]
}
