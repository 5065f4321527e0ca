// Package logging provides structured JSONL logging for the Jarvis engine.
// Entries are one JSON object per line so they can be tailed, shipped, or
// queried without parsing free-form text.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Severity levels for structured logs
type Severity string

const (
	SeverityDefault Severity = "DEFAULT"
	SeverityDebug   Severity = "DEBUG"
	SeverityInfo    Severity = "INFO"
	SeverityWarning Severity = "WARNING"
	SeverityError   Severity = "ERROR"
)

// Entry represents a single structured log entry.
type Entry struct {
	Severity  Severity               `json:"severity"`
	Message   string                 `json:"message"`
	Timestamp time.Time              `json:"timestamp"`
	EngineID  string                 `json:"engine_id"`
	Cycle     int                    `json:"cycle"`
	Labels    map[string]string      `json:"labels,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// Logger writes structured JSON log entries to an io.Writer. It is safe for
// concurrent use; each entry is written as one atomic line.
type Logger struct {
	writer   io.Writer
	closer   io.Closer
	engineID string
	cycle    int
	labels   map[string]string
	mu       sync.Mutex
	closed   bool
}

// Option allows configuring the Logger.
type Option func(*Logger)

// WithLabels adds custom labels to all log entries.
func WithLabels(labels map[string]string) Option {
	return func(l *Logger) {
		for k, v := range labels {
			l.labels[k] = v
		}
	}
}

// WithWriter sets a custom writer for log output. A writer that also
// implements io.Closer is closed by Close.
func WithWriter(w io.Writer) Option {
	return func(l *Logger) {
		l.writer = w
		if c, ok := w.(io.Closer); ok {
			l.closer = c
		}
	}
}

// New creates a Logger tagged with the given engine ID.
func New(engineID string, opts ...Option) *Logger {
	l := &Logger{
		writer:   os.Stderr,
		engineID: engineID,
		labels: map[string]string{
			"engine_id": engineID,
			"component": "jarvis-engine",
		},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Log writes a structured log entry.
func (l *Logger) Log(severity Severity, message string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}

	entry := Entry{
		Severity:  severity,
		Message:   message,
		Timestamp: time.Now().UTC(),
		EngineID:  l.engineID,
		Cycle:     l.cycle,
		Labels:    l.labels,
		Fields:    fields,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(l.writer, `{"severity":"ERROR","message":"failed to marshal log entry: %v"}`+"\n", err)
		return
	}
	fmt.Fprintf(l.writer, "%s\n", data)
}

// Info writes an INFO level log entry.
func (l *Logger) Info(message string) {
	l.Log(SeverityInfo, message, nil)
}

// Warning writes a WARNING level log entry.
func (l *Logger) Warning(message string) {
	l.Log(SeverityWarning, message, nil)
}

// Error writes an ERROR level log entry.
func (l *Logger) Error(message string) {
	l.Log(SeverityError, message, nil)
}

// SetCycle updates the poll-cycle number stamped on subsequent entries.
func (l *Logger) SetCycle(cycle int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cycle = cycle
}

// Close marks the logger as closed and closes the underlying writer when it
// owns one; further entries are dropped.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}
