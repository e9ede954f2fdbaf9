package logger

import (
	"sync"
)

// TestLogger keeps entries in memory so tests can assert on what was logged.
type TestLogger struct {
	mu      sync.Mutex
	entries []LogEntry
	fields  []Field
	root    *TestLogger
}

type LogEntry struct {
	Level   string
	Message string
	Fields  []Field
}

// NewTestLogger creates an empty TestLogger.
func NewTestLogger() *TestLogger {
	return &TestLogger{
		entries: make([]LogEntry, 0),
	}
}

func (l *TestLogger) Debug(msg string, fields ...Field) {
	l.log("DEBUG", msg, fields...)
}

func (l *TestLogger) Info(msg string, fields ...Field) {
	l.log("INFO", msg, fields...)
}

func (l *TestLogger) Warn(msg string, fields ...Field) {
	l.log("WARN", msg, fields...)
}

func (l *TestLogger) Error(msg string, fields ...Field) {
	l.log("ERROR", msg, fields...)
}

func (l *TestLogger) Fatal(msg string, fields ...Field) {
	l.log("FATAL", msg, fields...)
}

// With returns a child that writes into the same entry list.
func (l *TestLogger) With(fields ...Field) Logger {
	child := &TestLogger{root: l.store()}
	child.fields = append(append(child.fields, l.fields...), fields...)
	return child
}

func (l *TestLogger) Named(name string) Logger {
	return l.With(String("logger", name))
}

func (l *TestLogger) Sync() error {
	return nil
}

func (l *TestLogger) store() *TestLogger {
	if l.root != nil {
		return l.root
	}
	return l
}

func (l *TestLogger) log(level, msg string, fields ...Field) {
	s := l.store()
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]Field, 0, len(l.fields)+len(fields))
	all = append(append(all, l.fields...), fields...)
	s.entries = append(s.entries, LogEntry{
		Level:   level,
		Message: msg,
		Fields:  all,
	})
}

// GetEntries returns a snapshot of all entries.
func (l *TestLogger) GetEntries() []LogEntry {
	s := l.store()
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]LogEntry, len(s.entries))
	copy(entries, s.entries)
	return entries
}

// HasMessage reports whether an entry with the given level and message was logged.
func (l *TestLogger) HasMessage(level, msg string) bool {
	for _, e := range l.GetEntries() {
		if e.Level == level && e.Message == msg {
			return true
		}
	}
	return false
}

// Clear drops all entries.
func (l *TestLogger) Clear() {
	s := l.store()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = s.entries[:0]
}
