// Package testutil holds the test doubles shared across YumZoom packages.
package testutil

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/yumzoom/yumzoom/internal/infrastructure/monitoring/logging"
)

// MockLogger is a real logging.Logger writing into a zaptest observer, so
// With and Named behave as in production while entries stay inspectable.
// Fatal panics instead of exiting.
type MockLogger struct {
	logging.Logger
	logs *observer.ObservedLogs
}

// LogMessage is one captured entry.
type LogMessage struct {
	Level   string
	Logger  string
	Message string
	Fields  map[string]interface{}
}

// NewMockLogger captures every level from debug up.
func NewMockLogger() *MockLogger {
	core, logs := observer.New(zapcore.DebugLevel)
	return &MockLogger{
		Logger: logging.NewLoggerFromCore(core, zap.WithFatalHook(zapcore.WriteThenPanic)),
		logs:   logs,
	}
}

// GetMessages returns the entries captured so far.
func (m *MockLogger) GetMessages() []LogMessage {
	entries := m.logs.All()
	out := make([]LogMessage, len(entries))
	for i, e := range entries {
		out[i] = LogMessage{
			Level:   e.Level.String(),
			Logger:  e.LoggerName,
			Message: e.Message,
			Fields:  e.ContextMap(),
		}
	}
	return out
}

// Clear drops the captured entries.
func (m *MockLogger) Clear() { m.logs.TakeAll() }

// HasMessage reports whether msg was logged at level.
func (m *MockLogger) HasMessage(level, msg string) bool {
	for _, e := range m.logs.FilterMessage(msg).All() {
		if e.Level.String() == level {
			return true
		}
	}
	return false
}

//Personal.AI order the ending
