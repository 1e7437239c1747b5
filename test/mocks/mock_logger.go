package mocks

import (
	"strings"
	"sync"

	"github.com/kevin07696/square-checkout/internal/domain/ports"
)

// MockLogger captures log calls for assertions
type MockLogger struct {
	mu sync.Mutex

	InfoCalls  []LogCall
	ErrorCalls []LogCall
	WarnCalls  []LogCall
	DebugCalls []LogCall
}

// LogCall represents a captured log call
type LogCall struct {
	Message string
	Fields  []ports.Field
}

// Field returns the value of the named field, or nil
func (c LogCall) Field(key string) interface{} {
	for _, f := range c.Fields {
		if f.Key == key {
			return f.Value
		}
	}
	return nil
}

// NewMockLogger creates a new mock logger
func NewMockLogger() *MockLogger {
	return &MockLogger{}
}

// Info records an info message
func (m *MockLogger) Info(msg string, fields ...ports.Field) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InfoCalls = append(m.InfoCalls, LogCall{Message: msg, Fields: fields})
}

// Error records an error message
func (m *MockLogger) Error(msg string, fields ...ports.Field) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ErrorCalls = append(m.ErrorCalls, LogCall{Message: msg, Fields: fields})
}

// Warn records a warning message
func (m *MockLogger) Warn(msg string, fields ...ports.Field) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WarnCalls = append(m.WarnCalls, LogCall{Message: msg, Fields: fields})
}

// Debug records a debug message
func (m *MockLogger) Debug(msg string, fields ...ports.Field) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DebugCalls = append(m.DebugCalls, LogCall{Message: msg, Fields: fields})
}

// HasWarn returns true if a warning containing substr was logged
func (m *MockLogger) HasWarn(substr string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return containsMessage(m.WarnCalls, substr)
}

// HasError returns true if an error containing substr was logged
func (m *MockLogger) HasError(substr string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return containsMessage(m.ErrorCalls, substr)
}

// HasInfo returns true if an info message containing substr was logged
func (m *MockLogger) HasInfo(substr string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return containsMessage(m.InfoCalls, substr)
}

// Reset clears all captured calls
func (m *MockLogger) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InfoCalls = nil
	m.ErrorCalls = nil
	m.WarnCalls = nil
	m.DebugCalls = nil
}

func containsMessage(calls []LogCall, substr string) bool {
	for _, c := range calls {
		if strings.Contains(c.Message, substr) {
			return true
		}
	}
	return false
}
