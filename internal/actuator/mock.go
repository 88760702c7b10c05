package actuator

import (
	"bytes"
	"errors"
	"strings"
	"sync"
)

// ErrPortClosed is returned by MockPort writes after Close.
var ErrPortClosed = errors.New("port closed")

// MockPort captures everything written to it for tests and dry runs.
type MockPort struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	closed bool

	// WriteError, if set, is returned by every Write.
	WriteError error
}

// NewMockPort returns an empty MockPort.
func NewMockPort() *MockPort {
	return &MockPort{}
}

// Write records p.
func (m *MockPort) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrPortClosed
	}
	if m.WriteError != nil {
		return 0, m.WriteError
	}
	return m.buf.Write(p)
}

// Close marks the port closed.
func (m *MockPort) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (m *MockPort) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Lines returns the commands written so far, without terminators.
func (m *MockPort) Lines() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := strings.TrimSuffix(m.buf.String(), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
