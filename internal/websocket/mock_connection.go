package websocket

import (
	"errors"
	"sync"
	"time"
)

// MockConnection is an in-memory Connection used by tests
type MockConnection struct {
	mu sync.Mutex

	WrittenMessages []MockMessage
	ReadMessages    []MockMessage
	ReadIndex       int
	Closed          bool

	ReadDeadline  time.Time
	WriteDeadline time.Time
	PongHandler   func(string) error
	RemoteAddress string
	ReadLimit     int64

	// readBlock, when set, makes ReadMessage wait for Close once the
	// queued messages are exhausted, like an idle peer.
	readBlock chan struct{}
}

// MockMessage represents a message for mocking
type MockMessage struct {
	Type int
	Data []byte
	Err  error
}

// NewMockConnection creates a mock connection whose reads fail once the
// queued messages are consumed
func NewMockConnection() *MockConnection {
	return &MockConnection{RemoteAddress: "127.0.0.1:8080"}
}

// NewIdleMockConnection creates a mock connection whose reads block until Close
func NewIdleMockConnection() *MockConnection {
	m := NewMockConnection()
	m.readBlock = make(chan struct{})
	return m
}

func (m *MockConnection) WriteMessage(messageType int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Closed {
		return errors.New("connection closed")
	}
	m.WrittenMessages = append(m.WrittenMessages, MockMessage{Type: messageType, Data: data})
	return nil
}

func (m *MockConnection) ReadMessage() (int, []byte, error) {
	m.mu.Lock()
	if m.Closed {
		m.mu.Unlock()
		return 0, nil, errors.New("connection closed")
	}
	if m.ReadIndex < len(m.ReadMessages) {
		msg := m.ReadMessages[m.ReadIndex]
		m.ReadIndex++
		m.mu.Unlock()
		return msg.Type, msg.Data, msg.Err
	}
	block := m.readBlock
	m.mu.Unlock()

	if block != nil {
		<-block
		return 0, nil, errors.New("connection closed")
	}
	return 0, nil, errors.New("no more messages")
}

func (m *MockConnection) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.Closed && m.readBlock != nil {
		close(m.readBlock)
	}
	m.Closed = true
	return nil
}

func (m *MockConnection) SetReadDeadline(t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReadDeadline = t
	return nil
}

func (m *MockConnection) SetWriteDeadline(t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WriteDeadline = t
	return nil
}

func (m *MockConnection) SetReadLimit(limit int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReadLimit = limit
}

func (m *MockConnection) SetPongHandler(h func(string) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PongHandler = h
}

func (m *MockConnection) RemoteAddr() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.RemoteAddress
}

// AddReadMessage queues a message to be returned by ReadMessage
func (m *MockConnection) AddReadMessage(messageType int, data []byte, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReadMessages = append(m.ReadMessages, MockMessage{Type: messageType, Data: data, Err: err})
}

// GetWrittenMessages returns a copy of every message written so far
func (m *MockConnection) GetWrittenMessages() []MockMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]MockMessage, len(m.WrittenMessages))
	copy(result, m.WrittenMessages)
	return result
}

// IsClosed reports whether Close was called
func (m *MockConnection) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Closed
}
