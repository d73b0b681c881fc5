package events

import (
	"context"
	"sync"
)

// MockPublisher is a mock implementation of Publisher for testing.
type MockPublisher struct {
	mu              sync.RWMutex
	publishedEvents []*ConfirmationEvent
	publishError    error
	closed          bool
}

// NewMockPublisher creates a new mock publisher for testing.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{
		publishedEvents: make([]*ConfirmationEvent, 0),
	}
}

// PublishConfirmation records the event and returns any configured error.
func (m *MockPublisher) PublishConfirmation(ctx context.Context, event *ConfirmationEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.publishError != nil {
		return m.publishError
	}

	m.publishedEvents = append(m.publishedEvents, event)
	return nil
}

// Close marks the publisher as closed.
func (m *MockPublisher) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// SetPublishError configures PublishConfirmation to fail.
func (m *MockPublisher) SetPublishError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publishError = err
}

// PublishedEvents returns a copy of the recorded events.
func (m *MockPublisher) PublishedEvents() []*ConfirmationEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*ConfirmationEvent, len(m.publishedEvents))
	copy(out, m.publishedEvents)
	return out
}

// Closed reports whether Close was called.
func (m *MockPublisher) Closed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}
