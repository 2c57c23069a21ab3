package testutil

import (
	"context"
	"sync"

	"github.com/gasdist/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// MockEventHandler records the types of the events it receives. It can be set
// to fail or to panic so event bus isolation can be checked.
type MockEventHandler struct {
	mu         sync.Mutex
	eventTypes []string
	handled    []string
	err        error
	panicWith  any
}

// NewMockEventHandler creates a handler subscribed to eventTypes, or to every event
// when none are given.
func NewMockEventHandler(eventTypes ...string) *MockEventHandler {
	return &MockEventHandler{eventTypes: eventTypes}
}

// EventTypes returns the event types this handler subscribes to.
func (h *MockEventHandler) EventTypes() []string {
	return h.eventTypes
}

// Handle records the event and returns the configured error.
func (h *MockEventHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.panicWith != nil {
		panic(h.panicWith)
	}
	h.handled = append(h.handled, event.EventType())
	return h.err
}

// HandledTypes returns the types of the handled events in delivery order.
func (h *MockEventHandler) HandledTypes() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.handled...)
}

// SetError sets the error to return from Handle.
func (h *MockEventHandler) SetError(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.err = err
}

// SetPanic makes Handle panic with v instead of recording.
func (h *MockEventHandler) SetPanic(v any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.panicWith = v
}

// RecordingPublisher is a shared.EventPublisher that keeps every published event.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

// NewRecordingPublisher creates an empty publisher.
func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{}
}

// Publish records the events.
func (p *RecordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

// Types returns the types of the recorded events in publish order.
func (p *RecordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

// TestEvent is a bare domain event on a random aggregate.
type TestEvent struct {
	shared.BaseDomainEvent
}

// NewTestEvent creates a new test event.
func NewTestEvent(eventType string) *TestEvent {
	return &TestEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "TestAggregate", uuid.New()),
	}
}
