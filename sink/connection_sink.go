package sink

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

var _ contract.Connection = (*ConnectionSink)(nil)

// ConnectionSink is the relay side of a live connection.
// The relay pushes events into a bounded buffer and the transport writer drains Events.
type ConnectionSink struct {
	id     domain.ConnID
	events chan event.DomainEvent
	mu     sync.RWMutex
	closed bool
}

func NewConnectionSink(bufferSize int) *ConnectionSink {
	return &ConnectionSink{
		id:     domain.ConnID(uuid.NewString()),
		events: make(chan event.DomainEvent, bufferSize),
	}
}

func (s *ConnectionSink) ID() domain.ConnID { return s.id }

// Deliver never blocks the event loop. A slow reader loses the event rather than stalling everyone.
func (s *ConnectionSink) Deliver(e event.DomainEvent) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return fmt.Errorf("%w: %s", errors.ErrSessionClosed, s.id)
	}
	select {
	case s.events <- e:
		return nil
	default:
		return fmt.Errorf("%w: %s dropped %s", errors.ErrConnectionBufferFull, s.id, e.Type())
	}
}

// Events is closed by Close once the connection is gone.
func (s *ConnectionSink) Events() <-chan event.DomainEvent {
	return s.events
}

// Close is idempotent.
func (s *ConnectionSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.events)
}
