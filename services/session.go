package services

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"context"
	"fmt"
	"sync"
)

type SessionState int

const (
	Unbound SessionState = iota
	Bound
	Closed
)

func (s SessionState) String() string {
	switch s {
	case Unbound:
		return "unbound"
	case Bound:
		return "bound"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("SessionState(%d)", int(s))
	}
}

// Session is the lifetime of one transport connection.
// It never touches relay state: every intent is forwarded to the dispatcher in arrival order.
type Session struct {
	mu            sync.Mutex
	connID        domain.ConnID
	dispatcher    contract.IDispatcher
	enforceSender bool
	state         SessionState
	user          domain.User
}

func NewSession(connID domain.ConnID, dispatcher contract.IDispatcher, enforceSender bool) *Session {
	return &Session{connID: connID, dispatcher: dispatcher, enforceSender: enforceSender}
}

func (s *Session) ConnID() domain.ConnID { return s.connID }

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// User returns the bound identity, if any.
func (s *Session) User() (domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user, s.state == Bound
}

// Join binds the session to the user. Joining again under another identity re-registers.
func (s *Session) Join(ctx context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Closed {
		return errors.ErrSessionClosed
	}
	if err := s.dispatcher.Dispatch(ctx, domain.JoinCommand{Conn: s.connID, User: user}); err != nil {
		return err
	}
	s.state = Bound
	s.user = user
	return nil
}

// Send forwards the message input. The payload sender is trusted unless the session enforces its own identity.
func (s *Session) Send(ctx context.Context, input domain.MessageInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Closed {
		return errors.ErrSessionClosed
	}
	if s.enforceSender {
		if s.state != Bound {
			return errors.ErrNotJoined
		}
		input.SenderID = s.user.ID
	}
	return s.dispatcher.Dispatch(ctx, domain.SendCommand{Conn: s.connID, Input: input})
}

// Disconnect is terminal and idempotent: only the first call reaches the relay.
func (s *Session) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Closed {
		return nil
	}
	s.state = Closed
	return s.dispatcher.Dispatch(ctx, domain.DisconnectCommand{Conn: s.connID})
}
