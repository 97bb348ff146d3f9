package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"chat-relay/repositories"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/samber/lo"
)

var _ contract.IRelay = (*Coordinator)(nil)

// Censor rewrites forbidden words before a message is stored.
type Censor interface {
	Censor(original string) (string, []string)
}

// Coordinator is the relay control plane.
// It exclusively owns the message store, the presence directory and the set of live connections,
// and must only be called from the event loop goroutine.
type Coordinator struct {
	log              *slog.Logger
	store            repositories.IMessageRepository
	registry         contract.IRegistry
	connections      map[domain.ConnID]contract.Connection
	censor           Censor
	maxContentLength int
}

type CoordinatorOption func(*Coordinator)

// WithCensor enables moderation of message content.
func WithCensor(censor Censor) CoordinatorOption {
	return func(c *Coordinator) { c.censor = censor }
}

// WithMaxContentLength rejects content longer than n runes. Zero means unlimited.
func WithMaxContentLength(n int) CoordinatorOption {
	return func(c *Coordinator) { c.maxContentLength = n }
}

func NewCoordinator(log *slog.Logger, store repositories.IMessageRepository,
	registry contract.IRegistry, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		log:         log,
		store:       store,
		registry:    registry,
		connections: make(map[domain.ConnID]contract.Connection),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnConnect starts tracking a live connection. It stays unbound until it joins.
func (c *Coordinator) OnConnect(conn contract.Connection) {
	c.connections[conn.ID()] = conn
	c.log.Debug("Connection opened", "conn_id", conn.ID(), "connections", len(c.connections))
}

// OnJoin binds the user to the connection, broadcasts the presence snapshot to every
// live connection, then replays the user's history to the joining connection only.
func (c *Coordinator) OnJoin(user domain.User, connID domain.ConnID) error {
	if _, ok := c.connections[connID]; !ok {
		return fmt.Errorf("%w: %s", errors.ErrUnknownConnection, connID)
	}
	c.registry.Register(user, connID)
	c.log.Info("User joined", "user_id", user.ID, "name", user.Name, "conn_id", connID)

	c.broadcastPresence()

	history, err := c.store.QueryFor(user.ID)
	if err != nil {
		return fmt.Errorf("history of user %d: %w", user.ID, err)
	}
	c.deliver(connID, event.HistoryReplayed{Messages: history})
	return nil
}

// OnSend stores the message and delivers it to the sender's connection and, when present,
// to the recipient's connection. A rejected message is never partially delivered: the
// originating connection receives a SendRejected event and nothing else happens.
func (c *Coordinator) OnSend(connID domain.ConnID, input domain.MessageInput) (domain.Message, error) {
	message, err := c.append(input)
	if err != nil {
		c.log.Debug("Message rejected", "conn_id", connID, "sender_id", input.SenderID, "error", err)
		c.deliver(connID, event.SendRejected{Code: errors.Code(err), Reason: err.Error()})
		return domain.Message{}, err
	}

	delivered := event.MessageDelivered{Message: message}
	c.deliver(connID, delivered)

	recipientConn, online := c.registry.Lookup(message.RecipientID)
	if online && recipientConn != connID {
		c.deliver(recipientConn, delivered)
	}
	c.log.Debug("Message relayed",
		"message_id", message.ID,
		"sender_id", message.SenderID,
		"recipient_id", message.RecipientID,
		"recipient_online", online)
	return message, nil
}

func (c *Coordinator) append(input domain.MessageInput) (domain.Message, error) {
	content := input.Content
	if c.maxContentLength > 0 && utf8.RuneCountInString(content) > c.maxContentLength {
		return domain.Message{}, fmt.Errorf("%w (max %d)", errors.ErrContentTooLong, c.maxContentLength)
	}
	if c.censor != nil {
		censored, words := c.censor.Censor(content)
		if len(words) > 0 {
			c.log.Debug("Content censored", "sender_id", input.SenderID, "words", len(words))
		}
		content = censored
	}
	return c.store.Append(input.SenderID, input.RecipientID, content)
}

// OnDisconnect forgets the connection and its binding, then broadcasts the new snapshot
// to the remaining connections. Unknown or unbound connections are not an error.
func (c *Coordinator) OnDisconnect(connID domain.ConnID) {
	delete(c.connections, connID)
	if user, ok := c.registry.Unregister(connID); ok {
		c.log.Info("User left", "user_id", user.ID, "name", user.Name, "conn_id", connID)
	}
	c.broadcastPresence()
}

func (c *Coordinator) Stats() domain.RelayStats {
	return domain.RelayStats{
		Connections:    len(c.connections),
		OnlineUsers:    c.registry.Snapshot(),
		StoredMessages: c.store.Count(),
	}
}

func (c *Coordinator) broadcastPresence() {
	users := lo.Map(c.registry.Snapshot(), func(u domain.OnlineUser, _ int) domain.User {
		return u.User
	})
	evt := event.PresenceUpdated{Users: users}
	for connID := range c.connections {
		c.deliver(connID, evt)
	}
}

// deliver is fire-and-forget: a failing connection never affects the others.
func (c *Coordinator) deliver(connID domain.ConnID, e event.DomainEvent) {
	conn, ok := c.connections[connID]
	if !ok {
		c.log.Debug("Dropping event for unknown connection", "conn_id", connID, "event", e.Type())
		return
	}
	err := conn.Deliver(e)
	switch {
	case err == nil:
	case errors.Is(err, errors.ErrSessionClosed):
		// the transport closed first, its disconnect is still queued
		c.log.Debug("Dropping event for closed connection", "conn_id", connID, "event", e.Type())
	default:
		c.log.Warn("Failed to deliver event", "conn_id", connID, "event", e.Type(), "error", err)
	}
}
