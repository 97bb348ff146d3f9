package ws

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/errors"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

// Event names carried by the JSON envelope.
const (
	EventJoin         = "user:join"
	EventSend         = "message:send"
	EventUsersUpdated = "users:updated"
	EventHistory      = "messages:history"
	EventReceived     = "message:received"
	EventRejected     = "message:rejected"
)

// Envelope is the frame exchanged on the socket: {"event": "...", "data": ...}.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type UserPayload struct {
	ID      int64  `json:"id" validate:"gt=0"`
	Name    string `json:"name" validate:"required"`
	Profile string `json:"profile"`
}

// SendPayload leaves content unchecked: blank content is rejected by the message store itself.
type SendPayload struct {
	SenderID    int64  `json:"senderId" validate:"gt=0"`
	RecipientID int64  `json:"recipientId" validate:"gt=0"`
	Content     string `json:"content"`
}

type MessagePayload struct {
	ID          int64  `json:"id"`
	SenderID    int64  `json:"senderId"`
	RecipientID int64  `json:"recipientId"`
	Content     string `json:"content"`
	Timestamp   string `json:"timestamp"`
}

type RejectedPayload struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

// Inbound is a decoded client frame. Exactly one of Join and Send is set.
type Inbound struct {
	Event string
	Join  *domain.User
	Send  *domain.MessageInput
}

type Codec struct {
	validate *validator.Validate
}

func NewCodec() *Codec {
	return &Codec{validate: validator.New()}
}

// Decode parses and validates one client frame.
func (c *Codec) Decode(data []byte) (Inbound, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Inbound{}, fmt.Errorf("%w: %v", errors.ErrInvalidPayload, err)
	}

	switch env.Event {
	case EventJoin:
		var p UserPayload
		if err := c.decodeData(env.Data, &p); err != nil {
			return Inbound{Event: env.Event}, err
		}
		user := ToUser(p)
		return Inbound{Event: env.Event, Join: &user}, nil
	case EventSend:
		var p SendPayload
		if err := c.decodeData(env.Data, &p); err != nil {
			return Inbound{Event: env.Event}, err
		}
		input := domain.MessageInput{
			SenderID:    domain.UserID(p.SenderID),
			RecipientID: domain.UserID(p.RecipientID),
			Content:     p.Content,
		}
		return Inbound{Event: env.Event, Send: &input}, nil
	default:
		return Inbound{Event: env.Event}, fmt.Errorf("%w: %q", errors.ErrUnknownEvent, env.Event)
	}
}

func (c *Codec) decodeData(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: missing data", errors.ErrInvalidPayload)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidPayload, err)
	}
	if err := c.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidPayload, err)
	}
	return nil
}

// Encode turns a relay event into a server frame.
func (c *Codec) Encode(e event.DomainEvent) ([]byte, error) {
	var env struct {
		Event string `json:"event"`
		Data  any    `json:"data"`
	}
	switch evt := e.(type) {
	case event.PresenceUpdated:
		env.Event, env.Data = EventUsersUpdated, lo.Map(evt.Users, func(u domain.User, _ int) UserPayload {
			return FromUser(u)
		})
	case event.HistoryReplayed:
		env.Event, env.Data = EventHistory, lo.Map(evt.Messages, func(m domain.Message, _ int) MessagePayload {
			return FromMessage(m)
		})
	case event.MessageDelivered:
		env.Event, env.Data = EventReceived, FromMessage(evt.Message)
	case event.SendRejected:
		env.Event, env.Data = EventRejected, RejectedPayload{Code: evt.Code, Reason: evt.Reason}
	default:
		return nil, fmt.Errorf("unsupported event %T", e)
	}
	return json.Marshal(env)
}

func ToUser(p UserPayload) domain.User {
	return domain.User{ID: domain.UserID(p.ID), Name: p.Name, Profile: p.Profile}
}

func FromUser(u domain.User) UserPayload {
	return UserPayload{ID: int64(u.ID), Name: u.Name, Profile: u.Profile}
}

func FromMessage(m domain.Message) MessagePayload {
	return MessagePayload{
		ID:          int64(m.ID),
		SenderID:    int64(m.SenderID),
		RecipientID: int64(m.RecipientID),
		Content:     m.Content,
		Timestamp:   m.Timestamp.UTC().Format(time.RFC3339Nano),
	}
}

// ToMessage is the inverse of FromMessage, used by clients.
func ToMessage(p MessagePayload) (domain.Message, error) {
	at, err := time.Parse(time.RFC3339Nano, p.Timestamp)
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: timestamp %q", errors.ErrInvalidPayload, p.Timestamp)
	}
	return domain.Message{
		ID:          domain.MessageID(p.ID),
		SenderID:    domain.UserID(p.SenderID),
		RecipientID: domain.UserID(p.RecipientID),
		Content:     p.Content,
		Timestamp:   at,
	}, nil
}
