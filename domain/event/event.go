package event

import (
	"chat-relay/domain"
)

type Type string

const (
	PresenceUpdatedType  Type = "PRESENCE_UPDATED"
	HistoryReplayedType  Type = "HISTORY_REPLAYED"
	MessageDeliveredType Type = "MESSAGE_DELIVERED"
	SendRejectedType     Type = "SEND_REJECTED"
)

// DomainEvent is an outbound event addressed to one or more connections.
type DomainEvent interface {
	Type() Type
}

// PresenceUpdated carries the full snapshot of bound users, never a delta.
type PresenceUpdated struct {
	Users []domain.User
}

func (PresenceUpdated) Type() Type { return PresenceUpdatedType }

// HistoryReplayed is sent once to a connection right after it joins.
type HistoryReplayed struct {
	Messages []domain.Message
}

func (HistoryReplayed) Type() Type { return HistoryReplayedType }

type MessageDelivered struct {
	Message domain.Message
}

func (MessageDelivered) Type() Type { return MessageDeliveredType }

// SendRejected is only ever addressed to the originating connection.
type SendRejected struct {
	Code   string
	Reason string
}

func (SendRejected) Type() Type { return SendRejectedType }
