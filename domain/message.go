// Package domain contains core concepts of the chat relay.
// This file defines Message records and related rules.
// Messages are immutable once the store has stamped them.
package domain

import (
	"strings"
	"time"
)

type MessageID int64

// Message represents an immutable chat record.
type Message struct {
	ID          MessageID
	SenderID    UserID
	RecipientID UserID
	Content     string
	Timestamp   time.Time // server receipt time
}

// Involves reports whether the user is the sender or the recipient.
func (m Message) Involves(userID UserID) bool {
	return m.SenderID == userID || m.RecipientID == userID
}

// MessageInput is the client intent to send a message, before any id or timestamp is assigned.
type MessageInput struct {
	SenderID    UserID
	RecipientID UserID
	Content     string
}

// IsBlank reports whether the content is empty once surrounding whitespace is removed.
func IsBlank(content string) bool {
	return strings.TrimSpace(content) == ""
}
