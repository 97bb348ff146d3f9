package repositories

import (
	"chat-relay/domain"
	"embed"
	"encoding/json"
	"fmt"
	"time"
)

//go:embed seed/*.json
var seedFolder embed.FS

type seedMessage struct {
	ID          int64  `json:"id"`
	SenderID    int64  `json:"senderId"`
	RecipientID int64  `json:"recipientId"`
	Content     string `json:"content"`
	Timestamp   string `json:"timestamp"`
}

// SampleMessages returns the embedded sample conversation, ordered by id.
func SampleMessages() ([]domain.Message, error) {
	data, err := seedFolder.ReadFile("seed/messages.json")
	if err != nil {
		return nil, err
	}
	var raw []seedMessage
	if err = json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("sample messages: %w", err)
	}
	messages := make([]domain.Message, 0, len(raw))
	for _, m := range raw {
		at, err := time.Parse(time.RFC3339Nano, m.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("sample message %d: %w", m.ID, err)
		}
		messages = append(messages, domain.Message{
			ID:          domain.MessageID(m.ID),
			SenderID:    domain.UserID(m.SenderID),
			RecipientID: domain.UserID(m.RecipientID),
			Content:     m.Content,
			Timestamp:   at.UTC(),
		})
	}
	return messages, nil
}
