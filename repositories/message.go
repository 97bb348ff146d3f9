//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"fmt"
	"log/slog"
	"time"
)

// IMessageRepository is the append-only message log.
// Implementations are owned by a single goroutine and are not safe for concurrent use.
type IMessageRepository interface {
	Append(senderID, recipientID domain.UserID, content string) (domain.Message, error)
	QueryFor(userID domain.UserID) ([]domain.Message, error)
	Import(messages ...domain.Message) error
	Count() int
}

type Clock func() time.Time

func utcNow() time.Time {
	return time.Now().UTC()
}

// MemoryMessageRepository keeps every message in a slice, in append order.
type MemoryMessageRepository struct {
	log      *slog.Logger
	now      Clock
	messages []domain.Message
	nextID   domain.MessageID
}

var _ IMessageRepository = (*MemoryMessageRepository)(nil)

func NewMemoryMessageRepository(log *slog.Logger, now Clock) *MemoryMessageRepository {
	if now == nil {
		now = utcNow
	}
	return &MemoryMessageRepository{log: log, now: now, nextID: 1}
}

// Append stamps the next sequential id and the server time on a new message.
// Blank content is rejected and leaves the store untouched.
func (r *MemoryMessageRepository) Append(senderID, recipientID domain.UserID, content string) (domain.Message, error) {
	if domain.IsBlank(content) {
		return domain.Message{}, errors.ErrEmptyContent
	}
	message := domain.Message{
		ID:          r.nextID,
		SenderID:    senderID,
		RecipientID: recipientID,
		Content:     content,
		Timestamp:   r.now(),
	}
	r.messages = append(r.messages, message)
	r.nextID++
	return message, nil
}

// QueryFor returns the messages sent or received by the user, in store order.
func (r *MemoryMessageRepository) QueryFor(userID domain.UserID) ([]domain.Message, error) {
	var res []domain.Message
	for _, m := range r.messages {
		if m.Involves(userID) {
			res = append(res, m)
		}
	}
	return res, nil
}

// Import appends pre-stamped messages (seed data) and resumes the id counter after the largest id.
func (r *MemoryMessageRepository) Import(messages ...domain.Message) error {
	for _, m := range messages {
		if err := checkImport(m, r.nextID); err != nil {
			return err
		}
		r.messages = append(r.messages, m)
		r.nextID = m.ID + 1
	}
	r.log.Debug(fmt.Sprintf("%d messages imported", len(messages)))
	return nil
}

func (r *MemoryMessageRepository) Count() int {
	return len(r.messages)
}

func checkImport(m domain.Message, nextID domain.MessageID) error {
	if m.ID < nextID {
		return fmt.Errorf("%w: message %d would not keep ids increasing (next is %d)",
			errors.ErrInvalidPayload, m.ID, nextID)
	}
	if domain.IsBlank(m.Content) {
		return fmt.Errorf("message %d: %w", m.ID, errors.ErrEmptyContent)
	}
	return nil
}
