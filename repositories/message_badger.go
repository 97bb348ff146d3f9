package repositories

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/dgraph-io/badger/v4"
)

// OpenInMemoryDB opens a badger instance that never touches the disk.
// Everything it holds is lost when the process exits.
func OpenInMemoryDB() (*badger.DB, error) {
	return badger.Open(badger.DefaultOptions("").
		WithInMemory(true).
		WithLoggingLevel(badger.ERROR))
}

// BadgerMessageRepository stores messages in badger.
// Records live under "msg:{id_padded}" and every participant gets an index entry
// "idx:{user_id}:{id_padded}" so QueryFor is a prefix scan in id order.
type BadgerMessageRepository struct {
	db     *badger.DB
	log    *slog.Logger
	now    Clock
	nextID domain.MessageID
	count  int
}

var _ IMessageRepository = (*BadgerMessageRepository)(nil)

func NewBadgerMessageRepository(db *badger.DB, log *slog.Logger, now Clock) *BadgerMessageRepository {
	if now == nil {
		now = utcNow
	}
	return &BadgerMessageRepository{db: db, log: log, now: now, nextID: 1}
}

func messageKey(id domain.MessageID) []byte {
	return []byte(fmt.Sprintf("msg:%019d", id))
}

func indexPrefix(userID domain.UserID) []byte {
	return []byte(fmt.Sprintf("idx:%d:", userID))
}

func indexKey(userID domain.UserID, id domain.MessageID) []byte {
	return append(indexPrefix(userID), []byte(fmt.Sprintf("%019d", id))...)
}

func (r *BadgerMessageRepository) Append(senderID, recipientID domain.UserID, content string) (domain.Message, error) {
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
	if err := r.store(message); err != nil {
		return domain.Message{}, err
	}
	r.nextID++
	r.count++
	return message, nil
}

func (r *BadgerMessageRepository) store(m domain.Message) error {
	return r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(messageKey(m.ID), encodeMessage(m)); err != nil {
			return err
		}
		if err := txn.Set(indexKey(m.SenderID, m.ID), nil); err != nil {
			return err
		}
		if m.RecipientID == m.SenderID {
			return nil
		}
		return txn.Set(indexKey(m.RecipientID, m.ID), nil)
	})
}

// QueryFor walks the user's index keys in ascending id order and loads each record.
func (r *BadgerMessageRepository) QueryFor(userID domain.UserID) ([]domain.Message, error) {
	var res []domain.Message
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := indexPrefix(userID)
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			raw := string(it.Item().Key()[len(prefix):])
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return fmt.Errorf("corrupted index key %q: %w", it.Item().Key(), err)
			}
			item, err := txn.Get(messageKey(domain.MessageID(id)))
			if err != nil {
				return err
			}
			err = item.Value(func(value []byte) error {
				message, err := decodeMessage(value)
				if err != nil {
					return err
				}
				res = append(res, message)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (r *BadgerMessageRepository) Import(messages ...domain.Message) error {
	for _, m := range messages {
		if err := checkImport(m, r.nextID); err != nil {
			return err
		}
		if err := r.store(m); err != nil {
			return err
		}
		r.nextID = m.ID + 1
		r.count++
	}
	r.log.Debug(fmt.Sprintf("%d messages imported into badger", len(messages)))
	return nil
}

func (r *BadgerMessageRepository) Count() int {
	return r.count
}
