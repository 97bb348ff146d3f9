package repositories

import (
	"chat-relay/domain"
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of the stored record, wire compatible with:
//
//	message Message {
//	  int64  id           = 1;
//	  int64  sender_id    = 2;
//	  int64  recipient_id = 3;
//	  string content      = 4;
//	  int64  at           = 5; // unix nanoseconds
//	}
const (
	fieldID          protowire.Number = 1
	fieldSenderID    protowire.Number = 2
	fieldRecipientID protowire.Number = 3
	fieldContent     protowire.Number = 4
	fieldAt          protowire.Number = 5
)

func encodeMessage(m domain.Message) []byte {
	var b []byte
	b = appendVarint(b, fieldID, int64(m.ID))
	b = appendVarint(b, fieldSenderID, int64(m.SenderID))
	b = appendVarint(b, fieldRecipientID, int64(m.RecipientID))
	b = protowire.AppendTag(b, fieldContent, protowire.BytesType)
	b = protowire.AppendString(b, m.Content)
	b = appendVarint(b, fieldAt, m.Timestamp.UnixNano())
	return b
}

func appendVarint(b []byte, num protowire.Number, v int64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(v))
}

// decodeMessage skips unknown fields so older readers survive new ones.
func decodeMessage(b []byte) (domain.Message, error) {
	var m domain.Message
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return domain.Message{}, fmt.Errorf("decode tag: %w", protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == fieldContent && typ == protowire.BytesType:
			var s string
			s, n = protowire.ConsumeString(b)
			m.Content = s
		case typ == protowire.VarintType:
			var v uint64
			v, n = protowire.ConsumeVarint(b)
			if n >= 0 {
				setVarintField(&m, num, int64(v))
			}
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return domain.Message{}, fmt.Errorf("decode field %d: %w", num, protowire.ParseError(n))
		}
		b = b[n:]
	}
	return m, nil
}

func setVarintField(m *domain.Message, num protowire.Number, v int64) {
	switch num {
	case fieldID:
		m.ID = domain.MessageID(v)
	case fieldSenderID:
		m.SenderID = domain.UserID(v)
	case fieldRecipientID:
		m.RecipientID = domain.UserID(v)
	case fieldAt:
		m.Timestamp = time.Unix(0, v).UTC()
	}
}
