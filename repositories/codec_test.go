package repositories

import (
	"chat-relay/domain"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func Test_DecodeMessage_Skips_Unknown_Fields(t *testing.T) {
	req := require.New(t)
	message := domain.Message{ID: 7, SenderID: -3, RecipientID: 4, Content: "héllo", Timestamp: fixedNow}

	// Given a record written by a newer version with an extra field
	b := encodeMessage(message)
	b = protowire.AppendTag(b, 42, protowire.BytesType)
	b = protowire.AppendString(b, "future")

	decoded, err := decodeMessage(b)
	req.NoError(err)
	req.Equal(message, decoded)
}

func Test_DecodeMessage_Truncated_Record(t *testing.T) {
	b := encodeMessage(domain.Message{ID: 1, Content: "truncated", Timestamp: fixedNow})

	_, err := decodeMessage(b[:len(b)-3])
	require.Error(t, err)
}
