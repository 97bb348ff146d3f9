package repositories

import (
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestInspect_Lists_Messages_And_Indexes(t *testing.T) {
	req := require.New(t)
	db, err := OpenInMemoryDB()
	req.NoError(err)
	defer db.Close()
	repo := NewBadgerMessageRepository(db, logs.GetLoggerFromLevel(slog.LevelDebug), fixedClock)

	_, err = repo.Append(1, 2, "hi")
	req.NoError(err)
	_, err = repo.Append(2, 1, "hello")
	req.NoError(err)

	// All messages, in id order
	rows, err := Inspect(db, "msg:", 0)
	req.NoError(err)
	req.Len(rows, 2)
	req.Equal("MESSAGE", rows[0].Type)
	req.Equal("msg:0000000000000000001", rows[0].Key)
	req.Contains(rows[0].Detail, `"hi"`)

	// Index entries of user 1
	rows, err = Inspect(db, "idx:1:", 0)
	req.NoError(err)
	req.Len(rows, 2)
	req.Equal("INDEX", rows[0].Type)

	// Limit
	rows, err = Inspect(db, "", 1)
	req.NoError(err)
	req.Len(rows, 1)
}
