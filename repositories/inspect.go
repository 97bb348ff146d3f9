package repositories

import (
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

const defaultInspectLimit = 200

// InspectRow is one raw store entry rendered for debugging.
type InspectRow struct {
	Key    string `json:"key"`
	Type   string `json:"type"`
	Size   int    `json:"size"`
	Detail string `json:"detail"`
}

// Inspect lists the raw badger entries under prefix, in key order.
// It only reads, so it is safe to call while the relay is running.
func Inspect(db *badger.DB, prefix string, limit int) ([]InspectRow, error) {
	if limit <= 0 {
		limit = defaultInspectLimit
	}
	res := make([]InspectRow, 0)
	err := db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)) && len(res) < limit; it.Next() {
			item := it.Item()
			key := string(item.Key())
			err := item.Value(func(val []byte) error {
				res = append(res, inspectRow(key, val))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return res, err
}

func inspectRow(key string, val []byte) InspectRow {
	row := InspectRow{Key: key, Type: "RAW", Size: len(val), Detail: "-"}
	switch {
	case strings.HasPrefix(key, "msg:"):
		row.Type = "MESSAGE"
		m, err := decodeMessage(val)
		if err != nil {
			row.Detail = "corrupted: " + err.Error()
			break
		}
		row.Detail = fmt.Sprintf("#%d %d -> %d at %s: %q",
			m.ID, m.SenderID, m.RecipientID, m.Timestamp.Format("15:04:05"), m.Content)
	case strings.HasPrefix(key, "idx:"):
		row.Type = "INDEX"
	}
	return row
}
