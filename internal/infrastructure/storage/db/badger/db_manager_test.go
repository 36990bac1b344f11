package dbbadger_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/Kenbak/zipher/internal/core/domain"
	dbbadger "github.com/Kenbak/zipher/internal/infrastructure/storage/db/badger"
	"github.com/dgraph-io/badger/v3"
	"github.com/stretchr/testify/require"
)

var testCheckpoint = domain.SyncCheckpoint{
	Address:           "utest1qqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqq",
	LastScannedHeight: 2_800_000,
	Balance:           50_000,
	TotalReceived:     50_000,
	Transactions: []domain.DecryptedTransaction{
		{
			TxID:     "ab01",
			Height:   2_799_000,
			Received: 50_000,
			Outputs:  []domain.DecryptedOutput{{Memo: "hi", Amount: 50_000}},
		},
	},
	LastSyncTime: 1_700_000_000_000,
}

func TestJSONEncoding(t *testing.T) {
	buf, err := dbbadger.JSONEncode(testCheckpoint)
	require.NoError(t, err)

	fields := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(buf, &fields))
	require.Equal(t, testCheckpoint.Address, fields["address"])
	require.EqualValues(t, testCheckpoint.LastScannedHeight, fields["last_scanned_height"])

	var checkpoint domain.SyncCheckpoint
	require.NoError(t, dbbadger.JSONDecode(buf, &checkpoint))
	require.Equal(t, testCheckpoint, checkpoint)
}

func TestStoredCheckpointIsJSON(t *testing.T) {
	dir := t.TempDir()

	repo, err := dbbadger.NewCheckpointRepositoryImpl(dir, dbbadger.NewLogger())
	require.NoError(t, err)
	err = repo.SaveCheckpoint(context.Background(), testCheckpoint)
	require.NoError(t, err)
	repo.Close()

	// The values must be readable without going through badgerhold.
	opts := badger.DefaultOptions(filepath.Join(dir, "checkpoints"))
	opts.Logger = nil
	db, err := badger.Open(opts)
	require.NoError(t, err)
	defer db.Close()

	var values [][]byte
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			value, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			values = append(values, value)
		}
		return nil
	})
	require.NoError(t, err)
	require.Len(t, values, 1)

	var checkpoint domain.SyncCheckpoint
	require.NoError(t, json.Unmarshal(values[0], &checkpoint))
	require.Equal(t, testCheckpoint, checkpoint)
}
