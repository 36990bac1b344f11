package domain_test

import (
	"testing"
	"time"

	"github.com/Kenbak/zipher/internal/core/domain"
	"github.com/stretchr/testify/require"
)

const testAddress = "utest1qqqsyqcyq5rqwzqfpg9scrgwpugpzysnzs23v9ccrydpk8qarc0jqgfzyvjz2f389qzjq"

func TestCheckpointExtend(t *testing.T) {
	now := time.Now()

	t.Run("from_scratch", func(t *testing.T) {
		var prev *domain.SyncCheckpoint

		next := prev.Extend(testAddress, 100, []domain.DecryptedTransaction{
			{TxID: "aa", Height: 90, Received: 10},
			{TxID: "bb", Height: 95, Received: 5},
		}, now)

		require.Equal(t, testAddress, next.Address)
		require.Equal(t, int64(100), next.LastScannedHeight)
		require.Equal(t, domain.Zatoshi(15), next.TotalReceived)
		require.Equal(t, domain.Zatoshi(15), next.Balance)
		require.Zero(t, next.TotalSpent)
		require.Len(t, next.Transactions, 2)
		require.Equal(t, now.UnixMilli(), next.LastSyncTime)
	})

	t.Run("appends_history", func(t *testing.T) {
		prev := &domain.SyncCheckpoint{
			Address:           testAddress,
			LastScannedHeight: 100,
			Balance:           15,
			TotalReceived:     15,
			Transactions: []domain.DecryptedTransaction{
				{TxID: "aa", Height: 90, Received: 15},
			},
		}

		next := prev.Extend(testAddress, 200, []domain.DecryptedTransaction{
			{TxID: "cc", Height: 150, Received: 7},
		}, now)

		require.Equal(t, int64(200), next.LastScannedHeight)
		require.Equal(t, domain.Zatoshi(22), next.TotalReceived)
		require.Equal(t, domain.Zatoshi(22), next.Balance)
		require.Equal(t, []string{"aa", "cc"}, txids(next.Transactions))
		// The previous state must not be altered.
		require.Len(t, prev.Transactions, 1)
		require.Equal(t, domain.Zatoshi(15), prev.TotalReceived)
	})

	t.Run("height_never_decreases", func(t *testing.T) {
		prev := &domain.SyncCheckpoint{Address: testAddress, LastScannedHeight: 300}

		next := prev.Extend(testAddress, 250, nil, now)
		require.Equal(t, int64(300), next.LastScannedHeight)
	})
}

func TestCheckpointWalletBalance(t *testing.T) {
	var empty *domain.SyncCheckpoint
	balance := empty.WalletBalance()
	require.Zero(t, balance.Balance)
	require.NotNil(t, balance.Transactions)
	require.Empty(t, balance.Transactions)

	checkpoint := &domain.SyncCheckpoint{
		Balance:       3,
		TotalReceived: 3,
		Transactions:  []domain.DecryptedTransaction{{TxID: "aa", Received: 3}},
	}
	balance = checkpoint.WalletBalance()
	require.Equal(t, domain.Zatoshi(3), balance.Balance)
	require.Equal(t, domain.Zatoshi(3), balance.TotalReceived)
	require.True(t, checkpoint.HasTransaction("aa"))
	require.False(t, checkpoint.HasTransaction("bb"))

	balance.Transactions[0].TxID = "changed"
	require.Equal(t, "aa", checkpoint.Transactions[0].TxID)
}

func TestNewDecryptedTransaction(t *testing.T) {
	match := domain.MatchedTx{TxID: "0102", Height: 10, Timestamp: 1}
	note := domain.DecryptedNote{Memo: "Ziphers", Amount: 2_000_000, Nullifier: "ff"}

	tx := domain.NewDecryptedTransaction(match, note)
	require.Equal(t, "0201", tx.TxID)
	require.Equal(t, int64(10), tx.Height)
	require.Equal(t, domain.Zatoshi(2_000_000), tx.Received)
	require.Zero(t, tx.Spent)
	require.Len(t, tx.Outputs, 1)
	require.Equal(t, "Ziphers", tx.Outputs[0].Memo)
	require.False(t, tx.Outputs[0].IsSpent)
}

func txids(txs []domain.DecryptedTransaction) []string {
	ids := make([]string, 0, len(txs))
	for _, tx := range txs {
		ids = append(ids, tx.TxID)
	}
	return ids
}
