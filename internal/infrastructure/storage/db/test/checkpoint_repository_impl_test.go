package db_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/Kenbak/zipher/internal/core/domain"
	dbbadger "github.com/Kenbak/zipher/internal/infrastructure/storage/db/badger"
	"github.com/Kenbak/zipher/internal/infrastructure/storage/db/inmemory"
	"github.com/stretchr/testify/require"
)

type checkpointRepository struct {
	Name       string
	Repository domain.CheckpointRepository
}

func TestCheckpointRepositoryImplementations(t *testing.T) {
	repositories := createCheckpointRepositories(t)

	for i := range repositories {
		repo := repositories[i]

		t.Run(repo.Name, func(t *testing.T) {
			t.Run("GetMissingCheckpoint", testGetMissingCheckpoint(repo))
			t.Run("SaveAndGetCheckpoint", testSaveAndGetCheckpoint(repo))
			t.Run("SaveOverwritesCheckpoint", testSaveOverwritesCheckpoint(repo))
			t.Run("DeleteCheckpoint", testDeleteCheckpoint(repo))
			t.Run("ListCheckpoints", testListCheckpoints(repo))
			t.Run("ConcurrentSaves", testConcurrentSaves(repo))
		})
	}
}

func testGetMissingCheckpoint(repo checkpointRepository) func(*testing.T) {
	return func(t *testing.T) {
		ctx := context.Background()

		checkpoint, err := repo.Repository.GetCheckpoint(ctx, randomAddress())
		require.NoError(t, err)
		require.Nil(t, checkpoint)

		_, err = repo.Repository.GetCheckpoint(ctx, "")
		require.ErrorIs(t, err, domain.ErrNullAddress)
	}
}

func testSaveAndGetCheckpoint(repo checkpointRepository) func(*testing.T) {
	return func(t *testing.T) {
		ctx := context.Background()
		checkpoint := makeRandomCheckpoint(randomAddress(), 3)

		err := repo.Repository.SaveCheckpoint(ctx, *checkpoint)
		require.NoError(t, err)

		stored, err := repo.Repository.GetCheckpoint(ctx, checkpoint.Address)
		require.NoError(t, err)
		require.Equal(t, checkpoint, stored)

		err = repo.Repository.SaveCheckpoint(ctx, domain.SyncCheckpoint{})
		require.ErrorIs(t, err, domain.ErrNullAddress)
	}
}

func testSaveOverwritesCheckpoint(repo checkpointRepository) func(*testing.T) {
	return func(t *testing.T) {
		ctx := context.Background()
		address := randomAddress()

		first := makeRandomCheckpoint(address, 2)
		err := repo.Repository.SaveCheckpoint(ctx, *first)
		require.NoError(t, err)

		second := first.Extend(
			address, first.LastScannedHeight+100,
			makeRandomTransactions(1, first.LastScannedHeight+50),
			time.Now(),
		)
		err = repo.Repository.SaveCheckpoint(ctx, *second)
		require.NoError(t, err)

		stored, err := repo.Repository.GetCheckpoint(ctx, address)
		require.NoError(t, err)
		require.Equal(t, second, stored)
		require.Len(t, stored.Transactions, 3)
	}
}

func testDeleteCheckpoint(repo checkpointRepository) func(*testing.T) {
	return func(t *testing.T) {
		ctx := context.Background()
		checkpoint := makeRandomCheckpoint(randomAddress(), 1)

		err := repo.Repository.SaveCheckpoint(ctx, *checkpoint)
		require.NoError(t, err)

		err = repo.Repository.DeleteCheckpoint(ctx, checkpoint.Address)
		require.NoError(t, err)

		stored, err := repo.Repository.GetCheckpoint(ctx, checkpoint.Address)
		require.NoError(t, err)
		require.Nil(t, stored)

		err = repo.Repository.DeleteCheckpoint(ctx, checkpoint.Address)
		require.NoError(t, err)
	}
}

func testListCheckpoints(repo checkpointRepository) func(*testing.T) {
	return func(t *testing.T) {
		ctx := context.Background()

		before, err := repo.Repository.ListCheckpoints(ctx)
		require.NoError(t, err)
		require.NotNil(t, before)

		checkpoints := []*domain.SyncCheckpoint{
			makeRandomCheckpoint(randomAddress(), 0),
			makeRandomCheckpoint(randomAddress(), 2),
		}
		for _, c := range checkpoints {
			err := repo.Repository.SaveCheckpoint(ctx, *c)
			require.NoError(t, err)
		}

		after, err := repo.Repository.ListCheckpoints(ctx)
		require.NoError(t, err)
		require.Len(t, after, len(before)+len(checkpoints))

		for _, c := range checkpoints {
			require.Contains(t, after, *c)
		}
	}
}

func testConcurrentSaves(repo checkpointRepository) func(*testing.T) {
	return func(t *testing.T) {
		ctx := context.Background()
		address := randomAddress()

		wg := &sync.WaitGroup{}
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				checkpoint := makeRandomCheckpoint(address, 1)
				checkpoint.LastScannedHeight = int64(2_600_000 + i)
				err := repo.Repository.SaveCheckpoint(ctx, *checkpoint)
				require.NoError(t, err)
			}(i)
		}
		wg.Wait()

		stored, err := repo.Repository.GetCheckpoint(ctx, address)
		require.NoError(t, err)
		require.NotNil(t, stored)
		require.Len(t, stored.Transactions, 1)
	}
}

func createCheckpointRepositories(t *testing.T) []checkpointRepository {
	inMemoryBadgerRepo, err := dbbadger.NewCheckpointRepositoryImpl("", nil)
	require.NoError(t, err)

	dbDir, err := os.MkdirTemp("", "zipher-checkpoints")
	require.NoError(t, err)

	badgerRepo, err := dbbadger.NewCheckpointRepositoryImpl(
		dbDir, dbbadger.NewLogger(),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		inMemoryBadgerRepo.Close()
		badgerRepo.Close()
		os.RemoveAll(dbDir)
	})

	return []checkpointRepository{
		{
			Name:       "inmemory",
			Repository: inmemory.NewCheckpointRepositoryImpl(),
		},
		{
			Name:       "badger_inmemory",
			Repository: inMemoryBadgerRepo,
		},
		{
			Name:       "badger",
			Repository: badgerRepo,
		},
	}
}

func makeRandomCheckpoint(address string, numOfTxs int) *domain.SyncCheckpoint {
	height := int64(randomIntInRange(2_600_000, 100_000))
	txs := makeRandomTransactions(numOfTxs, height)

	var checkpoint *domain.SyncCheckpoint
	return checkpoint.Extend(address, height, txs, time.UnixMilli(randomTimestamp()))
}

func makeRandomTransactions(num int, maxHeight int64) []domain.DecryptedTransaction {
	txs := make([]domain.DecryptedTransaction, 0, num)
	for i := 0; i < num; i++ {
		amount := domain.Zatoshi(randomIntInRange(1, 100_000_000))
		txs = append(txs, domain.DecryptedTransaction{
			TxID:     randomHex(32),
			Height:   maxHeight - int64(num-i),
			Received: amount,
			Outputs: []domain.DecryptedOutput{
				{
					Memo:      fmt.Sprintf("memo %d", i),
					Amount:    amount,
					Nullifier: randomHex(32),
				},
			},
		})
	}
	return txs
}
