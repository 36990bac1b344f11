package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/Kenbak/zipher/internal/core/domain"
)

type checkpointStore struct {
	checkpoints map[string]domain.SyncCheckpoint
	locker      *sync.RWMutex
}

// CheckpointRepositoryImpl represents an in memory storage
type CheckpointRepositoryImpl struct {
	store *checkpointStore
}

// NewCheckpointRepositoryImpl returns a new empty CheckpointRepositoryImpl
func NewCheckpointRepositoryImpl() domain.CheckpointRepository {
	return &CheckpointRepositoryImpl{
		store: &checkpointStore{
			checkpoints: make(map[string]domain.SyncCheckpoint),
			locker:      &sync.RWMutex{},
		},
	}
}

func (r *CheckpointRepositoryImpl) GetCheckpoint(
	_ context.Context, address string,
) (*domain.SyncCheckpoint, error) {
	if address == "" {
		return nil, domain.ErrNullAddress
	}

	r.store.locker.RLock()
	defer r.store.locker.RUnlock()

	checkpoint, ok := r.store.checkpoints[domain.CheckpointKey(address)]
	if !ok {
		return nil, nil
	}
	return copyCheckpoint(checkpoint), nil
}

func (r *CheckpointRepositoryImpl) SaveCheckpoint(
	_ context.Context, checkpoint domain.SyncCheckpoint,
) error {
	if checkpoint.Address == "" {
		return domain.ErrNullAddress
	}

	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	r.store.checkpoints[checkpoint.Key()] = *copyCheckpoint(checkpoint)
	return nil
}

func (r *CheckpointRepositoryImpl) DeleteCheckpoint(
	_ context.Context, address string,
) error {
	if address == "" {
		return domain.ErrNullAddress
	}

	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	delete(r.store.checkpoints, domain.CheckpointKey(address))
	return nil
}

func (r *CheckpointRepositoryImpl) ListCheckpoints(
	_ context.Context,
) ([]domain.SyncCheckpoint, error) {
	r.store.locker.RLock()
	defer r.store.locker.RUnlock()

	keys := make([]string, 0, len(r.store.checkpoints))
	for key := range r.store.checkpoints {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	checkpoints := make([]domain.SyncCheckpoint, 0, len(keys))
	for _, key := range keys {
		checkpoints = append(checkpoints, *copyCheckpoint(r.store.checkpoints[key]))
	}
	return checkpoints, nil
}

func (r *CheckpointRepositoryImpl) Close() {}

// copyCheckpoint makes sure callers can't alias the stored history.
func copyCheckpoint(c domain.SyncCheckpoint) *domain.SyncCheckpoint {
	txs := make([]domain.DecryptedTransaction, 0, len(c.Transactions))
	for _, tx := range c.Transactions {
		outputs := append([]domain.DecryptedOutput{}, tx.Outputs...)
		tx.Outputs = outputs
		txs = append(txs, tx)
	}
	c.Transactions = txs
	return &c
}
