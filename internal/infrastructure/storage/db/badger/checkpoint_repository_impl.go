package dbbadger

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/Kenbak/zipher/internal/core/domain"
	"github.com/dgraph-io/badger/v3"
	"github.com/timshannon/badgerhold/v4"
)

const checkpointsDir = "checkpoints"

type checkpointRepositoryImpl struct {
	store  *badgerhold.Store
	stopGC func()
	once   sync.Once
}

// NewCheckpointRepositoryImpl opens the checkpoint store under baseDbDir.
// An empty baseDbDir makes the store live in memory only.
func NewCheckpointRepositoryImpl(
	baseDbDir string, logger badger.Logger,
) (domain.CheckpointRepository, error) {
	var dbDir string
	if len(baseDbDir) > 0 {
		dbDir = filepath.Join(baseDbDir, checkpointsDir)
	}

	store, stopGC, err := createDb(dbDir, logger)
	if err != nil {
		return nil, fmt.Errorf("opening checkpoint db: %w", err)
	}
	return &checkpointRepositoryImpl{store: store, stopGC: stopGC}, nil
}

func (r *checkpointRepositoryImpl) GetCheckpoint(
	_ context.Context, address string,
) (*domain.SyncCheckpoint, error) {
	if address == "" {
		return nil, domain.ErrNullAddress
	}

	var checkpoint domain.SyncCheckpoint
	if err := r.store.Get(domain.CheckpointKey(address), &checkpoint); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	normalize(&checkpoint)
	return &checkpoint, nil
}

func (r *checkpointRepositoryImpl) SaveCheckpoint(
	_ context.Context, checkpoint domain.SyncCheckpoint,
) error {
	if checkpoint.Address == "" {
		return domain.ErrNullAddress
	}
	return r.store.Upsert(checkpoint.Key(), &checkpoint)
}

func (r *checkpointRepositoryImpl) DeleteCheckpoint(
	_ context.Context, address string,
) error {
	if address == "" {
		return domain.ErrNullAddress
	}

	err := r.store.Delete(domain.CheckpointKey(address), domain.SyncCheckpoint{})
	if err != nil && err != badgerhold.ErrNotFound {
		return err
	}
	return nil
}

func (r *checkpointRepositoryImpl) ListCheckpoints(
	_ context.Context,
) ([]domain.SyncCheckpoint, error) {
	var checkpoints []domain.SyncCheckpoint
	if err := r.store.Find(&checkpoints, nil); err != nil {
		return nil, err
	}
	if checkpoints == nil {
		checkpoints = make([]domain.SyncCheckpoint, 0)
	}
	for i := range checkpoints {
		normalize(&checkpoints[i])
	}
	return checkpoints, nil
}

func (r *checkpointRepositoryImpl) Close() {
	r.once.Do(func() {
		r.stopGC()
		r.store.Close()
	})
}

// normalize restores the empty slices that are stored as null.
func normalize(c *domain.SyncCheckpoint) {
	if c.Transactions == nil {
		c.Transactions = make([]domain.DecryptedTransaction, 0)
	}
	for i := range c.Transactions {
		if c.Transactions[i].Outputs == nil {
			c.Transactions[i].Outputs = make([]domain.DecryptedOutput, 0)
		}
	}
}
