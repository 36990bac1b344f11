package domain

import "context"

// CheckpointRepository persists the per-address sync state.
type CheckpointRepository interface {
	// GetCheckpoint returns the checkpoint of the given address, or nil if
	// the address has never been synced.
	GetCheckpoint(ctx context.Context, address string) (*SyncCheckpoint, error)
	// SaveCheckpoint overwrites the whole checkpoint record of its address.
	SaveCheckpoint(ctx context.Context, checkpoint SyncCheckpoint) error
	// DeleteCheckpoint removes the checkpoint of the given address, if any.
	DeleteCheckpoint(ctx context.Context, address string) error
	// ListCheckpoints returns the checkpoints of every synced address.
	ListCheckpoints(ctx context.Context) ([]SyncCheckpoint, error)
	Close()
}
