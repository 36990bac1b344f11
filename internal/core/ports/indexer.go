package ports

import (
	"context"

	"github.com/Kenbak/zipher/internal/core/domain"
)

// ChainIndexer is the remote indexing and scanning service the sync engine
// gets chain data from.
type ChainIndexer interface {
	// GetChainHeight returns the current tip height. It never fails: if the
	// service can't be reached domain.FallbackHeight is returned instead.
	GetChainHeight(ctx context.Context) (int64, error)
	// GetCompactBlocks returns the compact blocks in the inclusive range
	// [startHeight, endHeight].
	GetCompactBlocks(
		ctx context.Context, startHeight, endHeight int64,
	) ([]domain.CompactBlock, error)
	// GetRawTransaction returns the hex encoded transaction identified by
	// txid, in display byte order.
	GetRawTransaction(ctx context.Context, txid string) (string, error)
}
