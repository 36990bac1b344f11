package domain

const (
	// FallbackHeight is returned by the chain height oracle when the indexer
	// can't be reached. It's only ever used as an upper scan bound.
	FallbackHeight int64 = 9_999_999

	// BirthdaySafetyMargin is the number of blocks subtracted from an
	// estimated or tip-relative start height.
	BirthdaySafetyMargin int64 = 1000

	// DefaultChunkSize is the max number of compact outputs handed to the
	// batch matching primitive at once.
	DefaultChunkSize = 10_000

	// DefaultScanRange is the max number of blocks fetched and processed
	// before a checkpoint is written.
	DefaultScanRange int64 = 10_000

	// CheckpointKeyPrefix namespaces the per-address sync state records.
	CheckpointKeyPrefix = "zipher_sync_state_"

	// ZatoshisPerZec ...
	ZatoshisPerZec = 100_000_000
)
