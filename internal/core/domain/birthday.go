package domain

import "time"

var (
	// BirthdayReferenceTime and BirthdayReferenceHeight are a known
	// (timestamp, height) point of the testnet chain used to estimate the
	// birthday of wallets created before birthday heights were recorded.
	BirthdayReferenceTime         = time.UnixMilli(1_700_000_000_000)
	BirthdayReferenceHeight int64 = 2_600_000
	// AverageBlockInterval is the expected target spacing between blocks.
	AverageBlockInterval = 75 * time.Second
)

// EstimateBirthdayFromTimestamp approximates the height of the chain at the
// given wallet creation time, minus a safety margin. The result is never
// negative.
func EstimateBirthdayFromTimestamp(createdAt time.Time) int64 {
	elapsed := createdAt.Sub(BirthdayReferenceTime)
	blocks := int64(elapsed / AverageBlockInterval)
	// Floor the division for creation times before the reference point.
	if elapsed < 0 && elapsed%AverageBlockInterval != 0 {
		blocks--
	}

	height := BirthdayReferenceHeight + blocks - BirthdaySafetyMargin
	if height < 0 {
		return 0
	}
	return height
}
