package application

import (
	"context"
	"fmt"
	"sort"

	"github.com/Kenbak/zipher/internal/core/domain"
	"github.com/Kenbak/zipher/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

// ProgressFunc receives the cumulative progress of a batch matching run.
type ProgressFunc func(blocksProcessed, totalBlocks, matchesFound int)

// BatchMatcher trial-decrypts the Orchard actions of a list of compact
// blocks against a viewing key and returns the transactions owning at least
// one matching output.
type BatchMatcher struct {
	crypto    ports.ShieldedCrypto
	chunkSize int
}

// NewBatchMatcher returns a matcher that submits at most chunkSize outputs
// per call to the crypto primitive. A non positive chunkSize falls back to
// domain.DefaultChunkSize.
func NewBatchMatcher(
	crypto ports.ShieldedCrypto, chunkSize int,
) *BatchMatcher {
	if chunkSize <= 0 {
		chunkSize = domain.DefaultChunkSize
	}
	return &BatchMatcher{crypto, chunkSize}
}

// Filter returns the matched transactions in first-discovery order, each
// txid at most once. Any chunk failure makes the whole run fail with
// domain.ErrMatching.
func (m *BatchMatcher) Filter(
	ctx context.Context,
	blocks []domain.CompactBlock,
	viewingKey string,
	onProgress ProgressFunc,
) ([]domain.MatchedTx, error) {
	if onProgress == nil {
		onProgress = func(int, int, int) {}
	}

	outputs, blockOfOutput := flattenCompactBlocks(blocks)
	totalBlocks := len(blocks)
	matches := make([]domain.MatchedTx, 0)

	if len(outputs) == 0 {
		onProgress(totalBlocks, totalBlocks, 0)
		return matches, nil
	}

	seen := make(map[string]struct{})
	for start := 0; start < len(outputs); start += m.chunkSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := start + m.chunkSize
		if end > len(outputs) {
			end = len(outputs)
		}
		chunk := outputs[start:end]

		indexes, err := m.crypto.FilterOutputs(ctx, viewingKey, chunk)
		if err != nil {
			return nil, fmt.Errorf(
				"%w: outputs [%d, %d): %w", domain.ErrMatching, start, end, err,
			)
		}

		sorted := append([]int(nil), indexes...)
		sort.Ints(sorted)
		for _, i := range sorted {
			if i < 0 || i >= len(chunk) {
				return nil, fmt.Errorf(
					"%w: index %d out of range for chunk of %d outputs",
					domain.ErrMatching, i, len(chunk),
				)
			}
			out := chunk[i]
			if _, ok := seen[out.TxID]; ok {
				continue
			}
			seen[out.TxID] = struct{}{}
			matches = append(matches, domain.MatchedTx{
				TxID:      out.TxID,
				Height:    out.Height,
				Timestamp: out.Timestamp,
			})
		}

		blocksProcessed := totalBlocks
		if end < len(outputs) {
			blocksProcessed = blockOfOutput[end]
		}
		log.Debugf(
			"matcher: processed %d/%d outputs, %d/%d blocks, %d match(es)",
			end, len(outputs), blocksProcessed, totalBlocks, len(matches),
		)
		onProgress(blocksProcessed, totalBlocks, len(matches))
	}

	return matches, nil
}

// flattenCompactBlocks lists all outputs in block, tx, action order along
// with the index of the block each output belongs to.
func flattenCompactBlocks(
	blocks []domain.CompactBlock,
) ([]domain.CompactOutput, []int) {
	count := 0
	for _, b := range blocks {
		count += b.NumOfOutputs()
	}

	outputs := make([]domain.CompactOutput, 0, count)
	blockOfOutput := make([]int, 0, count)
	for i, b := range blocks {
		for _, out := range b.Outputs() {
			outputs = append(outputs, out)
			blockOfOutput = append(blockOfOutput, i)
		}
	}
	return outputs, blockOfOutput
}
