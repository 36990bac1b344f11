package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Kenbak/zipher/internal/core/application"
	"github.com/Kenbak/zipher/internal/core/domain"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type progress struct {
	blocksProcessed, totalBlocks, matchesFound int
}

// matcherTestBlocks has 11 outputs over 4 blocks. Tx 3 owns two matching
// outputs in different positions and tx 1 appears twice across blocks.
func matcherTestBlocks() []domain.CompactBlock {
	return []domain.CompactBlock{
		newTestBlock(100,
			newTestTx(testTxID(1), false, true),
			newTestTx(testTxID(2), false),
		),
		newTestBlock(101),
		newTestBlock(102,
			newTestTx(testTxID(3), true, false, false, true),
			newTestTx(testTxID(4), false, false),
		),
		newTestBlock(103,
			newTestTx(testTxID(5), true),
			newTestTx(testTxID(1), true),
		),
	}
}

func TestBatchMatcherFilter(t *testing.T) {
	expected := []domain.MatchedTx{
		{TxID: testTxID(1), Height: 100, Timestamp: 1_700_000_000 + 100*75},
		{TxID: testTxID(3), Height: 102, Timestamp: 1_700_000_000 + 102*75},
		{TxID: testTxID(5), Height: 103, Timestamp: 1_700_000_000 + 103*75},
	}

	chunkSizes := []int{1, 2, 3, 5, 10, 11, domain.DefaultChunkSize, 0}
	for _, chunkSize := range chunkSizes {
		crypto := &mockCrypto{}
		crypto.On(
			"FilterOutputs", mock.Anything, testViewingKey, mock.Anything,
		).Return(matchMine, nil)

		matcher := application.NewBatchMatcher(crypto, chunkSize)
		matches, err := matcher.Filter(
			context.Background(), matcherTestBlocks(), testViewingKey, nil,
		)
		require.NoError(t, err)
		require.Equal(t, expected, matches, "chunk size %d", chunkSize)
	}
}

func TestBatchMatcherProgress(t *testing.T) {
	crypto := &mockCrypto{}
	crypto.On(
		"FilterOutputs", mock.Anything, testViewingKey, mock.Anything,
	).Return(matchMine, nil)

	progresses := make([]progress, 0)
	onProgress := func(blocksProcessed, totalBlocks, matchesFound int) {
		progresses = append(
			progresses, progress{blocksProcessed, totalBlocks, matchesFound},
		)
	}

	matcher := application.NewBatchMatcher(crypto, 5)
	_, err := matcher.Filter(
		context.Background(), matcherTestBlocks(), testViewingKey, onProgress,
	)
	require.NoError(t, err)

	// 11 outputs in chunks of 5: [0,5) stops inside block 102, [5,10) inside
	// block 103 and [10,11) completes it.
	require.Equal(t, []progress{
		{2, 4, 2},
		{3, 4, 3},
		{4, 4, 3},
	}, progresses)
	crypto.AssertNumberOfCalls(t, "FilterOutputs", 3)
}

func TestBatchMatcherNoOutputs(t *testing.T) {
	crypto := &mockCrypto{}

	var last progress
	onProgress := func(blocksProcessed, totalBlocks, matchesFound int) {
		last = progress{blocksProcessed, totalBlocks, matchesFound}
	}

	blocks := []domain.CompactBlock{newTestBlock(1), newTestBlock(2)}
	matches, err := application.NewBatchMatcher(crypto, 10).Filter(
		context.Background(), blocks, testViewingKey, onProgress,
	)
	require.NoError(t, err)
	require.NotNil(t, matches)
	require.Empty(t, matches)
	require.Equal(t, progress{2, 2, 0}, last)
	crypto.AssertNotCalled(t, "FilterOutputs", mock.Anything, mock.Anything, mock.Anything)
}

func TestBatchMatcherFailClosed(t *testing.T) {
	errPrimitive := errors.New("primitive failure")

	t.Run("fails on second of three chunks", func(t *testing.T) {
		crypto := &mockCrypto{}
		crypto.On(
			"FilterOutputs", mock.Anything, testViewingKey, mock.Anything,
		).Return(matchMine, nil).Once()
		crypto.On(
			"FilterOutputs", mock.Anything, testViewingKey, mock.Anything,
		).Return(nil, errPrimitive).Once()

		matcher := application.NewBatchMatcher(crypto, 5)
		matches, err := matcher.Filter(
			context.Background(), matcherTestBlocks(), testViewingKey, nil,
		)
		require.ErrorIs(t, err, domain.ErrMatching)
		require.ErrorIs(t, err, errPrimitive)
		require.Nil(t, matches)
		crypto.AssertNumberOfCalls(t, "FilterOutputs", 2)
	})

	t.Run("index out of chunk range", func(t *testing.T) {
		crypto := &mockCrypto{}
		crypto.On(
			"FilterOutputs", mock.Anything, testViewingKey, mock.Anything,
		).Return([]int{0, 5}, nil)

		matcher := application.NewBatchMatcher(crypto, 5)
		matches, err := matcher.Filter(
			context.Background(), matcherTestBlocks(), testViewingKey, nil,
		)
		require.ErrorIs(t, err, domain.ErrMatching)
		require.Nil(t, matches)
	})

	t.Run("canceled context", func(t *testing.T) {
		crypto := &mockCrypto{}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		matches, err := application.NewBatchMatcher(crypto, 5).Filter(
			ctx, matcherTestBlocks(), testViewingKey, nil,
		)
		require.ErrorIs(t, err, context.Canceled)
		require.Nil(t, matches)
	})
}
