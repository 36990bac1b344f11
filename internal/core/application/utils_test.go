package application_test

import (
	"fmt"

	"github.com/Kenbak/zipher/internal/core/domain"
)

const (
	testAddress    = "utest1qz4mh3q4d0s6k7l8m9n0p1q2r3s4t5u6v7w8x9y0z"
	testSeedPhrase = "abandon abandon abandon abandon abandon abandon abandon " +
		"abandon abandon abandon abandon about"
	testViewingKey = "uviewtest1fakeviewingkey"

	mineCiphertext  = "c0ffee"
	otherCiphertext = "deadbeef"
)

// matchMine matches the outputs whose ciphertext marks them as belonging to
// the test wallet.
var matchMine filterFunc = func(outputs []domain.CompactOutput) []int {
	indexes := make([]int, 0)
	for i, out := range outputs {
		if out.Ciphertext == mineCiphertext {
			indexes = append(indexes, i)
		}
	}
	return indexes
}

func newTestBlock(height int64, txs ...domain.CompactTx) domain.CompactBlock {
	return domain.CompactBlock{
		Height: height,
		Time:   1_700_000_000 + height*75,
		Vtx:    txs,
	}
}

// newTestTx returns a tx with one action per element of mine, each one
// matching the test wallet if the element is true.
func newTestTx(hash string, mine ...bool) domain.CompactTx {
	actions := make([]domain.CompactAction, 0, len(mine))
	for i, m := range mine {
		ciphertext := otherCiphertext
		if m {
			ciphertext = mineCiphertext
		}
		actions = append(actions, domain.CompactAction{
			Nullifier:    fmt.Sprintf("%s%02x", hash[:8], i),
			Cmx:          fmt.Sprintf("%02x%s", i, hash[:8]),
			EphemeralKey: "aa",
			Ciphertext:   ciphertext,
		})
	}
	return domain.CompactTx{Hash: hash, Actions: actions}
}

// testTxID returns a deterministic 32-byte wire txid.
func testTxID(n int) string {
	return fmt.Sprintf("%064x", n)
}

func int64Ptr(v int64) *int64 {
	return &v
}
