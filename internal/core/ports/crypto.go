package ports

import (
	"context"

	"github.com/Kenbak/zipher/internal/core/domain"
)

// ShieldedCrypto gathers the cryptographic primitives the engine treats as
// black boxes: viewing key derivation, trial decryption of compact outputs
// and full decryption of a transaction.
type ShieldedCrypto interface {
	// DeriveViewingKey derives the unified full viewing key of the given
	// account from a 64 byte seed, encoded for network.
	DeriveViewingKey(
		ctx context.Context, seed []byte, network domain.Network, account uint32,
	) (string, error)
	// FilterOutputs returns the indexes of the outputs that trial-decrypt
	// under the viewing key.
	FilterOutputs(
		ctx context.Context, viewingKey string, outputs []domain.CompactOutput,
	) ([]int, error)
	// DecryptTransaction reveals memo and amount of the wallet output of the
	// given hex encoded transaction.
	DecryptTransaction(
		ctx context.Context, viewingKey, txHex string,
	) (domain.DecryptedNote, error)
}
