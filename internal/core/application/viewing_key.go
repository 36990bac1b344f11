package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/Kenbak/zipher/internal/core/domain"
	"github.com/Kenbak/zipher/internal/core/ports"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/tyler-smith/go-bip39"
)

const (
	// MaxAccountIndex is the greatest account index that can be hardened.
	MaxAccountIndex = hdkeychain.HardenedKeyStart - 1

	minSeedLength = 32
	maxSeedLength = 252
)

// ViewingKeyDeriver turns a recovery phrase into the unified full viewing key
// of one of its accounts. The mnemonic checksum is expected to be already
// validated by the caller.
type ViewingKeyDeriver struct {
	crypto ports.ShieldedCrypto
}

func NewViewingKeyDeriver(crypto ports.ShieldedCrypto) *ViewingKeyDeriver {
	return &ViewingKeyDeriver{crypto}
}

// DeriveViewingKey returns the viewing key of the given account, encoded for
// network. Any failure is reported as domain.ErrKeyDerivation.
func (d *ViewingKeyDeriver) DeriveViewingKey(
	ctx context.Context,
	seedPhrase string,
	network domain.Network,
	accountIndex uint32,
) (string, error) {
	if err := network.Validate(); err != nil {
		return "", keyDerivationError(err)
	}
	if accountIndex > MaxAccountIndex {
		return "", keyDerivationError(ErrAccountIndexOutOfRange)
	}

	mnemonic := strings.Join(strings.Fields(seedPhrase), " ")
	if mnemonic == "" {
		return "", keyDerivationError(domain.ErrNullSeedPhrase)
	}

	seed := bip39.NewSeed(mnemonic, "")
	defer zero(seed)

	if len(seed) < minSeedLength || len(seed) > maxSeedLength {
		return "", keyDerivationError(ErrInvalidSeedLength)
	}

	viewingKey, err := d.crypto.DeriveViewingKey(ctx, seed, network, accountIndex)
	if err != nil {
		return "", keyDerivationError(err)
	}
	if viewingKey == "" {
		return "", keyDerivationError(domain.ErrNullViewingKey)
	}
	return viewingKey, nil
}

func keyDerivationError(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrKeyDerivation, err)
}

func zero(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
}
