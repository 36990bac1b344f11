package application

import (
	"context"

	"github.com/Kenbak/zipher/internal/core/domain"
	"golang.org/x/sync/errgroup"
)

type decryptResult struct {
	tx  *domain.DecryptedTransaction
	err error
}

type decryptFunc func(
	context.Context, domain.MatchedTx,
) (*domain.DecryptedTransaction, error)

// decryptPool runs at most size decryptions at a time.
type decryptPool struct {
	size int
}

func newDecryptPool(size int) decryptPool {
	if size <= 0 {
		size = 1
	}
	return decryptPool{size}
}

// run returns one result per match, at the same position. A failed
// decryption never stops the others, only ctx cancellation does.
func (p decryptPool) run(
	ctx context.Context, matches []domain.MatchedTx, decrypt decryptFunc,
) []decryptResult {
	results := make([]decryptResult, len(matches))

	if p.size == 1 {
		for i, m := range matches {
			if err := ctx.Err(); err != nil {
				results[i] = decryptResult{err: err}
				continue
			}
			tx, err := decrypt(ctx, m)
			results[i] = decryptResult{tx, err}
		}
		return results
	}

	g := new(errgroup.Group)
	g.SetLimit(p.size)
	for i, m := range matches {
		i, m := i, m
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = decryptResult{err: err}
				return nil
			}
			tx, err := decrypt(ctx, m)
			results[i] = decryptResult{tx, err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}
