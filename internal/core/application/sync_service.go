package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Kenbak/zipher/internal/core/domain"
	"github.com/Kenbak/zipher/internal/core/ports"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
)

// SyncRequest ...
type SyncRequest struct {
	Address        string
	SeedPhrase     string
	BirthdayHeight *int64
	CreatedAt      *time.Time
}

func (r SyncRequest) validate() error {
	if r.Address == "" {
		return domain.ErrNullAddress
	}
	if r.SeedPhrase == "" {
		return domain.ErrNullSeedPhrase
	}
	if r.BirthdayHeight != nil && *r.BirthdayHeight < 0 {
		return ErrInvalidBirthdayHeight
	}
	return nil
}

// SyncService discovers and records the shielded funds received by a wallet
// address.
type SyncService interface {
	// Sync scans the blocks not yet processed for the address and returns its
	// updated balance and history. Concurrent calls for the same address
	// share the same pass.
	Sync(ctx context.Context, req SyncRequest) (*domain.WalletBalance, error)
	// DecryptTransactionMemo decrypts the wallet output of a raw transaction.
	DecryptTransactionMemo(
		ctx context.Context, rawTxHex, viewingKey string,
	) (*domain.DecryptedNote, error)
	// GetBalance returns the balance recorded by the last completed pass.
	GetBalance(ctx context.Context, address string) (*domain.WalletBalance, error)
	// Reset drops the sync state of the address so that the next pass starts
	// over from the wallet birthday.
	Reset(ctx context.Context, address string) error
}

// SyncServiceOpts ...
type SyncServiceOpts struct {
	Indexer    ports.ChainIndexer
	Crypto     ports.ShieldedCrypto
	Repository domain.CheckpointRepository
	// Notifier is optional.
	Notifier     ports.SyncNotifier
	Network      domain.Network
	AccountIndex uint32
	// ChunkSize is the max number of outputs matched per primitive call.
	ChunkSize int
	// ScanRange is the max number of blocks processed before writing a
	// checkpoint.
	ScanRange int64
	// DecryptWorkers bounds the concurrent fetch+decrypt of matched txs.
	DecryptWorkers int
}

func (o SyncServiceOpts) validate() error {
	if o.Indexer == nil {
		return ErrNullIndexer
	}
	if o.Crypto == nil {
		return ErrNullCrypto
	}
	if o.Repository == nil {
		return ErrNullRepository
	}
	if err := o.Network.Validate(); err != nil {
		return err
	}
	if o.AccountIndex > MaxAccountIndex {
		return ErrAccountIndexOutOfRange
	}
	return nil
}

type syncService struct {
	indexer   ports.ChainIndexer
	crypto    ports.ShieldedCrypto
	repo      domain.CheckpointRepository
	notifier  ports.SyncNotifier
	deriver   *ViewingKeyDeriver
	matcher   *BatchMatcher
	network   domain.Network
	account   uint32
	scanRange int64
	workers   int

	inflight singleflight.Group
	lock     sync.Mutex
	flights  map[string]*flight
	guards   map[string]*semaphore.Weighted
	now      func() time.Time
}

// flight is the context of the pass shared by the callers syncing the same
// address. The pass is canceled only once every caller has given up on it.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	callers int
}

func NewSyncService(opts SyncServiceOpts) (SyncService, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	notifier := opts.Notifier
	if notifier == nil {
		notifier = noopNotifier{}
	}
	scanRange := opts.ScanRange
	if scanRange <= 0 {
		scanRange = domain.DefaultScanRange
	}
	workers := opts.DecryptWorkers
	if workers <= 0 {
		workers = 1
	}

	return &syncService{
		indexer:   opts.Indexer,
		crypto:    opts.Crypto,
		repo:      opts.Repository,
		notifier:  notifier,
		deriver:   NewViewingKeyDeriver(opts.Crypto),
		matcher:   NewBatchMatcher(opts.Crypto, opts.ChunkSize),
		network:   opts.Network,
		account:   opts.AccountIndex,
		scanRange: scanRange,
		workers:   workers,
		flights:   make(map[string]*flight),
		guards:    make(map[string]*semaphore.Weighted),
		now:       time.Now,
	}, nil
}

func (s *syncService) Sync(
	ctx context.Context, req SyncRequest,
) (*domain.WalletBalance, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f := s.joinFlight(ctx, req.Address)
	resCh := s.inflight.DoChan(req.Address, func() (interface{}, error) {
		return s.guardedSync(f.ctx, req)
	})

	var res singleflight.Result
	select {
	case res = <-resCh:
		s.leaveFlight(req.Address, f, false)
	case <-ctx.Done():
		s.leaveFlight(req.Address, f, true)
		return nil, ctx.Err()
	}
	if res.Err != nil {
		return nil, res.Err
	}
	if res.Shared {
		log.WithField("address", shortAddress(req.Address)).Debug(
			"sync: joined pass already in progress",
		)
	}

	balance := res.Val.(*domain.WalletBalance)
	// Callers sharing a pass must not share the history slice.
	return &domain.WalletBalance{
		Balance:       balance.Balance,
		TotalReceived: balance.TotalReceived,
		TotalSpent:    balance.TotalSpent,
		Transactions: append(
			[]domain.DecryptedTransaction{}, balance.Transactions...,
		),
	}, nil
}

func (s *syncService) DecryptTransactionMemo(
	ctx context.Context, rawTxHex, viewingKey string,
) (*domain.DecryptedNote, error) {
	if rawTxHex == "" {
		return nil, ErrNullRawTransaction
	}
	if viewingKey == "" {
		return nil, domain.ErrNullViewingKey
	}

	note, err := s.crypto.DecryptTransaction(ctx, viewingKey, rawTxHex)
	if err != nil {
		return nil, err
	}
	return &note, nil
}

func (s *syncService) GetBalance(
	ctx context.Context, address string,
) (*domain.WalletBalance, error) {
	if address == "" {
		return nil, domain.ErrNullAddress
	}

	checkpoint, err := s.repo.GetCheckpoint(ctx, address)
	if err != nil {
		return nil, err
	}
	return checkpoint.WalletBalance(), nil
}

func (s *syncService) Reset(ctx context.Context, address string) error {
	if address == "" {
		return domain.ErrNullAddress
	}

	// Wait for any running pass, otherwise it would write back the history.
	unlock, err := s.lockAddress(ctx, address)
	if err != nil {
		return err
	}
	defer unlock()

	if err := s.repo.DeleteCheckpoint(ctx, address); err != nil {
		return err
	}
	log.WithField("address", shortAddress(address)).Info(
		"sync: state reset, next pass starts over from wallet birthday",
	)
	return nil
}

func (s *syncService) joinFlight(ctx context.Context, address string) *flight {
	s.lock.Lock()
	defer s.lock.Unlock()

	f, ok := s.flights[address]
	if !ok {
		passCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{ctx: passCtx, cancel: cancel}
		s.flights[address] = f
	}
	f.callers++
	return f
}

func (s *syncService) leaveFlight(address string, f *flight, abandoned bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	f.callers--
	if f.callers > 0 {
		return
	}
	if s.flights[address] == f {
		delete(s.flights, address)
	}
	if abandoned {
		// Later callers must start a new pass instead of joining the canceled one.
		s.inflight.Forget(address)
	}
	f.cancel()
}

// lockAddress serializes the operations rewriting the sync state of address.
func (s *syncService) lockAddress(
	ctx context.Context, address string,
) (func(), error) {
	s.lock.Lock()
	guard, ok := s.guards[address]
	if !ok {
		guard = semaphore.NewWeighted(1)
		s.guards[address] = guard
	}
	s.lock.Unlock()

	if err := guard.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() { guard.Release(1) }, nil
}

func (s *syncService) guardedSync(
	ctx context.Context, req SyncRequest,
) (*domain.WalletBalance, error) {
	unlock, err := s.lockAddress(ctx, req.Address)
	if err != nil {
		return nil, err
	}
	defer unlock()

	return s.sync(ctx, req)
}

func (s *syncService) sync(
	ctx context.Context, req SyncRequest,
) (*domain.WalletBalance, error) {
	pass := &syncPass{
		syncService: s,
		id:          uuid.New().String(),
		address:     req.Address,
	}
	pass.logger = log.WithFields(log.Fields{
		"sync":    pass.id[:8],
		"address": shortAddress(req.Address),
	})

	balance, err := pass.run(ctx, req)
	if err != nil {
		pass.logger.WithError(err).Warn("sync: pass failed")
		pass.publish(ports.SyncEvent{Type: ports.SyncFailed, Err: err})
		return nil, err
	}
	return balance, nil
}

// syncPass holds the state of a single sync run for an address.
type syncPass struct {
	*syncService

	id         string
	address    string
	viewingKey string
	checkpoint *domain.SyncCheckpoint
	logger     *log.Entry
}

func (p *syncPass) run(
	ctx context.Context, req SyncRequest,
) (*domain.WalletBalance, error) {
	checkpoint, err := p.repo.GetCheckpoint(ctx, p.address)
	if err != nil {
		return nil, fmt.Errorf("failed to load sync state: %w", err)
	}
	p.checkpoint = checkpoint

	startHeight, resumed, err := p.resolveStartHeight(ctx, req)
	if err != nil {
		return nil, err
	}

	viewingKey, err := p.deriver.DeriveViewingKey(
		ctx, req.SeedPhrase, p.network, p.account,
	)
	if err != nil {
		return nil, err
	}
	p.viewingKey = viewingKey

	currentHeight, err := p.chainHeight(ctx)
	if err != nil {
		return nil, err
	}

	p.publish(ports.SyncEvent{Type: ports.SyncStarted, Height: currentHeight})

	if startHeight >= currentHeight {
		p.logger.Debugf(
			"sync: already synced at height %d (tip %d)", startHeight, currentHeight,
		)
		return p.complete(0), nil
	}

	fromHeight := startHeight
	if resumed {
		// The checkpointed block has already been fully processed.
		fromHeight = p.checkpoint.LastScannedHeight + 1
	}

	newTxs := 0
	for fromHeight <= currentHeight {
		toHeight := fromHeight + p.scanRange - 1
		if toHeight > currentHeight {
			toHeight = currentHeight
		}

		lastHeight, count, err := p.scan(ctx, fromHeight, toHeight)
		if err != nil {
			return nil, err
		}
		if lastHeight < fromHeight {
			break
		}
		newTxs += count
		if lastHeight < toHeight {
			break
		}
		fromHeight = lastHeight + 1
	}

	return p.complete(newTxs), nil
}

// scan processes the blocks in [from, to] and persists the resulting
// checkpoint. It returns the height of the last processed block, or a height
// lower than from if the indexer has no blocks in range.
func (p *syncPass) scan(
	ctx context.Context, from, to int64,
) (int64, int, error) {
	logger := p.logger.WithField("range", fmt.Sprintf("%d-%d", from, to))

	blocks, err := p.indexer.GetCompactBlocks(ctx, from, to)
	if err != nil {
		return 0, 0, err
	}
	if len(blocks) == 0 {
		logger.Debug("sync: no blocks in range")
		return from - 1, 0, nil
	}

	lastHeight := from - 1
	for _, b := range blocks {
		if b.Height > lastHeight && b.Height <= to {
			lastHeight = b.Height
		}
	}
	if lastHeight < from {
		logger.Warn("sync: indexer returned blocks out of requested range")
		return from - 1, 0, nil
	}

	matches, err := p.matcher.Filter(
		ctx, blocks, p.viewingKey,
		func(blocksProcessed, totalBlocks, matchesFound int) {
			p.publish(ports.SyncEvent{
				Type:            ports.SyncProgress,
				BlocksProcessed: blocksProcessed,
				TotalBlocks:     totalBlocks,
				MatchesFound:    matchesFound,
			})
		},
	)
	if err != nil {
		return 0, 0, err
	}

	txs, err := p.decryptMatches(ctx, matches)
	if err != nil {
		return 0, 0, err
	}

	next := p.checkpoint.Extend(p.address, lastHeight, txs, p.now())
	if err := p.repo.SaveCheckpoint(ctx, *next); err != nil {
		return 0, 0, fmt.Errorf("failed to save sync state: %w", err)
	}
	p.checkpoint = next

	logger.Infof(
		"sync: scanned %d block(s) up to height %d, %d new tx(s)",
		len(blocks), lastHeight, len(txs),
	)
	return lastHeight, len(txs), nil
}

// resolveStartHeight returns, in order of priority, the checkpointed height,
// the wallet birthday, the birthday estimated from the wallet creation time
// or a recent height as last resort. The returned flag tells whether the
// height comes from the checkpoint.
func (p *syncPass) resolveStartHeight(
	ctx context.Context, req SyncRequest,
) (int64, bool, error) {
	if p.checkpoint != nil && p.checkpoint.LastScannedHeight > 0 {
		return p.checkpoint.LastScannedHeight, true, nil
	}
	if req.BirthdayHeight != nil && *req.BirthdayHeight > 0 {
		return *req.BirthdayHeight, false, nil
	}
	if req.CreatedAt != nil && !req.CreatedAt.IsZero() {
		height := domain.EstimateBirthdayFromTimestamp(*req.CreatedAt)
		p.logger.Warnf(
			"sync: no birthday height, starting from estimated height %d", height,
		)
		return height, false, nil
	}

	currentHeight, err := p.chainHeight(ctx)
	if err != nil {
		return 0, false, err
	}
	height := currentHeight - domain.BirthdaySafetyMargin
	if height < 0 {
		height = 0
	}
	p.logger.Warnf(
		"sync: no birthday height nor creation time, starting from recent "+
			"height %d, older funds will not be found", height,
	)
	return height, false, nil
}

func (p *syncPass) chainHeight(ctx context.Context) (int64, error) {
	height, err := p.indexer.GetChainHeight(ctx)
	if err != nil {
		return 0, err
	}
	if height == domain.FallbackHeight {
		p.logger.Warnf(
			"sync: chain tip unavailable, using fallback height %d", height,
		)
		p.publish(ports.SyncEvent{Type: ports.StaleHeightFallback, Height: height})
	}
	return height, nil
}

// decryptMatches fetches and decrypts the full transaction of every match.
// Transactions that can't be fetched or decrypted are skipped. The result
// preserves the order of matches.
func (p *syncPass) decryptMatches(
	ctx context.Context, matches []domain.MatchedTx,
) ([]domain.DecryptedTransaction, error) {
	pending := make([]domain.MatchedTx, 0, len(matches))
	for _, m := range matches {
		if p.checkpoint.HasTransaction(domain.ReverseTxID(m.TxID)) {
			p.logger.Debugf("sync: tx %s already in history", domain.ReverseTxID(m.TxID))
			continue
		}
		pending = append(pending, m)
	}

	results := newDecryptPool(p.workers).run(
		ctx, pending, func(ctx context.Context, m domain.MatchedTx) (*domain.DecryptedTransaction, error) {
			return p.fetchAndDecrypt(ctx, m)
		},
	)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	txs := make([]domain.DecryptedTransaction, 0, len(pending))
	for i, res := range results {
		if res.err != nil {
			txid := domain.ReverseTxID(pending[i].TxID)
			p.logger.WithError(res.err).Warnf("sync: skipping tx %s", txid)
			p.publish(ports.SyncEvent{
				Type: ports.DecryptionSkipped, TxID: txid, Err: res.err,
			})
			continue
		}
		txs = append(txs, *res.tx)
	}
	return txs, nil
}

func (p *syncPass) fetchAndDecrypt(
	ctx context.Context, match domain.MatchedTx,
) (*domain.DecryptedTransaction, error) {
	if err := domain.ValidateTxID(match.TxID); err != nil {
		return nil, err
	}
	txid := domain.ReverseTxID(match.TxID)

	rawTx, err := p.indexer.GetRawTransaction(ctx, txid)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tx: %w", err)
	}
	note, err := p.crypto.DecryptTransaction(ctx, p.viewingKey, rawTx)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt tx: %w", err)
	}

	tx := domain.NewDecryptedTransaction(match, note)
	return &tx, nil
}

func (p *syncPass) complete(newTxs int) *domain.WalletBalance {
	var height int64
	if p.checkpoint != nil {
		height = p.checkpoint.LastScannedHeight
	}
	p.publish(ports.SyncEvent{
		Type:            ports.SyncCompleted,
		Height:          height,
		NewTransactions: newTxs,
	})
	return p.checkpoint.WalletBalance()
}

func (p *syncPass) publish(event ports.SyncEvent) {
	event.ID = p.id
	event.Address = p.address
	p.notifier.Publish(event)
}

type noopNotifier struct{}

func (noopNotifier) Publish(ports.SyncEvent) {}

func shortAddress(address string) string {
	if len(address) <= 20 {
		return address
	}
	return address[:20] + "..."
}

// IsNetworkError returns whether err is due to the indexer being unreachable
// or misbehaving.
func IsNetworkError(err error) bool {
	return errors.Is(err, domain.ErrNetwork)
}
