package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Kenbak/zipher/internal/core/domain"
	"github.com/Kenbak/zipher/pkg/circuitbreaker"
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

const (
	// DefaultAutoSyncInterval ...
	DefaultAutoSyncInterval = 30 * time.Second
	// DefaultAutoSyncMaxFailures ...
	DefaultAutoSyncMaxFailures uint32 = 3
)

// AutoSyncerOpts ...
type AutoSyncerOpts struct {
	Interval time.Duration
	// MaxConsecutiveFailures is the number of failed passes in a row after
	// which periodic syncs are suspended.
	MaxConsecutiveFailures uint32
	// SuspendTimeout is how long periodic syncs stay suspended before
	// another attempt is made.
	SuspendTimeout time.Duration
}

// AutoSyncer periodically syncs the wallet of an unlocked session.
type AutoSyncer struct {
	svc     SyncService
	session *Session
	opts    AutoSyncerOpts

	lock    sync.Mutex
	breaker *gobreaker.CircuitBreaker
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewAutoSyncer(
	svc SyncService, session *Session, opts AutoSyncerOpts,
) (*AutoSyncer, error) {
	if svc == nil {
		return nil, ErrNullSyncService
	}
	if session == nil {
		return nil, ErrNullSession
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultAutoSyncInterval
	}
	if opts.MaxConsecutiveFailures == 0 {
		opts.MaxConsecutiveFailures = DefaultAutoSyncMaxFailures
	}

	a := &AutoSyncer{svc: svc, session: session, opts: opts}
	a.breaker = a.newBreaker()
	return a, nil
}

// Start runs a sync right away and then one every interval, until Stop is
// called or the session gets locked.
func (a *AutoSyncer) Start() {
	a.lock.Lock()
	defer a.lock.Unlock()

	if a.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.done = make(chan struct{})

	go a.loop(ctx, a.done)
}

// Stop interrupts the periodic syncs and waits for the running one, if
// any, to return.
func (a *AutoSyncer) Stop() {
	a.lock.Lock()
	cancel, done := a.cancel, a.done
	a.cancel, a.done = nil, nil
	a.lock.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// SyncNow runs a sync on demand. It is never suppressed, and a success
// resumes suspended periodic syncs.
func (a *AutoSyncer) SyncNow(ctx context.Context) (*domain.WalletBalance, error) {
	req, err := a.session.SyncRequest()
	if err != nil {
		return nil, err
	}

	balance, err := a.svc.Sync(ctx, req)
	if err != nil {
		return nil, err
	}

	a.lock.Lock()
	if a.breaker.State() != gobreaker.StateClosed {
		a.breaker = a.newBreaker()
	}
	a.lock.Unlock()

	return balance, nil
}

// Suspended returns whether periodic syncs are currently suppressed
// because of repeated failures.
func (a *AutoSyncer) Suspended() bool {
	a.lock.Lock()
	defer a.lock.Unlock()

	return a.breaker.State() == gobreaker.StateOpen
}

// Running returns whether periodic syncs are scheduled.
func (a *AutoSyncer) Running() bool {
	a.lock.Lock()
	defer a.lock.Unlock()

	return a.cancel != nil
}

func (a *AutoSyncer) loop(ctx context.Context, done chan struct{}) {
	defer func() {
		// Forget this run if it ended by itself so that Start can begin a new one.
		a.lock.Lock()
		if a.done == done {
			a.cancel()
			a.cancel, a.done = nil, nil
		}
		a.lock.Unlock()
		close(done)
	}()

	ticker := time.NewTicker(a.opts.Interval)
	defer ticker.Stop()

	for {
		if stop := a.syncOnce(ctx); stop {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (a *AutoSyncer) syncOnce(ctx context.Context) bool {
	req, err := a.session.SyncRequest()
	if err != nil {
		log.Debug("auto-sync: session locked, stopping")
		return true
	}

	a.lock.Lock()
	breaker := a.breaker
	a.lock.Unlock()

	_, err = breaker.Execute(func() (interface{}, error) {
		return a.svc.Sync(ctx, req)
	})
	if err == nil {
		return false
	}
	if ctx.Err() != nil {
		return true
	}
	if errors.Is(err, gobreaker.ErrOpenState) ||
		errors.Is(err, gobreaker.ErrTooManyRequests) {
		log.Debug("auto-sync: suspended after repeated failures")
		return false
	}
	log.WithError(err).Warn("auto-sync: sync failed")
	return false
}

func (a *AutoSyncer) newBreaker() *gobreaker.CircuitBreaker {
	return circuitbreaker.NewCircuitBreaker(circuitbreaker.Opts{
		Name:                   "auto-sync",
		MaxConsecutiveFailures: a.opts.MaxConsecutiveFailures,
		OpenTimeout:            a.opts.SuspendTimeout,
		OnStateChange: func(_ string, from, to gobreaker.State) {
			if to == gobreaker.StateOpen {
				log.Warnf(
					"auto-sync: %d consecutive failures, periodic sync suspended",
					a.opts.MaxConsecutiveFailures,
				)
				return
			}
			log.Debugf("auto-sync: breaker state %s -> %s", from, to)
		},
	})
}
