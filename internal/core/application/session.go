package application

import (
	"sync"
	"time"

	"github.com/Kenbak/zipher/internal/core/domain"
)

// SessionOpts ...
type SessionOpts struct {
	Address        string
	SeedPhrase     string
	BirthdayHeight *int64
	CreatedAt      *time.Time
}

func (o SessionOpts) validate() error {
	if o.Address == "" {
		return domain.ErrNullAddress
	}
	if o.SeedPhrase == "" {
		return domain.ErrNullSeedPhrase
	}
	if o.BirthdayHeight != nil && *o.BirthdayHeight < 0 {
		return ErrInvalidBirthdayHeight
	}
	return nil
}

// Session holds the secrets of an unlocked wallet for as long as it's needed
// to sync it. Lock wipes them and makes the session unusable.
type Session struct {
	lock sync.RWMutex

	address        string
	seedPhrase     []byte
	birthdayHeight *int64
	createdAt      *time.Time
}

// Unlock opens a new session for the given wallet.
func Unlock(opts SessionOpts) (*Session, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	s := &Session{
		address:    opts.Address,
		seedPhrase: []byte(opts.SeedPhrase),
	}
	if opts.BirthdayHeight != nil {
		h := *opts.BirthdayHeight
		s.birthdayHeight = &h
	}
	if opts.CreatedAt != nil {
		t := *opts.CreatedAt
		s.createdAt = &t
	}
	return s, nil
}

func (s *Session) Address() string {
	return s.address
}

func (s *Session) IsLocked() bool {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.seedPhrase == nil
}

// SyncRequest returns the request to sync the wallet of the session.
func (s *Session) SyncRequest() (SyncRequest, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	if s.seedPhrase == nil {
		return SyncRequest{}, ErrSessionLocked
	}
	return SyncRequest{
		Address:        s.address,
		SeedPhrase:     string(s.seedPhrase),
		BirthdayHeight: s.birthdayHeight,
		CreatedAt:      s.createdAt,
	}, nil
}

// Lock wipes the seed phrase held by the session. It's safe to call it more
// than once.
func (s *Session) Lock() {
	s.lock.Lock()
	defer s.lock.Unlock()

	zero(s.seedPhrase)
	s.seedPhrase = nil
}
