package application

import "errors"

var (
	// ErrNullIndexer ...
	ErrNullIndexer = errors.New("chain indexer must not be null")
	// ErrNullCrypto ...
	ErrNullCrypto = errors.New("shielded crypto service must not be null")
	// ErrNullRepository ...
	ErrNullRepository = errors.New("checkpoint repository must not be null")
	// ErrNullSyncService ...
	ErrNullSyncService = errors.New("sync service must not be null")
	// ErrNullSession ...
	ErrNullSession = errors.New("session must not be null")
	// ErrSessionLocked is returned when using a session after Lock has been
	// called on it.
	ErrSessionLocked = errors.New("session is locked")
	// ErrAccountIndexOutOfRange ...
	ErrAccountIndexOutOfRange = errors.New("account index out of range")
	// ErrInvalidSeedLength ...
	ErrInvalidSeedLength = errors.New("seed length must be in range [32, 252] bytes")
	// ErrNullRawTransaction ...
	ErrNullRawTransaction = errors.New("raw transaction must not be null")
	// ErrInvalidBirthdayHeight ...
	ErrInvalidBirthdayHeight = errors.New("birthday height must not be negative")
)
