package domain

import "errors"

var (
	// ErrNetwork is returned when a remote endpoint is unreachable or answers
	// with a non-success status.
	ErrNetwork = errors.New("network error")
	// ErrKeyDerivation is returned when the viewing key can't be derived from
	// the given seed and account index.
	ErrKeyDerivation = errors.New("key derivation error")
	// ErrMatching is returned when the batch matching primitive fails on any
	// chunk of compact outputs.
	ErrMatching = errors.New("matching error")
	// ErrInvalidTxID ...
	ErrInvalidTxID = errors.New("txid must be an even length hex string")
	// ErrInvalidNetwork ...
	ErrInvalidNetwork = errors.New("network must be either main or test")
	// ErrNullAddress ...
	ErrNullAddress = errors.New("address must not be null")
	// ErrNullSeedPhrase ...
	ErrNullSeedPhrase = errors.New("seed phrase must not be null")
	// ErrNullViewingKey ...
	ErrNullViewingKey = errors.New("viewing key must not be null")
	// ErrInvalidHeightRange ...
	ErrInvalidHeightRange = errors.New("start height must not be greater than end height")
)
