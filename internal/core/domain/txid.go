package domain

import "encoding/hex"

// ValidateTxID returns an error if txid isn't an even length hex string.
func ValidateTxID(txid string) error {
	if len(txid)%2 != 0 {
		return ErrInvalidTxID
	}
	if _, err := hex.DecodeString(txid); err != nil {
		return ErrInvalidTxID
	}
	return nil
}

// ReverseTxID reverses the order of the byte pairs of the given hex txid.
// Compact blocks carry txids in wire (little-endian) order, while the
// indexer API and the UI use the display (big-endian) order. The
// conversion is its own inverse.
func ReverseTxID(txid string) string {
	n := len(txid) / 2
	buf := make([]byte, 0, len(txid))
	for i := n - 1; i >= 0; i-- {
		buf = append(buf, txid[2*i], txid[2*i+1])
	}
	return string(buf)
}
