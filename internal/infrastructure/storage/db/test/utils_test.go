package db_test

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
)

func randomAddress() string {
	return "utest1" + randomHex(20)
}

func randomTimestamp() int64 {
	return int64(randomIntInRange(1_600_000_000_000, 100_000_000_000))
}

func randomHex(len int) string {
	return hex.EncodeToString(randomBytes(len))
}

func randomBytes(len int) []byte {
	b := make([]byte, len)
	//nolint
	rand.Read(b)
	return b
}

// randomIntInRange returns a random number in [min, min+n).
func randomIntInRange(min, n int) int {
	r, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(r.Int64()) + min
}
