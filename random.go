package main

import (
	"crypto/rand"
	"math/big"
	mrand "math/rand/v2"

	"numberline/internal/engine"
)

// cryptoSource draws game numbers from crypto/rand.
type cryptoSource struct{}

var _ engine.Source = cryptoSource{}

func (cryptoSource) IntN(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		logWarn("Error generating random number: %v, using fallback", err)
		return mrand.IntN(n)
	}
	return int(v.Int64())
}
