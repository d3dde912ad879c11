package dice

import (
	"crypto/rand"
	"math/big"
	mrand "math/rand"
)

type cryptoSource struct{}

// NewCryptoSource returns a non-reproducible Source backed by crypto/rand.
//
// Postcondition: every value returned by Intn is in [0, n).
func NewCryptoSource() Source {
	return cryptoSource{}
}

// Intn panics when n <= 0 or when crypto/rand fails.
func (cryptoSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("dice: crypto/rand failure: " + err.Error())
	}
	return int(v.Int64())
}

// SeededSource is a deterministic Source. Two SeededSources built from the same
// seed produce identical sequences.
//
// SeededSource is not safe for concurrent use; an encounter owns its source.
type SeededSource struct {
	seed int64
	rng  *mrand.Rand
}

// NewSeededSource returns a SeededSource for seed. A zero seed is replaced by 1 so
// an unset configuration value still yields a stable sequence.
func NewSeededSource(seed int64) *SeededSource {
	if seed == 0 {
		seed = 1
	}
	return &SeededSource{seed: seed, rng: mrand.New(mrand.NewSource(seed))}
}

// Seed returns the effective seed.
func (s *SeededSource) Seed() int64 { return s.seed }

// Intn panics when n <= 0.
func (s *SeededSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	return s.rng.Intn(n)
}
