// Package utils provides deterministic input generators shared by the tests
// and the command-line tools.
package utils

import "math/rand"

// NewRand returns a generator seeded for reproducible runs.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// SequenceRange returns the keys 0..n-1 in order.
func SequenceRange(n int) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = i
	}
	return s
}

// RandomArray returns n pseudo-random keys drawn from r.
func RandomArray(r *rand.Rand, n int) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = r.Int()
	}
	return s
}

// Shuffle permutes s in place using r.
func Shuffle[T any](r *rand.Rand, s []T) {
	r.Shuffle(len(s), func(i, j int) {
		s[i], s[j] = s[j], s[i]
	})
}
