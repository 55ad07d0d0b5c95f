// Package util provides shared utility functions used across the application.
package util

import "math/rand/v2"

// Shuffle permutes s in place with a Fisher-Yates shuffle driven by rng.
// Walking i from len(s) down to 1, element i-1 is swapped with a uniformly
// chosen element in [0, i).
func Shuffle[T any](s []T, rng *rand.Rand) {
	for i := len(s); i > 0; i-- {
		j := rng.IntN(i)
		s[i-1], s[j] = s[j], s[i-1]
	}
}
