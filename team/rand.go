package team

import (
	"hash/fnv"
	"math/rand"
)

// taskRand returns a PRNG seeded from the task text, so the same task
// always yields the same synthesized figures.
func taskRand(task string) *rand.Rand {
	h := fnv.New64a()
	_, _ = h.Write([]byte(task))
	return rand.New(rand.NewSource(int64(h.Sum64())))
}

// uniform returns a value in [lo, hi).
func uniform(r *rand.Rand, lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}

// between returns an int in [lo, hi].
func between(r *rand.Rand, lo, hi int) int {
	return lo + r.Intn(hi-lo+1)
}

// pick returns one element of choices.
func pick(r *rand.Rand, choices []string) string {
	return choices[r.Intn(len(choices))]
}

// sample returns n distinct elements of choices, preserving their order
// of selection.
func sample(r *rand.Rand, choices []string, n int) []string {
	if n > len(choices) {
		n = len(choices)
	}
	idx := r.Perm(len(choices))[:n]
	out := make([]string, n)
	for i, j := range idx {
		out[i] = choices[j]
	}
	return out
}

// round2 rounds to two decimal places.
func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
