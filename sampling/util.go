// Package sampling implements the random draws used by causal models and
// agents. Every function takes its randomness source explicitly; nothing in
// this package touches the global generator.
package sampling

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/distuv"
)

const tol = 1e-6

// NewRand returns a generator for the given seed and stream. Repetitions of
// one experiment share the seed and use their index as the stream.
func NewRand(seed, stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, stream))
}

// SampleOne returns the first element i of pv where sum(pv[:i+1]) > x.
func SampleOne(pv []float64, x float64) int {
	var cumProb float64
	for i, p := range pv {
		cumProb += p
		if cumProb > x {
			return i
		}
	}

	if cumProb < 1.0-tol { // Leave room for floating point error.
		panic(fmt.Errorf("probability distribution does not sum to 1! x=%v, pv=%v", x, pv))
	}

	return len(pv) - 1
}

// Categorical draws an index according to the distribution pv.
func Categorical(rng *rand.Rand, pv []float64) int {
	return SampleOne(pv, rng.Float64())
}

// Choice returns an index in [0, n) uniformly at random.
func Choice(rng *rand.Rand, n int) int {
	return rng.IntN(n)
}

// Beta draws from Beta(alpha, beta) using rng as the source.
func Beta(rng *rand.Rand, alpha, beta float64) float64 {
	dist := distuv.Beta{Alpha: alpha, Beta: beta, Src: rng}
	return dist.Rand()
}

// Dirichlet draws a distribution over n outcomes from a flat Dirichlet prior.
func Dirichlet(rng *rand.Rand, n int) []float64 {
	alpha := make([]float64, n)
	for i := range alpha {
		alpha[i] = 1
	}

	dist := distmv.NewDirichlet(alpha, rng)
	return dist.Rand(nil)
}
