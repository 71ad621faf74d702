// pkg/generator/distributions.go
package generator

import (
	"gonum.org/v1/gonum/stat/distuv"
)

// distSource feeds a Rand to the gonum distributions
type distSource struct {
	rng Rand
}

func (s distSource) Uint64() uint64 { return s.rng.Uint64() }

// Seed is a no-op: streams are keyed when a Source derives them
func (s distSource) Seed(uint64) {}

// Uniform draws from [lo, hi)
func Uniform(rng Rand, lo, hi float64) float64 {
	return distuv.Uniform{Min: lo, Max: hi, Src: distSource{rng}}.Rand()
}

// Normal draws from N(mean, stddev²)
func Normal(rng Rand, mean, stddev float64) float64 {
	return distuv.Normal{Mu: mean, Sigma: stddev, Src: distSource{rng}}.Rand()
}

// Exponential draws from an exponential distribution with the given scale (mean)
func Exponential(rng Rand, scale float64) float64 {
	return distuv.Exponential{Rate: 1 / scale, Src: distSource{rng}}.Rand()
}

// LogNormal draws exp(N(mu, sigma²))
func LogNormal(rng Rand, mu, sigma float64) float64 {
	return distuv.LogNormal{Mu: mu, Sigma: sigma, Src: distSource{rng}}.Rand()
}

// Poisson draws a count with mean lambda. A non-positive mean yields 0
// without consuming the stream.
func Poisson(rng Rand, lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	return int(distuv.Poisson{Lambda: lambda, Src: distSource{rng}}.Rand())
}

// Bernoulli reports success with probability p
func Bernoulli(rng Rand, p float64) bool {
	return distuv.Bernoulli{P: p, Src: distSource{rng}}.Rand() == 1
}

// Choice picks one item uniformly. items must not be empty.
func Choice[T any](rng Rand, items []T) T {
	return items[rng.IntN(len(items))]
}
