// seclogsim - synthetic security-audit event generator
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package rng centralizes the seeded pseudo-random sampling used by the
// population generator, scheduler, and template engine: weighted-index
// selection, uniform/normal error-rate draws, and exponential inter-arrival
// sampling. A single seed produces a bit-identical sequence of draws across
// runs, which is what makes the whole engine reproducible.
package rng

import (
	"math"
	"math/rand/v2"
)

// New returns a PRNG seeded deterministically from seed. The two halves fed
// to PCG are derived from seed with a fixed odd constant so that seed=0 does
// not collapse to a degenerate generator state.
func New(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15))
}

// FromEntropy seeds a generator from the OS's entropy source. Per design,
// nothing about the chosen seed is logged: output becomes non-deterministic
// by design when the caller omits a configured seed.
func FromEntropy() *rand.Rand {
	var s [2]uint64
	s[0] = rand.Uint64()
	s[1] = rand.Uint64()
	return rand.New(rand.NewPCG(s[0], s[1]))
}

// WeightedIndex picks an index into weights proportionally to its value.
// Non-positive, NaN, or infinite weights are treated as zero. Returns
// (-1, false) if every weight is non-positive (degenerate distribution).
func WeightedIndex(r *rand.Rand, weights []float64) (int, bool) {
	var total float64
	for _, w := range weights {
		if isPositiveFinite(w) {
			total += w
		}
	}
	if total <= 0 {
		return -1, false
	}
	target := r.Float64() * total
	var acc float64
	for i, w := range weights {
		if !isPositiveFinite(w) {
			continue
		}
		acc += w
		if target < acc {
			return i, true
		}
	}
	// floating point rounding: fall back to the last positive weight.
	for i := len(weights) - 1; i >= 0; i-- {
		if isPositiveFinite(weights[i]) {
			return i, true
		}
	}
	return -1, false
}

func isPositiveFinite(w float64) bool {
	return w > 0 && !math.IsNaN(w) && !math.IsInf(w, 0)
}

// UniformRange draws u ~ U[min, max]. The bounds are not checked: callers
// clamp/swap them so that min <= max before calling.
func UniformRange(r *rand.Rand, min, max float64) float64 {
	if min == max {
		return min
	}
	return min + r.Float64()*(max-min)
}

// NormalRange draws from N(mean, stddev) truncated to [min, max] via
// rejection sampling, retrying up to maxAttempts before clamping.
func NormalRange(r *rand.Rand, min, max float64, maxAttempts int) float64 {
	if min == max {
		return min
	}
	mean := (min + max) / 2
	stddev := (max - min) / 6
	for i := 0; i < maxAttempts; i++ {
		v := mean + r.NormFloat64()*stddev
		if v >= min && v <= max {
			return v
		}
	}
	return clamp(mean+r.NormFloat64()*stddev, min, max)
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// ExponentialInterval draws the Δ of an exponential inter-arrival process
// with rate ratePerHour (events/hour), -ln(u)/(rate/3600) seconds, floored
// at one millisecond.
func ExponentialInterval(r *rand.Rand, ratePerHour float64) float64 {
	u := r.Float64()
	if u <= 0 {
		u = math.SmallestNonzeroFloat64
	}
	secs := -math.Log(u) / (ratePerHour / 3600)
	if secs < 0.001 {
		return 0.001
	}
	return secs
}

// IntRange draws an integer in [min, max).
func IntRange(r *rand.Rand, min, max int) int {
	if max <= min {
		return min
	}
	return min + r.IntN(max-min)
}

// Bool returns true with probability p.
func Bool(r *rand.Rand, p float64) bool {
	return r.Float64() < p
}

// Shuffle shuffles n elements in place using swap.
func Shuffle(r *rand.Rand, n int, swap func(i, j int)) {
	r.Shuffle(n, swap)
}
