// seclogsim - synthetic security-audit event generator
// SPDX-License-Identifier: AGPL-3.0-or-later

package rng

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsDeterministic(t *testing.T) {
	a, b := New(12345), New(12345)
	for i := 0; i < 100; i++ {
		require.Equal(t, a.Uint64(), b.Uint64())
	}
}

func TestWeightedIndexRespectsWeights(t *testing.T) {
	r := New(1)
	weights := []float64{1, 0, 3}

	counts := make([]int, len(weights))
	for i := 0; i < 10000; i++ {
		idx, ok := WeightedIndex(r, weights)
		require.True(t, ok)
		counts[idx]++
	}
	assert.Zero(t, counts[1])
	assert.Greater(t, counts[2], counts[0])
	assert.InDelta(t, 2500, counts[0], 400)
}

func TestWeightedIndexDegenerate(t *testing.T) {
	r := New(1)
	_, ok := WeightedIndex(r, []float64{0, -1, math.NaN(), math.Inf(1)})
	assert.False(t, ok)

	_, ok = WeightedIndex(r, nil)
	assert.False(t, ok)
}

func TestNormalRangeStaysInBounds(t *testing.T) {
	r := New(3)
	for i := 0; i < 1000; i++ {
		v := NormalRange(r, 0.2, 0.8, 6)
		require.GreaterOrEqual(t, v, 0.2)
		require.LessOrEqual(t, v, 0.8)
	}
}

func TestNormalRangeEqualEndpoints(t *testing.T) {
	r := New(3)
	assert.Equal(t, 0.5, NormalRange(r, 0.5, 0.5, 6))
}

func TestExponentialIntervalMeanMatchesRate(t *testing.T) {
	r := New(4)
	const rate = 60.0 // one per minute
	var sum float64
	const n = 20000
	for i := 0; i < n; i++ {
		d := ExponentialInterval(r, rate)
		require.GreaterOrEqual(t, d, 0.001)
		sum += d
	}
	mean := sum / n
	assert.InDelta(t, 60, mean, 3) // 3600/rate seconds
}

func TestIntRangeBounds(t *testing.T) {
	r := New(5)
	for i := 0; i < 1000; i++ {
		v := IntRange(r, 3, 10)
		require.GreaterOrEqual(t, v, 3)
		require.Less(t, v, 10)
	}
	assert.Equal(t, 7, IntRange(r, 7, 7))
}
