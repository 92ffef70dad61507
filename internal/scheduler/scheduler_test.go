// seclogsim - synthetic security-audit event generator
// SPDX-License-Identifier: AGPL-3.0-or-later

package scheduler

import (
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreaudit/seclogsim/internal/rng"
)

// constantActor is always available and emits at a fixed hourly rate.
type constantActor struct {
	rate float64
}

func (a constantActor) IsAvailable(_ *rand.Rand, _ time.Time) bool      { return true }
func (a constantActor) NextAvailableAt(now time.Time) time.Time         { return now }
func (a constantActor) EffectiveRate(_ *rand.Rand, _ time.Time) float64 { return a.rate }
func (a constantActor) SessionEndAt() (time.Time, bool)                 { return time.Time{}, false }

func TestNextIsNonDecreasing(t *testing.T) {
	r := rng.New(7)
	arena := []Actor{constantActor{rate: 60}, constantActor{rate: 30}, constantActor{rate: 90}}
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	s := New(r, arena, start)

	var prev time.Time
	for i := 0; i < 500; i++ {
		idx, ts, ok := s.Next()
		require.True(t, ok)
		require.GreaterOrEqual(t, idx, 0)
		require.Less(t, idx, len(arena))
		if i > 0 {
			assert.False(t, ts.Before(prev), "event %d regressed: %v < %v", i, ts, prev)
		}
		prev = ts
		s.Reschedule(idx, ts)
	}
}

func TestDeterministicSequenceForFixedSeed(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	runOnce := func() []time.Time {
		r := rng.New(99)
		s := New(r, []Actor{constantActor{rate: 120}, constantActor{rate: 45}}, start)
		out := make([]time.Time, 0, 200)
		for i := 0; i < 200; i++ {
			idx, ts, ok := s.Next()
			require.True(t, ok)
			out = append(out, ts)
			s.Reschedule(idx, ts)
		}
		return out
	}

	a := runOnce()
	b := runOnce()
	require.Equal(t, a, b)
}

// A single constant-rate actor over a one-hour simulated window should emit
// close to its configured rate (Poisson tolerance of five standard
// deviations).
func TestRateConvergesOverOneHour(t *testing.T) {
	const rate = 900.0
	r := rng.New(5)
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	s := New(r, []Actor{constantActor{rate: rate}}, start)

	count := 0
	for {
		idx, ts, ok := s.Next()
		require.True(t, ok)
		if ts.After(end) {
			break
		}
		count++
		s.Reschedule(idx, ts)
	}

	tolerance := 5 * math.Sqrt(rate)
	assert.InDelta(t, rate, float64(count), tolerance)
}

func TestTiesBreakByActorIndex(t *testing.T) {
	h := entryHeap{}
	ts := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	h = append(h, ScheduleEntry{Time: ts, Index: 3}, ScheduleEntry{Time: ts, Index: 1})
	assert.True(t, h.Less(1, 0))
	assert.False(t, h.Less(0, 1))
}
