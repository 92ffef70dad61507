// seclogsim - synthetic security-audit event generator
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package scheduler implements the per-source min-heap event scheduler: a
// priority queue of (simulated_time, actor_index) pairs, advanced by
// exponential inter-arrival draws at each actor's effective rate.
package scheduler

import (
	"container/heap"
	"math/rand/v2"
	"time"

	"github.com/coreaudit/seclogsim/internal/rng"
)

// Actor is the subset of actor.Profile's behavior the scheduler depends on,
// kept minimal to avoid an import cycle between scheduler and actor.
type Actor interface {
	IsAvailable(r *rand.Rand, now time.Time) bool
	NextAvailableAt(now time.Time) time.Time
	EffectiveRate(r *rand.Rand, now time.Time) float64
	SessionEndAt() (time.Time, bool)
}

// ScheduleEntry pairs a simulated emission time with the owning actor's
// arena index. Ties on time break by actor index, giving a total
// deterministic order for a given seed.
type ScheduleEntry struct {
	Time  time.Time
	Index int
}

type entryHeap []ScheduleEntry

func (h entryHeap) Len() int { return len(h) }
func (h entryHeap) Less(i, j int) bool {
	if h[i].Time.Equal(h[j].Time) {
		return h[i].Index < h[j].Index
	}
	return h[i].Time.Before(h[j].Time)
}
func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *entryHeap) Push(x any)   { *h = append(*h, x.(ScheduleEntry)) }
func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Scheduler is a min-heap scheduler over an arena of actors addressed by
// index; the scheduler borrows actors via the arena, never owning them.
type Scheduler struct {
	arena []Actor
	heap  entryHeap
	rng   *rand.Rand
}

// New builds a scheduler seeded with one entry per actor in arena, pushed
// at that actor's first available time on or after start.
func New(r *rand.Rand, arena []Actor, start time.Time) *Scheduler {
	s := &Scheduler{arena: arena, rng: r}
	s.heap = make(entryHeap, 0, len(arena))
	for i, a := range arena {
		s.heap = append(s.heap, ScheduleEntry{Time: a.NextAvailableAt(start), Index: i})
	}
	heap.Init(&s.heap)
	return s
}

// Next pops the minimum entry, re-pushing unavailable actors until it finds
// one that can emit, and returns (actor index, emission time). The caller
// is responsible for calling Reschedule after processing the event.
func (s *Scheduler) Next() (int, time.Time, bool) {
	for s.heap.Len() > 0 {
		entry := heap.Pop(&s.heap).(ScheduleEntry)
		a := s.arena[entry.Index]
		if !a.IsAvailable(s.rng, entry.Time) {
			heap.Push(&s.heap, ScheduleEntry{Time: a.NextAvailableAt(entry.Time), Index: entry.Index})
			continue
		}
		return entry.Index, entry.Time, true
	}
	return 0, time.Time{}, false
}

// Reschedule draws the actor's next exponential inter-arrival interval from
// t and pushes the resulting entry, clamping to session_end_at first when
// the draw would otherwise cross it.
func (s *Scheduler) Reschedule(index int, t time.Time) {
	a := s.arena[index]
	rate := a.EffectiveRate(s.rng, t)
	if rate <= 0 {
		rate = 0.001
	}
	deltaSeconds := rng.ExponentialInterval(s.rng, rate)
	next := t.Add(time.Duration(deltaSeconds * float64(time.Second)))

	if end, ok := a.SessionEndAt(); ok && next.After(end) {
		next = end
	}

	heap.Push(&s.heap, ScheduleEntry{Time: a.NextAvailableAt(next), Index: index})
}

// Len reports the number of pending entries.
func (s *Scheduler) Len() int { return s.heap.Len() }
