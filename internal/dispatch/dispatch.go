// seclogsim - synthetic security-audit event generator
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package dispatch implements the dispatcher: it merges every configured
// source generator by simulated-time order, throttles wall-clock to
// `sim-delta / time_scale`, selects a writer shard by hashing
// (tenant_id, region), and enforces the optional max_events/max_seconds
// caps. It runs as a single suture.Service so source generation stays
// single-threaded and therefore strictly time-ordered.
package dispatch

import (
	"context"
	"hash/fnv"
	"time"

	"github.com/coreaudit/seclogsim/internal/event"
	"github.com/coreaudit/seclogsim/internal/logging"
	"github.com/coreaudit/seclogsim/internal/source"
	"github.com/coreaudit/seclogsim/internal/writer"
)

// Limits holds the optional run-termination caps.
type Limits struct {
	MaxEvents   uint64
	MaxSeconds  float64
	TimeScale   float64
	FlushPeriod time.Duration
}

func (l Limits) flushPeriod() time.Duration {
	if l.FlushPeriod > 0 {
		return l.FlushPeriod
	}
	return time.Second
}

// Tee receives a copy of every dispatched event, best-effort, after it has
// been handed to its writer shard (the live-transport tap point).
// Implementations must not block the dispatcher for long; errors are
// logged and otherwise ignored.
type Tee interface {
	Tee(sourceID string, ev event.Event)
}

// sourceState is one configured source's peeked (event, ready) pair.
type sourceState struct {
	src    source.Source
	peeked event.Event
	ready  bool
}

func (s *sourceState) refill() {
	ev, ok := s.src.NextEvent()
	s.peeked = ev
	s.ready = ok
}

// Dispatcher merges source generators into the writer shards.
type Dispatcher struct {
	sources []*sourceState
	shards  []*writer.Shard
	limits  Limits
	tee     Tee

	lastSimTime time.Time
	haveLast    bool
}

// New builds a dispatcher over sources, hashing (tenant_id, region) across
// shards for stable writer-shard selection.
func New(sources []source.Source, shards []*writer.Shard, limits Limits, tee Tee) *Dispatcher {
	states := make([]*sourceState, len(sources))
	for i, s := range sources {
		states[i] = &sourceState{src: s}
	}
	return &Dispatcher{sources: states, shards: shards, limits: limits, tee: tee}
}

// ShardFor implements the `hash(tenant_id, region) mod N_shards` rule,
// guaranteeing every event for a (tenant, region) pair lands in the same
// shard.
func ShardFor(tenantID, region string, nShards int) int {
	if nShards <= 0 {
		return 0
	}
	h := fnv.New64a()
	h.Write([]byte(tenantID))
	h.Write([]byte{0})
	h.Write([]byte(region))
	return int(h.Sum64() % uint64(nShards))
}

// Serve implements suture.Service: it drives the merge loop until every
// source is exhausted, a cap is hit, or ctx is canceled.
func (d *Dispatcher) Serve(ctx context.Context) error {
	for _, s := range d.sources {
		s.refill()
	}

	ticker := time.NewTicker(d.limits.flushPeriod())
	defer ticker.Stop()

	var emitted uint64
	start := time.Now()

	for {
		select {
		case <-ctx.Done():
			d.closeAll()
			return ctx.Err()
		case <-ticker.C:
			d.flushAll()
		default:
		}

		if d.limits.MaxEvents > 0 && emitted >= d.limits.MaxEvents {
			d.closeAll()
			return nil
		}
		if d.limits.MaxSeconds > 0 && time.Since(start).Seconds() >= d.limits.MaxSeconds {
			d.closeAll()
			return nil
		}

		idx := d.earliestReady()
		if idx < 0 {
			d.closeAll()
			return nil
		}

		s := d.sources[idx]
		ev := s.peeked
		d.throttle(ev.Envelope.Timestamp)

		if err := d.dispatch(s.src.ID(), ev); err != nil {
			logging.Error().Err(err).Str("source", s.src.ID()).Msg("writer dispatch failed")
			d.closeAll()
			return err
		}
		emitted++

		s.refill()
	}
}

// earliestReady returns the index of the ready source with the earliest
// peeked event time, or -1 when every source is exhausted.
func (d *Dispatcher) earliestReady() int {
	best := -1
	for i, s := range d.sources {
		if !s.ready {
			continue
		}
		if best < 0 || s.peeked.Envelope.Timestamp.Before(d.sources[best].peeked.Envelope.Timestamp) {
			best = i
		}
	}
	return best
}

// throttle sleeps so wall-clock advances at sim-delta/time_scale relative
// to the previous emission. A sim-time regression never sleeps.
func (d *Dispatcher) throttle(simTime time.Time) {
	defer func() {
		d.lastSimTime = simTime
		d.haveLast = true
	}()
	if d.limits.TimeScale <= 0 || !d.haveLast {
		return
	}
	delta := simTime.Sub(d.lastSimTime)
	if delta <= 0 {
		return
	}
	time.Sleep(time.Duration(float64(delta) / d.limits.TimeScale))
}

func (d *Dispatcher) dispatch(sourceID string, ev event.Event) error {
	shard := d.shards[ShardFor(ev.Envelope.TenantID, ev.Envelope.Region, len(d.shards))]
	if err := shard.Send(ev); err != nil {
		return err
	}
	if d.tee != nil {
		d.tee.Tee(sourceID, ev)
	}
	return nil
}

func (d *Dispatcher) flushAll() {
	for _, sh := range d.shards {
		sh.Flush()
	}
}

func (d *Dispatcher) closeAll() {
	for _, sh := range d.shards {
		sh.Close()
	}
}
