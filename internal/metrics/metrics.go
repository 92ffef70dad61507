// seclogsim - synthetic security-audit event generator
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package metrics exposes the run-level counters: two atomics, events and
// bytes, updated by writer shards and observed by the Prometheus series on
// a timer, optionally scraped over HTTP.
package metrics

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters holds the two atomics shared across writer shards.
// Zero value is ready to use; safe for concurrent use from every writer
// shard goroutine.
type Counters struct {
	events atomic.Uint64
	bytes  atomic.Uint64
}

func (c *Counters) AddEvent(n uint64) { c.events.Add(n) }
func (c *Counters) AddBytes(n uint64) { c.bytes.Add(n) }
func (c *Counters) Events() uint64    { return c.events.Load() }
func (c *Counters) Bytes() uint64     { return c.bytes.Load() }

var (
	eventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "seclogsim_events_emitted_total",
		Help: "Total number of events written to a sink across all sources.",
	})

	bytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "seclogsim_bytes_written_total",
		Help: "Total number of serialized bytes written across all sinks.",
	})

	shardQueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "seclogsim_writer_shard_queue_depth",
		Help: "Current number of queued commands for a writer shard.",
	}, []string{"shard"})

	filesRotated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "seclogsim_files_rotated_total",
		Help: "Total number of sink files closed due to rotation.",
	}, []string{"source", "tenant", "region"})
)

// SetShardQueueDepth reports the current depth of a writer shard's command
// queue, for the /metrics surface.
func SetShardQueueDepth(shard string, depth int) {
	shardQueueDepth.WithLabelValues(shard).Set(float64(depth))
}

// ObserveFileRotated increments the rotation counter for a (source, tenant,
// region) partition.
func ObserveFileRotated(source, tenant, region string) {
	filesRotated.WithLabelValues(source, tenant, region).Inc()
}

// Reporter samples a Counters snapshot into the Prometheus series on an
// interval. It only observes the atomics; it never influences control
// flow.
type Reporter struct {
	counters   *Counters
	interval   time.Duration
	lastEvents uint64
	lastBytes  uint64
}

func NewReporter(counters *Counters, interval time.Duration) *Reporter {
	if interval <= 0 {
		interval = time.Second
	}
	return &Reporter{counters: counters, interval: interval}
}

// Sample publishes the delta since the previous Sample call into the
// Prometheus counters, which only support monotonic increments.
func (r *Reporter) Sample() {
	events := r.counters.Events()
	bytes := r.counters.Bytes()

	if events > r.lastEvents {
		eventsTotal.Add(float64(events - r.lastEvents))
	}
	if bytes > r.lastBytes {
		bytesTotal.Add(float64(bytes - r.lastBytes))
	}
	r.lastEvents = events
	r.lastBytes = bytes
}

// Serve implements suture.Service: it samples on the configured interval
// until ctx is canceled, taking one final sample on the way out so the
// last partial interval is not lost.
func (r *Reporter) Serve(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.Sample()
			return ctx.Err()
		case <-ticker.C:
			r.Sample()
		}
	}
}
