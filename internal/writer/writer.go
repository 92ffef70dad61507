// seclogsim - synthetic security-audit event generator
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package writer implements the writer shards: one worker per shard
// owning a bounded command queue and one sink.Sink, accepting Event,
// Flush, and Close commands with no locks. Hand-off is entirely by
// channel move.
package writer

import (
	"context"
	"fmt"

	"github.com/coreaudit/seclogsim/internal/event"
	"github.com/coreaudit/seclogsim/internal/metrics"
	"github.com/coreaudit/seclogsim/internal/sink"
)

// queueCapacity bounds each shard's command queue; a full queue blocks the
// dispatcher, which is the back-pressure mechanism.
const queueCapacity = 1024

type commandKind int

const (
	cmdEvent commandKind = iota
	cmdFlush
	cmdClose
)

type command struct {
	kind  commandKind
	event event.Event
}

// Shard is one writer worker: a suture.Service wrapping a bounded queue
// and a single sink.Sink.
type Shard struct {
	name     string
	sink     sink.Sink
	counters *metrics.Counters
	queue    chan command
	done     chan error
}

// NewShard constructs a writer shard over sink s, reporting into counters.
func NewShard(name string, s sink.Sink, counters *metrics.Counters) *Shard {
	return &Shard{
		name:     name,
		sink:     s,
		counters: counters,
		queue:    make(chan command, queueCapacity),
		done:     make(chan error, 1),
	}
}

// Send enqueues an Event command, blocking (back-pressure) when the queue is
// full. No event is ever dropped.
func (s *Shard) Send(ev event.Event) error {
	s.queue <- command{kind: cmdEvent, event: ev}
	return nil
}

// Flush enqueues a Flush command.
func (s *Shard) Flush() {
	s.queue <- command{kind: cmdFlush}
}

// Close enqueues a Close command and blocks until the shard has drained its
// queue, flushed, and closed its sink.
func (s *Shard) Close() error {
	s.queue <- command{kind: cmdClose}
	return <-s.done
}

// QueueDepth reports the current number of queued commands, for the
// /metrics surface.
func (s *Shard) QueueDepth() int { return len(s.queue) }

// Serve implements suture.Service: it processes commands until a Close is
// received or ctx is canceled.
func (s *Shard) Serve(ctx context.Context) error {
	metrics.SetShardQueueDepth(s.name, 0)
	for {
		select {
		case cmd := <-s.queue:
			metrics.SetShardQueueDepth(s.name, len(s.queue))
			switch cmd.kind {
			case cmdEvent:
				n, err := s.sink.WriteEvent(cmd.event)
				if err != nil {
					err = fmt.Errorf("writer shard %s: write event: %w", s.name, err)
					s.done <- err
					return err
				}
				s.counters.AddEvent(1)
				s.counters.AddBytes(uint64(n))
			case cmdFlush:
				if err := s.sink.Flush(); err != nil {
					err = fmt.Errorf("writer shard %s: flush: %w", s.name, err)
					s.done <- err
					return err
				}
			case cmdClose:
				err := s.sink.Close()
				s.done <- err
				return err
			}
		case <-ctx.Done():
			err := s.sink.Close()
			s.done <- err
			return ctx.Err()
		}
	}
}
