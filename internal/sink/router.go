// seclogsim - synthetic security-audit event generator
// SPDX-License-Identifier: AGPL-3.0-or-later

package sink

import (
	"errors"
	"fmt"

	"github.com/coreaudit/seclogsim/internal/event"
)

// Router demultiplexes events onto per-source sinks by the envelope's
// source id, so one writer shard can carry events for several configured
// sources with different output formats and directories. A Router is owned
// by exactly one shard and is not safe for concurrent use, same as the
// sinks it wraps.
type Router struct {
	routes map[string]Sink
}

// NewRouter builds a router over the given source-id → sink table.
func NewRouter(routes map[string]Sink) *Router {
	return &Router{routes: routes}
}

// WriteEvent implements Sink, delegating to the event's source sink.
func (r *Router) WriteEvent(ev event.Event) (int, error) {
	s, ok := r.routes[ev.Envelope.SourceID]
	if !ok {
		return 0, fmt.Errorf("sink: no sink registered for source %q", ev.Envelope.SourceID)
	}
	return s.WriteEvent(ev)
}

// Flush implements Sink, flushing every registered sink.
func (r *Router) Flush() error {
	var errs []error
	for id, s := range r.routes {
		if err := s.Flush(); err != nil {
			errs = append(errs, fmt.Errorf("source %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

// Close implements Sink, closing every registered sink.
func (r *Router) Close() error {
	var errs []error
	for id, s := range r.routes {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("source %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}
