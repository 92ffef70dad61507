// seclogsim - synthetic security-audit event generator
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package supervisor arranges the run's goroutines into a suture tree:
// a writer layer holding every shard, a dispatch layer holding the
// dispatcher plus the metrics reporter, and an optional observability
// layer for the HTTP surface. Suture's panic recovery turns a crashing
// service into a logged "<name> thread panicked" event; any error from a
// writer or dispatch service terminates the whole tree, because a failed
// run has nothing useful left to supervise. An observability service that
// fails is only stopped.
package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// TreeConfig bounds the tree's shutdown.
type TreeConfig struct {
	ShutdownTimeout time.Duration
}

// DefaultTreeConfig returns the defaults used by the gen subcommand.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{ShutdownTimeout: 10 * time.Second}
}

// Tree is the run's supervisor hierarchy.
type Tree struct {
	root          *suture.Supervisor
	writer        *suture.Supervisor
	dispatch      *suture.Supervisor
	observability *suture.Supervisor
}

// NewTree builds the three-layer hierarchy. logger receives suture's
// lifecycle events (including panics) through sutureslog.
func NewTree(logger *slog.Logger, cfg TreeConfig) *Tree {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	handler := &sutureslog.Handler{Logger: logger}
	rootSpec := suture.Spec{
		EventHook: handler.MustHook(),
		Timeout:   cfg.ShutdownTimeout,
	}
	childSpec := suture.Spec{Timeout: cfg.ShutdownTimeout}

	root := suture.New("seclogsim", rootSpec)
	writer := suture.New("writer-layer", childSpec)
	dispatch := suture.New("dispatch-layer", childSpec)
	observability := suture.New("observability-layer", childSpec)

	// Writer shards must be draining before the dispatcher produces.
	root.Add(writer)
	root.Add(dispatch)
	root.Add(observability)

	return &Tree{root: root, writer: writer, dispatch: dispatch, observability: observability}
}

// AddWriterService adds a writer shard to the writer layer.
func (t *Tree) AddWriterService(name string, svc suture.Service) {
	t.writer.Add(terminal{name: name, svc: svc})
}

// AddDispatchService adds the dispatcher (or reporter) to the dispatch
// layer.
func (t *Tree) AddDispatchService(name string, svc suture.Service) {
	t.dispatch.Add(terminal{name: name, svc: svc})
}

// AddObservabilityService adds a best-effort service whose failure must not
// abort the run: it is logged and the service is simply not restarted.
func (t *Tree) AddObservabilityService(name string, svc suture.Service) {
	t.observability.Add(bestEffort{name: name, svc: svc})
}

// Serve runs the tree until ctx is canceled or a terminal service fails or
// completes.
func (t *Tree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

// terminal wraps a run-critical service: clean completion is final (no
// restart), and an error tears down the entire tree so the run exits
// instead of looping on a broken pipeline.
type terminal struct {
	name string
	svc  suture.Service
}

func (s terminal) Serve(ctx context.Context) error {
	err := s.svc.Serve(ctx)
	if err == nil || errors.Is(err, context.Canceled) {
		return suture.ErrDoNotRestart
	}
	return errors.Join(err, suture.ErrTerminateSupervisorTree)
}

func (s terminal) String() string { return s.name }

// bestEffort wraps an observability service: any exit, clean or not, just
// stops the service without affecting the run.
type bestEffort struct {
	name string
	svc  suture.Service
}

func (s bestEffort) Serve(ctx context.Context) error {
	err := s.svc.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return errors.Join(err, suture.ErrDoNotRestart)
	}
	return suture.ErrDoNotRestart
}

func (s bestEffort) String() string { return s.name }
