// seclogsim - synthetic security-audit event generator
// SPDX-License-Identifier: AGPL-3.0-or-later

package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thejerf/suture/v4"
)

type funcService func(ctx context.Context) error

func (f funcService) Serve(ctx context.Context) error { return f(ctx) }

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestTerminalServiceErrorTearsDownTree(t *testing.T) {
	tree := NewTree(testLogger(), TreeConfig{ShutdownTimeout: time.Second})

	boom := errors.New("sink exploded")
	tree.AddWriterService("exploding", funcService(func(ctx context.Context) error {
		return boom
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := tree.Serve(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestTerminalServiceCleanExitIsNotRestarted(t *testing.T) {
	tree := NewTree(testLogger(), DefaultTreeConfig())

	runs := 0
	tree.AddDispatchService("one-shot", funcService(func(ctx context.Context) error {
		runs++
		return nil
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	_ = tree.Serve(ctx)

	assert.Equal(t, 1, runs)
}

func TestBestEffortServiceFailureDoesNotAbort(t *testing.T) {
	tree := NewTree(testLogger(), DefaultTreeConfig())

	tree.AddObservabilityService("flaky", funcService(func(ctx context.Context) error {
		return errors.New("listen failed")
	}))

	survived := make(chan struct{})
	tree.AddDispatchService("worker", funcService(func(ctx context.Context) error {
		close(survived)
		<-ctx.Done()
		return ctx.Err()
	}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- tree.Serve(ctx) }()

	select {
	case <-survived:
	case <-time.After(2 * time.Second):
		t.Fatal("worker never started")
	}
	cancel()
	<-done
}

func TestWrappersImplementService(t *testing.T) {
	var _ suture.Service = terminal{}
	var _ suture.Service = bestEffort{}
}
