// seclogsim - synthetic security-audit event generator
// SPDX-License-Identifier: AGPL-3.0-or-later

package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/coreaudit/seclogsim/internal/event"
	"github.com/coreaudit/seclogsim/internal/metrics"
	"github.com/coreaudit/seclogsim/internal/sink"
	"github.com/coreaudit/seclogsim/internal/source"
	"github.com/coreaudit/seclogsim/internal/writer"
)

// fakeSource replays a fixed, pre-sorted slice of events.
type fakeSource struct {
	id     string
	events []event.Event
	idx    int
}

func (f *fakeSource) ID() string { return f.id }
func (f *fakeSource) NextEvent() (event.Event, bool) {
	if f.idx >= len(f.events) {
		return event.Event{}, false
	}
	ev := f.events[f.idx]
	f.idx++
	return ev, true
}

func mkEvent(tenant string, t time.Time) event.Event {
	return event.Event{
		Envelope: event.Envelope{
			SchemaVersion: event.SchemaVersion,
			Timestamp:     t,
			Source:        event.SourceCloudTrail,
			EventType:     "ConsoleLogin",
			TenantID:      tenant,
			Region:        "us-east-1",
		},
		Payload: map[string]any{"eventName": "ConsoleLogin"},
	}
}

func TestShardForIsStable(t *testing.T) {
	a := ShardFor("111111111111", "us-east-1", 4)
	b := ShardFor("111111111111", "us-east-1", 4)
	require.Equal(t, a, b)
}

func TestDispatcherEmitsEveryEventAndTerminates(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	srcA := &fakeSource{id: "a", events: []event.Event{
		mkEvent("t1", base),
		mkEvent("t1", base.Add(2 * time.Second)),
	}}
	srcB := &fakeSource{id: "b", events: []event.Event{
		mkEvent("t1", base.Add(1 * time.Second)),
	}}

	dir := t.TempDir()
	sk, err := sink.New(sink.Config{Dir: dir, Format: sink.Format{Type: "jsonl"}, CloudTrail: true})
	require.NoError(t, err)
	counters := &metrics.Counters{}
	shard := writer.NewShard("shard-0", sk, counters)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	shardDone := make(chan error, 1)
	go func() { shardDone <- shard.Serve(ctx) }()

	var tee collectingTee
	d := New([]source.Source{srcA, srcB}, []*writer.Shard{shard}, Limits{}, &tee)

	err = d.Serve(context.Background())
	require.NoError(t, err)

	require.Equal(t, uint64(3), counters.Events())
	require.Len(t, tee.events, 3)
	for i := 1; i < len(tee.events); i++ {
		require.False(t, tee.events[i].Envelope.Timestamp.Before(tee.events[i-1].Envelope.Timestamp))
	}
}

type collectingTee struct {
	events []event.Event
}

func (c *collectingTee) Tee(sourceID string, ev event.Event) { c.events = append(c.events, ev) }
