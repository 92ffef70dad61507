// seclogsim - synthetic security-audit event generator
// SPDX-License-Identifier: AGPL-3.0-or-later

package writer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/coreaudit/seclogsim/internal/event"
	"github.com/coreaudit/seclogsim/internal/metrics"
	"github.com/coreaudit/seclogsim/internal/sink"
)

func testEvent() event.Event {
	return event.Event{
		Envelope: event.Envelope{
			SchemaVersion: event.SchemaVersion,
			Timestamp:     time.Now(),
			Source:        event.SourceCloudTrail,
			EventType:     "ConsoleLogin",
			TenantID:      "111111111111",
			Region:        "us-east-1",
		},
		Payload: map[string]any{"eventName": "ConsoleLogin"},
	}
}

func TestShardProcessesEventsAndFlushes(t *testing.T) {
	dir := t.TempDir()
	sk, err := sink.New(sink.Config{Dir: dir, Format: sink.Format{Type: "jsonl"}, CloudTrail: true})
	require.NoError(t, err)

	counters := &metrics.Counters{}
	shard := NewShard("shard-0", sk, counters)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go shard.Serve(ctx)

	require.NoError(t, shard.Send(testEvent()))
	require.NoError(t, shard.Send(testEvent()))
	shard.Flush()
	require.NoError(t, shard.Close())

	require.Equal(t, uint64(2), counters.Events())
	require.Positive(t, counters.Bytes())
}
