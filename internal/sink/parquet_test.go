// seclogsim - synthetic security-audit event generator
// SPDX-License-Identifier: AGPL-3.0-or-later

package sink

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParquetSinkWritesAndRenames(t *testing.T) {
	dir := t.TempDir()
	s, err := newParquetSink(Config{Dir: dir, Format: Format{Type: "parquet"}, CloudTrail: true})
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		n, err := s.WriteEvent(testEvent("111111111111", "us-east-1"))
		require.NoError(t, err)
		require.Positive(t, n)
	}
	require.NoError(t, s.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	name := entries[0].Name()
	assert.True(t, strings.HasSuffix(name, ".parquet"), "expected final .parquet name, got %s", name)
	assert.False(t, strings.HasSuffix(name, ".parquet.tmp"))

	info, err := entries[0].Info()
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestParquetSinkHandlesEntraPayloads(t *testing.T) {
	dir := t.TempDir()
	s, err := newParquetSink(Config{Dir: dir, Format: Format{Type: "parquet"}, SourceID: "entra-main"})
	require.NoError(t, err)

	ev := testEvent("tenant-a", "entra-main")
	ev.Envelope.Source = "entra_id"
	ev.Payload = map[string]any{"category": "SignInLogs", "result": "success"}

	_, err = s.WriteEvent(ev)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "entra-main_tenant-a_"))
}

func TestRouterRoutesBySourceID(t *testing.T) {
	dirA, dirB := t.TempDir(), t.TempDir()
	sa := newJSONSink(Config{Dir: dirA, Format: Format{Type: "jsonl"}, CloudTrail: true})
	sb := newJSONSink(Config{Dir: dirB, Format: Format{Type: "jsonl"}, SourceID: "entra-main"})
	router := NewRouter(map[string]Sink{"ct-main": sa, "entra-main": sb})

	evA := testEvent("111111111111", "us-east-1")
	evA.Envelope.SourceID = "ct-main"
	evB := testEvent("tenant-a", "entra-main")
	evB.Envelope.SourceID = "entra-main"

	_, err := router.WriteEvent(evA)
	require.NoError(t, err)
	_, err = router.WriteEvent(evB)
	require.NoError(t, err)
	require.NoError(t, router.Close())

	entriesA, err := os.ReadDir(dirA)
	require.NoError(t, err)
	require.Len(t, entriesA, 1)
	entriesB, err := os.ReadDir(dirB)
	require.NoError(t, err)
	require.Len(t, entriesB, 1)
}

func TestRouterRejectsUnknownSource(t *testing.T) {
	router := NewRouter(map[string]Sink{})
	ev := testEvent("111111111111", "us-east-1")
	ev.Envelope.SourceID = "nope"
	_, err := router.WriteEvent(ev)
	require.Error(t, err)
}
