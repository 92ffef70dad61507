// seclogsim - synthetic security-audit event generator
// SPDX-License-Identifier: AGPL-3.0-or-later

package population

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	cfg := Config{Seed: testSeed(99), ActorCount: 25, ServiceRatio: 0.2, AccountCount: 2}
	pop, err := Generate(cfg, time.Now().UTC())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "actors.duckdb")
	require.NoError(t, Save(path, pop))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Len(t, loaded.Actors, len(pop.Actors))

	for i := range pop.Actors {
		want := pop.Actors[i]
		got := loaded.Actors[i]
		require.Equal(t, want.Kind, got.Kind)
		require.Equal(t, want.AccountID, got.AccountID)
		require.Equal(t, want.ARN, got.ARN)
		require.Equal(t, want.RatePerHour, got.RatePerHour)
		require.ElementsMatch(t, want.UserAgents, got.UserAgents)
		require.ElementsMatch(t, want.SourceIPs, got.SourceIPs)
	}
}

// dropColumns simulates a legacy population file by removing columns a
// current Save always writes.
func dropColumns(t *testing.T, path string, cols ...string) {
	t.Helper()
	db, err := sql.Open("duckdb", path)
	require.NoError(t, err)
	defer db.Close()
	for _, col := range cols {
		_, err := db.Exec(fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", actorsTable, col))
		require.NoError(t, err)
	}
}

func TestLoadLegacyFileWithoutAccessKeyID(t *testing.T) {
	cfg := Config{Seed: testSeed(6), ActorCount: 20, ServiceRatio: 0.5, AccountCount: 1}
	pop, err := Generate(cfg, time.Now().UTC())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "actors.duckdb")
	require.NoError(t, Save(path, pop))
	dropColumns(t, path, "access_key_id")

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Len(t, loaded.Actors, len(pop.Actors))

	for i, got := range loaded.Actors {
		prefix := "AKIA"
		if got.Kind == KindService {
			prefix = "ASIA"
		}
		// The key is repopulated from the actor's stable row index, not
		// carried over from the original population.
		want := prefix + fmt.Sprintf("%016X", i)[:16]
		require.Equal(t, want, got.AccessKeyID)
		require.NoError(t, got.Validate())
	}

	// Repopulation is deterministic across loads of the same file.
	again, err := Load(path)
	require.NoError(t, err)
	for i := range loaded.Actors {
		require.Equal(t, loaded.Actors[i].AccessKeyID, again.Actors[i].AccessKeyID)
	}
}

func TestLoadLegacyFileWithoutRateAndProfileColumns(t *testing.T) {
	cfg := Config{Seed: testSeed(8), ActorCount: 10, ServiceRatio: 0.5, AccountCount: 1}
	pop, err := Generate(cfg, time.Now().UTC())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "actors.duckdb")
	require.NoError(t, Save(path, pop))
	dropColumns(t, path, "rate_per_hour", "error_rate", "service_profile", "service_pattern")

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Len(t, loaded.Actors, len(pop.Actors))

	for _, got := range loaded.Actors {
		require.Equal(t, defaultRateForRole(got.Kind, got.Role), got.RatePerHour)
		require.InDelta(t, 0.02, got.ErrorRate, 1e-9)
		if got.Kind == KindService {
			require.Equal(t, ServiceProfileGeneric, got.ServiceProfile)
			require.Equal(t, PatternConstant, got.ServicePattern)
		}
	}
}
