// seclogsim - synthetic security-audit event generator
// SPDX-License-Identifier: AGPL-3.0-or-later

package population

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSeed(u uint64) *uint64 { return &u }

func TestGenerateDeterministic(t *testing.T) {
	cfg := Config{
		Seed:         testSeed(1),
		ActorCount:   50,
		ServiceRatio: 0.3,
		AccountCount: 2,
	}
	start := time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC)

	a, err := Generate(cfg, start)
	require.NoError(t, err)
	b, err := Generate(cfg, start)
	require.NoError(t, err)

	require.Equal(t, a.Len(), b.Len())
	for i := range a.Actors {
		assert.Equal(t, a.Actors[i], b.Actors[i])
	}
}

func TestGenerateServiceRatio(t *testing.T) {
	cfg := Config{Seed: testSeed(7), ActorCount: 100, ServiceRatio: 0.4, AccountCount: 3}
	pop, err := Generate(cfg, time.Now().UTC())
	require.NoError(t, err)
	require.Len(t, pop.Actors, 100)

	var services int
	for _, a := range pop.Actors {
		if a.Kind == KindService {
			services++
		}
	}
	assert.Equal(t, 40, services)
}

func TestGenerateExplicitActorValidation(t *testing.T) {
	cfg := Config{
		ActorCount: 5,
		Actor: []ExplicitActor{
			{ID: "bad", Kind: "human"}, // missing role
		},
	}
	_, err := Generate(cfg, time.Now().UTC())
	require.Error(t, err)
}

func TestGenerateHotActorBoost(t *testing.T) {
	cfg := Config{
		Seed:               testSeed(42),
		ActorCount:         100,
		ServiceRatio:       0,
		HotActorRatio:      0.1,
		HotActorMultiplier: 10,
		AccountCount:       1,
	}
	pop, err := Generate(cfg, time.Now().UTC())
	require.NoError(t, err)

	var boosted int
	for _, a := range pop.Actors {
		if a.RatePerHour > 50 {
			boosted++
		}
	}
	assert.Greater(t, boosted, 0)
}

func TestRedistributeTimezonesRespectsFixedOffsets(t *testing.T) {
	fixedTZ := -8
	cfg := Config{
		Seed:         testSeed(3),
		ActorCount:   20,
		ServiceRatio: 0,
		AccountCount: 1,
		TimezoneDistribution: []WeightedName{
			{Name: "UTC", Weight: 1},
		},
		Actor: []ExplicitActor{
			{ID: "pinned", Kind: "human", Role: "developer", TimezoneOffset: &fixedTZ},
			{ID: "floating", Kind: "human", Role: "developer"},
		},
	}
	pop, err := Generate(cfg, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	byID := map[string]ActorSeed{}
	for _, a := range pop.Actors {
		if a.ExplicitID != "" {
			byID[a.ExplicitID] = a
		}
	}
	// A configured offset survives redistribution; an unset one is
	// resampled from the distribution like any synthesized actor.
	assert.Equal(t, -8, byID["pinned"].TimezoneOffset)
	assert.Equal(t, 0, byID["floating"].TimezoneOffset)

	for _, a := range pop.Actors {
		if a.ExplicitID == "pinned" {
			continue
		}
		assert.Equal(t, 0, a.TimezoneOffset)
	}
}

func TestActorSeedValidate(t *testing.T) {
	seed := ActorSeed{
		Kind:        KindHuman,
		UserAgents:  []string{"ua"},
		SourceIPs:   []string{"ip"},
		AccessKeyID: "AKIAABC",
		AccountID:   "123456789012",
	}
	require.NoError(t, seed.Validate())

	bad := seed
	bad.AccountID = "123"
	require.Error(t, bad.Validate())

	bad2 := seed
	bad2.AccessKeyID = "ASIAABC"
	require.Error(t, bad2.Validate())
}
