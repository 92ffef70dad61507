// seclogsim - synthetic security-audit event generator
// SPDX-License-Identifier: AGPL-3.0-or-later

package source

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	json "github.com/goccy/go-json"

	"github.com/coreaudit/seclogsim/internal/event"
	"github.com/coreaudit/seclogsim/internal/population"
	"github.com/coreaudit/seclogsim/internal/rng"
)

func testPopulation(t *testing.T, n int, seed uint64) *population.ActorPopulation {
	t.Helper()
	cfg := population.Config{
		Seed:         &seed,
		ActorCount:   n,
		ServiceRatio: 0,
		AccountCount: 2,
	}
	pop, err := population.Generate(cfg, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return pop
}

func cloudTrailConfig() Config {
	return Config{
		Type:    "cloudtrail",
		ID:      "ct-main",
		Curated: true,
		Regions: []string{"us-east-1", "eu-west-1"},
	}
}

func TestCloudTrailSourceDeterministic(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	pop := testPopulation(t, 10, 3)

	runOnce := func() []string {
		src := NewCloudTrailSource(cloudTrailConfig(), pop, rng.New(42), start)
		out := make([]string, 0, 200)
		for i := 0; i < 200; i++ {
			ev, ok := src.NextEvent()
			require.True(t, ok)
			payload, err := json.Marshal(ev.Payload)
			require.NoError(t, err)
			out = append(out, ev.Envelope.Timestamp.Format(time.RFC3339Nano)+" "+ev.Envelope.EventType+" "+string(payload))
		}
		return out
	}

	require.Equal(t, runOnce(), runOnce())
}

func TestCloudTrailSourceTimeOrdered(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	src := NewCloudTrailSource(cloudTrailConfig(), testPopulation(t, 10, 3), rng.New(1), start)

	var prev time.Time
	for i := 0; i < 500; i++ {
		ev, ok := src.NextEvent()
		require.True(t, ok)
		if i > 0 {
			assert.False(t, ev.Envelope.Timestamp.Before(prev))
		}
		prev = ev.Envelope.Timestamp
	}
}

func TestCloudTrailSourceEmitsCuratedNames(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	src := NewCloudTrailSource(cloudTrailConfig(), testPopulation(t, 10, 3), rng.New(1), start)

	allowed := map[string]struct{}{}
	for _, n := range []string{
		"ConsoleLogin", "AssumeRole", "GetSessionToken", "PutObject", "GetObject",
		"RunInstances", "StartInstances", "StopInstances", "DescribeInstances",
		"GetCallerIdentity",
	} {
		allowed[n] = struct{}{}
	}

	for i := 0; i < 300; i++ {
		ev, ok := src.NextEvent()
		require.True(t, ok)
		_, known := allowed[ev.Envelope.EventType]
		assert.True(t, known, "unexpected event name %q", ev.Envelope.EventType)
		assert.Equal(t, event.SourceCloudTrail, ev.Envelope.Source)
		assert.Contains(t, src.regions, ev.Envelope.Region)
	}
}

// Every emitted timestamp, shifted to the actor's local time, must fall
// inside its configured activity window.
func TestCloudTrailSourceHonorsActiveWindow(t *testing.T) {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC) // Monday
	pop := testPopulation(t, 6, 11)
	byPrincipal := make(map[string]population.ActorSeed, pop.Len())
	for _, a := range pop.Actors {
		byPrincipal[a.PrincipalID] = a
	}

	src := NewCloudTrailSource(cloudTrailConfig(), pop, rng.New(2), start)
	for i := 0; i < 400; i++ {
		ev, ok := src.NextEvent()
		require.True(t, ok)
		seed, found := byPrincipal[ev.Envelope.Actor.ID]
		require.True(t, found)
		if seed.ActiveHours >= 24 {
			continue
		}
		local := ev.Envelope.Timestamp.UTC().Add(time.Duration(seed.TimezoneOffset) * time.Hour)
		hour := local.Hour()
		startHr := seed.ActiveStartHour
		endHr := startHr + seed.ActiveHours
		in := false
		if endHr <= 24 {
			in = hour >= startHr && hour < endHr
		} else {
			in = hour >= startHr || hour < endHr-24
		}
		assert.True(t, in, "event at local hour %d outside window [%d,%d)", hour, startHr, endHr)
		if !seed.WeekendActive {
			wd := local.Weekday()
			assert.NotEqual(t, time.Saturday, wd)
			assert.NotEqual(t, time.Sunday, wd)
		}
	}
}

func TestEntraSourceCategoryWeightsConverge(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	cfg := Config{
		Type:            "entra_id",
		ID:              "entra-main",
		TenantID:        "c0ffee00-0000-4000-8000-000000000001",
		TenantDomain:    "example.onmicrosoft.com",
		Categories:      []string{"signin", "audit"},
		CategoryWeights: []float64{3, 1},
	}
	src := NewEntraSource(cfg, testPopulation(t, 10, 5), rng.New(9), start)

	signinNames := map[string]struct{}{"SignIn": {}, "RefreshToken": {}, "DeviceCode": {}}

	const total = 10000
	signin := 0
	for i := 0; i < total; i++ {
		ev, ok := src.NextEvent()
		require.True(t, ok)
		if _, isSignin := signinNames[ev.Envelope.EventType]; isSignin {
			signin++
		}
	}
	share := float64(signin) / float64(total)
	assert.GreaterOrEqual(t, share, 0.72)
	assert.LessOrEqual(t, share, 0.78)
}

func TestEntraSourceSetsTenantFields(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	cfg := Config{
		Type:         "entra_id",
		ID:           "entra-main",
		TenantID:     "c0ffee00-0000-4000-8000-000000000001",
		TenantDomain: "example.onmicrosoft.com",
	}
	src := NewEntraSource(cfg, testPopulation(t, 4, 6), rng.New(4), start)

	ev, ok := src.NextEvent()
	require.True(t, ok)
	assert.Equal(t, cfg.TenantID, ev.Envelope.TenantID)
	assert.Equal(t, "entra-main", ev.Envelope.Region)
	assert.Equal(t, event.SourceEntraID, ev.Envelope.Source)
	assert.Equal(t, cfg.TenantID, ev.Payload["tenantId"])
}

// Over many events from actors with a configured error rate, the share of
// failing records converges on the rate within three binomial standard
// deviations.
func TestErrorRateConverges(t *testing.T) {
	const p = 0.1
	errRate := p
	seedVal := uint64(21)
	cfg := population.Config{
		Seed:           &seedVal,
		ActorCount:     5,
		ServiceRatio:   0,
		AccountCount:   1,
		HumanErrorRate: &errRate,
	}
	pop, err := population.Generate(cfg, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	src := NewCloudTrailSource(cloudTrailConfig(), pop, rng.New(13), start)

	const total = 10000
	failures := 0
	for i := 0; i < total; i++ {
		ev, ok := src.NextEvent()
		require.True(t, ok)
		if ev.Envelope.Outcome == event.OutcomeFailure {
			failures++
		}
	}
	share := float64(failures) / float64(total)
	tolerance := 3 * 0.003 // 3·sqrt(p(1-p)/N) for p=0.1, N=10000
	assert.InDelta(t, p, share, tolerance+0.002)
}
