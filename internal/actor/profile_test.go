// seclogsim - synthetic security-audit event generator
// SPDX-License-Identifier: AGPL-3.0-or-later

package actor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreaudit/seclogsim/internal/population"
	"github.com/coreaudit/seclogsim/internal/rng"
)

func humanSeed() population.ActorSeed {
	return population.ActorSeed{
		Kind:            population.KindHuman,
		UserAgents:      []string{"ua-primary", "ua-secondary"},
		SourceIPs:       []string{"ip-primary", "ip-secondary"},
		RatePerHour:     20,
		ActiveStartHour: 8,
		ActiveHours:     9,
		TimezoneOffset:  0,
		WeekendActive:   false,
	}
}

func TestSessionLifecycle(t *testing.T) {
	r := rng.New(1)
	p := NewProfile(humanSeed())

	now := time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC) // Monday, in window
	require.False(t, p.HasActiveSession())

	p.EnsureSession(r, now)
	require.True(t, p.HasActiveSession())
	require.NotEmpty(t, p.SessionUserAgent)
	require.NotEmpty(t, p.SessionSourceIP)

	for p.SessionRemaining > 0 {
		p.ConsumeSession(r)
	}
	require.Equal(t, uint8(0), p.SessionRemaining)
}

func TestIsAvailableRespectsWeekend(t *testing.T) {
	r := rng.New(2)
	p := NewProfile(humanSeed())

	saturday := time.Date(2024, 1, 6, 9, 0, 0, 0, time.UTC)
	assert.False(t, p.IsAvailable(r, saturday))
}

func TestFullDayWindowStillExcludesWeekend(t *testing.T) {
	seed := humanSeed()
	seed.ActiveHours = 24
	p := NewProfile(seed)
	r := rng.New(8)

	saturday := time.Date(2024, 1, 6, 12, 0, 0, 0, time.UTC)
	assert.False(t, p.IsAvailable(r, saturday))

	next := p.NextAvailableAt(saturday)
	assert.Equal(t, time.Monday, next.Weekday())
}

func TestIsAvailableRespectsWindowWraparound(t *testing.T) {
	seed := humanSeed()
	seed.ActiveStartHour = 22
	seed.ActiveHours = 6 // 22:00 - 04:00
	seed.WeekendActive = true
	p := NewProfile(seed)
	r := rng.New(3)

	inWindow := time.Date(2024, 1, 8, 23, 0, 0, 0, time.UTC)
	outOfWindow := time.Date(2024, 1, 8, 12, 0, 0, 0, time.UTC)

	assert.True(t, p.IsAvailable(r, inWindow))
	assert.False(t, p.IsAvailable(r, outOfWindow))
}

func TestNextAvailableAtAdvancesToWindow(t *testing.T) {
	p := NewProfile(humanSeed())
	now := time.Date(2024, 1, 8, 20, 0, 0, 0, time.UTC) // out of window (8-17)

	next := p.NextAvailableAt(now)
	assert.False(t, next.Before(now))
	assert.GreaterOrEqual(t, next.Hour(), p.Seed.ActiveStartHour)
}

func TestEffectiveRateDiurnal(t *testing.T) {
	seed := population.ActorSeed{
		Kind:           population.KindService,
		RatePerHour:    100,
		ServicePattern: population.PatternDiurnal,
		ActiveHours:    24,
	}
	p := NewProfile(seed)
	r := rng.New(4)

	midday := time.Date(2024, 1, 8, 12, 0, 0, 0, time.UTC)
	night := time.Date(2024, 1, 8, 2, 0, 0, 0, time.UTC)

	assert.InDelta(t, 110, p.EffectiveRate(r, midday), 0.01)
	assert.InDelta(t, 35, p.EffectiveRate(r, night), 0.01)
}
