// seclogsim - synthetic security-audit event generator
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package actor implements the runtime profile: the mutable session state
// layered on top of an immutable population.ActorSeed, driven as an
// Idle/Active state machine.
package actor

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/coreaudit/seclogsim/internal/population"
	"github.com/coreaudit/seclogsim/internal/rng"
)

// Profile is the runtime object that layers session state on top of a
// seed. A Profile is owned by exactly one source generator and is never
// shared across goroutines.
type Profile struct {
	Seed population.ActorSeed

	LastEvent        string
	SessionRemaining uint8
	sessionEndAt     time.Time
	NextSessionAt    time.Time

	SessionUserAgent string
	SessionSourceIP  string
	SessionID        string

	hasSession bool
}

// NewProfile clones seed into a fresh, idle profile.
func NewProfile(seed population.ActorSeed) *Profile {
	return &Profile{Seed: seed}
}

// SessionEndAt returns the profile's current session boundary, if any.
func (p *Profile) SessionEndAt() (time.Time, bool) {
	if !p.hasSession {
		return time.Time{}, false
	}
	return p.sessionEndAt, true
}

// HasActiveSession reports whether the profile currently owns a live
// session. Invariant: a positive remaining budget implies the session end
// is set.
func (p *Profile) HasActiveSession() bool {
	return p.hasSession && p.SessionRemaining > 0
}

// EnsureSession transitions Idle → Active if next_session_at ≤ now,
// drawing session length, sticky UA/IP, and the remaining-event budget.
func (p *Profile) EnsureSession(r *rand.Rand, now time.Time) {
	if p.HasActiveSession() {
		return
	}
	if now.Before(p.NextSessionAt) {
		return
	}

	isHuman := p.Seed.Kind == population.KindHuman

	var minMinutes, maxMinutes int
	var minRemaining, maxRemaining int
	var primaryUAProb, primaryIPProb float64
	if isHuman {
		minMinutes, maxMinutes = 20, 120
		minRemaining, maxRemaining = 3, 10
		primaryUAProb, primaryIPProb = 0.65, 0.7
	} else {
		minMinutes, maxMinutes = 10, 60
		minRemaining, maxRemaining = 6, 18
		primaryUAProb, primaryIPProb = 0.9, 0.95
	}

	minutes := rng.IntRange(r, minMinutes, maxMinutes)
	p.sessionEndAt = now.Add(time.Duration(minutes) * time.Minute)
	p.SessionUserAgent = pickSticky(r, p.Seed.UserAgents, primaryUAProb)
	p.SessionSourceIP = pickSticky(r, p.Seed.SourceIPs, primaryIPProb)
	p.SessionRemaining = uint8(rng.IntRange(r, minRemaining, maxRemaining))
	p.SessionID = fmt.Sprintf("%016x", r.Uint64())
	p.hasSession = true
}

// pickSticky returns pool[0] with probability primaryProb, else a uniform
// pick from pool[1:] (falling back to pool[0] if that's the only entry).
func pickSticky(r *rand.Rand, pool []string, primaryProb float64) string {
	if len(pool) == 0 {
		return ""
	}
	if len(pool) == 1 || rng.Bool(r, primaryProb) {
		return pool[0]
	}
	return pool[1+r.IntN(len(pool)-1)]
}

// ConsumeSession implements the Active → Active transition: decrement the
// remaining-event budget, and w.p. 0.2 clear last_event once it reaches
// zero.
func (p *Profile) ConsumeSession(r *rand.Rand) {
	if p.SessionRemaining > 0 {
		p.SessionRemaining--
	}
	if p.SessionRemaining == 0 && rng.Bool(r, 0.2) {
		p.LastEvent = ""
	}
}

// IsAvailable reports whether the actor may emit an event at now: the
// Active→Idle cooldown transition is applied first if the session has
// ended, then the active-window/weekend check is evaluated.
func (p *Profile) IsAvailable(r *rand.Rand, now time.Time) bool {
	p.maybeEndSession(r, now)

	if now.Before(p.NextSessionAt) && !p.HasActiveSession() {
		return false
	}
	return p.inActiveWindow(now)
}

// maybeEndSession applies the Active → Idle transition when
// session_end_at has passed.
func (p *Profile) maybeEndSession(r *rand.Rand, now time.Time) {
	if !p.hasSession {
		return
	}
	if now.Before(p.sessionEndAt) {
		return
	}

	p.hasSession = false
	p.SessionRemaining = 0
	p.SessionUserAgent = ""
	p.SessionSourceIP = ""
	p.SessionID = ""

	isHuman := p.Seed.Kind == population.KindHuman
	minCooldown, maxCooldown := 5, 30
	if isHuman {
		minCooldown, maxCooldown = 30, 180
	}
	cooldown := rng.IntRange(r, minCooldown, maxCooldown)
	p.NextSessionAt = now.Add(time.Duration(cooldown) * time.Minute)
}

// inActiveWindow evaluates the local-time activity window, including
// wrap-around and weekend exclusion.
func (p *Profile) inActiveWindow(now time.Time) bool {
	local := now.UTC().Add(time.Duration(p.Seed.TimezoneOffset) * time.Hour)

	if !p.Seed.WeekendActive {
		switch local.Weekday() {
		case time.Saturday, time.Sunday:
			return false
		}
	}

	// A full-day window still honors the weekend exclusion above.
	if p.Seed.ActiveHours >= 24 {
		return true
	}

	hour := local.Hour()
	start := p.Seed.ActiveStartHour
	end := start + p.Seed.ActiveHours
	if end <= 24 {
		return hour >= start && hour < end
	}
	// Wrap-around window, e.g. start=20, hours=8 ⇒ active 20:00-04:00.
	return hour >= start || hour < end-24
}

// NextAvailableAt returns the earliest t ≥ max(now, next_session_at) whose
// local time satisfies the active window, walking local-day boundaries and
// skipping weekends when required.
func (p *Profile) NextAvailableAt(now time.Time) time.Time {
	t := now
	if t.Before(p.NextSessionAt) {
		t = p.NextSessionAt
	}
	if p.Seed.ActiveHours >= 24 && p.Seed.WeekendActive {
		return t
	}

	for i := 0; i < 14; i++ { // at most two weeks of day-boundary walks
		local := t.UTC().Add(time.Duration(p.Seed.TimezoneOffset) * time.Hour)

		if p.weekendExcluded(local) {
			// Jump to the next local midnight and retry.
			next := time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, local.Location())
			t = next.Add(-time.Duration(p.Seed.TimezoneOffset) * time.Hour)
			continue
		}

		if p.inActiveWindow(t) {
			return t
		}

		// Walk forward to the next active_start_hour boundary in local time.
		start := p.Seed.ActiveStartHour
		boundary := time.Date(local.Year(), local.Month(), local.Day(), start, 0, 0, 0, local.Location())
		if !boundary.After(local) {
			boundary = boundary.AddDate(0, 0, 1)
		}
		candidate := boundary.Add(-time.Duration(p.Seed.TimezoneOffset) * time.Hour)
		if !candidate.After(t) {
			candidate = t.Add(time.Hour)
		}
		t = candidate
	}
	return t
}

func (p *Profile) weekendExcluded(local time.Time) bool {
	if p.Seed.WeekendActive {
		return false
	}
	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return true
	}
	return false
}

// EffectiveRate applies the service pattern's time-of-day or burst factor
// to the base rate; humans always use their bare rate_per_hour.
func (p *Profile) EffectiveRate(r *rand.Rand, now time.Time) float64 {
	if p.Seed.Kind == population.KindHuman {
		return p.Seed.RatePerHour
	}
	local := now.UTC().Add(time.Duration(p.Seed.TimezoneOffset) * time.Hour)
	hour := local.Hour()

	switch p.Seed.ServicePattern {
	case population.PatternDiurnal:
		return p.Seed.RatePerHour * diurnalFactor(hour)
	case population.PatternBursty:
		if rng.Bool(r, 0.12) {
			return p.Seed.RatePerHour * rng.UniformRange(r, 2, 5)
		}
		return p.Seed.RatePerHour * rng.UniformRange(r, 0.4, 1.0)
	default:
		return p.Seed.RatePerHour
	}
}

func diurnalFactor(hour int) float64 {
	switch {
	case hour >= 7 && hour <= 9:
		return 0.7
	case hour >= 10 && hour <= 17:
		return 1.1
	case hour >= 18 && hour <= 21:
		return 0.8
	default:
		return 0.35
	}
}
