// seclogsim - synthetic security-audit event generator
// SPDX-License-Identifier: AGPL-3.0-or-later

package source

import (
	"math/rand/v2"
	"time"

	"github.com/coreaudit/seclogsim/internal/actor"
	"github.com/coreaudit/seclogsim/internal/event"
	"github.com/coreaudit/seclogsim/internal/population"
	"github.com/coreaudit/seclogsim/internal/rng"
	"github.com/coreaudit/seclogsim/internal/scheduler"
	"github.com/coreaudit/seclogsim/internal/templates"
)

// Source is the small behavioral capability every event source presents
// to the dispatcher.
type Source interface {
	ID() string
	NextEvent() (event.Event, bool)
}

// schedulerActor adapts *actor.Profile to the scheduler.Actor interface.
type schedulerActor struct{ p *actor.Profile }

func (a schedulerActor) IsAvailable(r *rand.Rand, now time.Time) bool { return a.p.IsAvailable(r, now) }
func (a schedulerActor) NextAvailableAt(now time.Time) time.Time      { return a.p.NextAvailableAt(now) }
func (a schedulerActor) EffectiveRate(r *rand.Rand, now time.Time) float64 {
	return a.p.EffectiveRate(r, now)
}
func (a schedulerActor) SessionEndAt() (time.Time, bool) { return a.p.SessionEndAt() }

// buildArena clones a population into runtime profiles and the scheduler's
// index-addressed arena. Each profile is owned by exactly one source
// generator; the scheduler only borrows it by index.
func buildArena(pop *population.ActorPopulation) ([]*actor.Profile, []scheduler.Actor) {
	profiles := make([]*actor.Profile, len(pop.Actors))
	arena := make([]scheduler.Actor, len(pop.Actors))
	for i, seed := range pop.Actors {
		p := actor.NewProfile(seed)
		profiles[i] = p
		arena[i] = schedulerActor{p: p}
	}
	return profiles, arena
}

// mfaAuthenticated draws the per-event MFA flag: humans w.p. 0.7, services
// always false.
func mfaAuthenticated(r *rand.Rand, kind population.Kind) bool {
	if kind != population.KindHuman {
		return false
	}
	return rng.Bool(r, 0.7)
}

func outcomeFor(hasError bool) event.Outcome {
	if hasError {
		return event.OutcomeFailure
	}
	return event.OutcomeSuccess
}

func actorContextFor(p *actor.Profile, region, tenantID string, r *rand.Rand) templates.ActorContext {
	ua := p.SessionUserAgent
	if ua == "" && len(p.Seed.UserAgents) > 0 {
		ua = p.Seed.UserAgents[0]
	}
	ip := p.SessionSourceIP
	if ip == "" && len(p.Seed.SourceIPs) > 0 {
		ip = p.Seed.SourceIPs[0]
	}
	return templates.ActorContext{
		ActorID:          actorID(p),
		ActorKind:        string(p.Seed.Kind),
		ActorName:        p.Seed.UserName,
		IdentityType:     p.Seed.IdentityType,
		PrincipalID:      p.Seed.PrincipalID,
		ARN:              p.Seed.ARN,
		AccountID:        p.Seed.AccountID,
		AccessKeyID:      p.Seed.AccessKeyID,
		UserAgent:        ua,
		SourceIP:         ip,
		SessionID:        p.SessionID,
		Region:           region,
		TenantID:         tenantID,
		MFAAuthenticated: mfaAuthenticated(r, p.Seed.Kind),
	}
}

func actorID(p *actor.Profile) string {
	if p.Seed.ExplicitID != "" {
		return p.Seed.ExplicitID
	}
	return p.Seed.PrincipalID
}
