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
	"github.com/coreaudit/seclogsim/internal/templates/entraid"
)

// EntraSource composes a population, scheduler, and the entraid template
// engine into a NextEvent() loop.
type EntraSource struct {
	id    string
	cfg   Config
	r     *rand.Rand
	sched *scheduler.Scheduler
	arena []*actor.Profile

	catalogue templates.Catalogue

	categories      []string
	categoryWeights []float64
	// categoryAllowed maps a category to the set of event names the
	// candidate picker may choose once that category has been rolled.
	categoryAllowed map[string]map[string]struct{}
}

// NewEntraSource builds an Entra ID source generator over pop.
func NewEntraSource(cfg Config, pop *population.ActorPopulation, r *rand.Rand, start time.Time) *EntraSource {
	profiles, arenaIface := buildArena(pop)
	sched := scheduler.New(r, arenaIface, start)

	categories := cfg.Categories
	if len(categories) == 0 {
		categories = []string{"signin", "audit"}
	}
	weights := cfg.CategoryWeights
	if len(weights) != len(categories) {
		weights = make([]float64, len(categories))
		for i := range weights {
			weights[i] = 1
		}
	}

	allowed := make(map[string]map[string]struct{}, len(categories))
	for _, c := range categories {
		var names []string
		switch c {
		case "signin":
			names = entraid.SignInNames
		case "audit":
			names = entraid.AuditNames
		default:
			names = entraid.DefaultNames
		}
		set := make(map[string]struct{}, len(names))
		for _, n := range names {
			set[n] = struct{}{}
		}
		allowed[c] = set
	}

	return &EntraSource{
		id:              cfg.ID,
		cfg:             cfg,
		r:               r,
		sched:           sched,
		arena:           profiles,
		catalogue:       entraid.Catalogue(),
		categories:      categories,
		categoryWeights: weights,
		categoryAllowed: allowed,
	}
}

func (s *EntraSource) ID() string { return s.id }

// pickCategory rolls the next event's log category from the configured
// weights, so the aggregate signin:audit ratio converges on the configured
// one regardless of the candidate tables' internal weighting.
func (s *EntraSource) pickCategory() string {
	idx, ok := rng.WeightedIndex(s.r, s.categoryWeights)
	if !ok {
		return s.categories[0]
	}
	return s.categories[idx]
}

// NextEvent produces the next Entra ID event in simulated-time order.
func (s *EntraSource) NextEvent() (event.Event, bool) {
	idx, t, ok := s.sched.Next()
	if !ok {
		return event.Event{}, false
	}
	p := s.arena[idx]

	p.EnsureSession(s.r, t)

	category := s.pickCategory()
	tenantID := s.cfg.TenantID
	ctx := actorContextFor(p, "global", tenantID, s.r)
	if ctx.ActorName == "" {
		ctx.ActorName = actorID(p) + "@" + s.cfg.TenantDomain
	}

	class := entraid.LastEventClass(p.LastEvent)
	name, ok := templates.Pick(s.r, s.catalogue, class, s.categoryAllowed[category], p.Seed.EventBias)
	if !ok {
		name = fallbackNameFor(category)
	}

	payload, err := entraid.Build(ctx, name, t, s.r)
	if err != nil {
		return event.Event{}, false
	}

	entraid.InjectError(payload, name, p.Seed.ErrorRate, s.r)
	hasError := payload["result"] == "failure"

	p.LastEvent = name
	p.ConsumeSession(s.r)
	s.sched.Reschedule(idx, t)

	ev := event.Event{
		Envelope: event.Envelope{
			SchemaVersion: event.SchemaVersion,
			Timestamp:     t,
			Source:        event.SourceEntraID,
			EventType:     name,
			Actor:         event.Principal{ID: ctx.ActorID, Kind: ctx.ActorKind, Name: ctx.ActorName},
			Outcome:       outcomeFor(hasError),
			IP:            ctx.SourceIP,
			UserAgent:     ctx.UserAgent,
			SessionID:     ctx.SessionID,
			TenantID:      tenantID,
			Region:        s.id,
			SourceID:      s.id,
		},
		Payload: payload,
	}
	return ev, true
}

func fallbackNameFor(category string) string {
	if category == "audit" {
		return "UpdateUser"
	}
	return "SignIn"
}
