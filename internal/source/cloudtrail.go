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
	"github.com/coreaudit/seclogsim/internal/templates/cloudtrail"
)

// CloudTrailSource composes a population, scheduler, and the cloudtrail
// template engine into a NextEvent() loop.
type CloudTrailSource struct {
	id    string
	cfg   Config
	r     *rand.Rand
	sched *scheduler.Scheduler
	arena []*actor.Profile

	catalogue templates.Catalogue
	allowed   map[string]struct{}

	regions       []string
	regionWeights []float64
}

// NewCloudTrailSource builds a CloudTrail source generator over pop, seeded
// from r, starting scheduling at start.
func NewCloudTrailSource(cfg Config, pop *population.ActorPopulation, r *rand.Rand, start time.Time) *CloudTrailSource {
	profiles, arenaIface := buildArena(pop)
	sched := scheduler.New(r, arenaIface, start)

	regions := cfg.Regions
	if len(regions) == 0 {
		regions = []string{"us-east-1"}
	}
	weights := cfg.RegionDistribution
	if len(weights) != len(regions) {
		weights = make([]float64, len(regions))
		for i := range weights {
			weights[i] = 1
		}
	}

	// The curated flag restricts selection to the built-in catalogue names;
	// without it every candidate-table entry is eligible.
	var allowed map[string]struct{}
	if cfg.Curated {
		allowed = make(map[string]struct{}, len(cloudtrail.DefaultNames))
		for _, n := range cloudtrail.DefaultNames {
			allowed[n] = struct{}{}
		}
	}

	return &CloudTrailSource{
		id:            cfg.ID,
		cfg:           cfg,
		r:             r,
		sched:         sched,
		arena:         profiles,
		catalogue:     cloudtrail.Catalogue(),
		allowed:       allowed,
		regions:       regions,
		regionWeights: weights,
	}
}

func (s *CloudTrailSource) ID() string { return s.id }

// NextEvent produces the next CloudTrail event in simulated-time order.
func (s *CloudTrailSource) NextEvent() (event.Event, bool) {
	idx, t, ok := s.sched.Next()
	if !ok {
		return event.Event{}, false
	}
	p := s.arena[idx]

	p.EnsureSession(s.r, t)

	regionIdx, ok := rng.WeightedIndex(s.r, s.regionWeights)
	region := s.regions[0]
	if ok {
		region = s.regions[regionIdx]
	}

	tenantID := p.Seed.AccountID
	ctx := actorContextFor(p, region, tenantID, s.r)

	class := cloudtrail.LastEventClass(p.LastEvent)
	name, ok := templates.Pick(s.r, s.catalogue, class, s.allowed, p.Seed.EventBias)
	if !ok {
		name = "ConsoleLogin"
	}

	payload, err := cloudtrail.Build(ctx, name, t, s.r)
	if err != nil {
		// Template errors are fatal for the single event; the catalogue
		// here is well-formed so this path is unreachable.
		return event.Event{}, false
	}

	cloudtrail.InjectError(payload, name, p.Seed.ErrorRate, s.r)
	_, hasError := payload["errorCode"]

	p.LastEvent = name
	p.ConsumeSession(s.r)
	s.sched.Reschedule(idx, t)

	ev := event.Event{
		Envelope: event.Envelope{
			SchemaVersion: event.SchemaVersion,
			Timestamp:     t,
			Source:        event.SourceCloudTrail,
			EventType:     name,
			Actor:         event.Principal{ID: ctx.ActorID, Kind: ctx.ActorKind, Name: ctx.ActorName},
			Outcome:       outcomeFor(hasError),
			IP:            ctx.SourceIP,
			UserAgent:     ctx.UserAgent,
			SessionID:     ctx.SessionID,
			TenantID:      tenantID,
			Region:        region,
			SourceID:      s.id,
		},
		Payload: payload,
	}
	return ev, true
}
