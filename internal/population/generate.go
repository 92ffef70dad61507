// seclogsim - synthetic security-audit event generator
// SPDX-License-Identifier: AGPL-3.0-or-later

package population

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/coreaudit/seclogsim/internal/rng"
)

// Generate produces an ActorPopulation deterministically from cfg and an
// optional seed: explicit actors first, then synthesized humans and
// services, then the hot-actor boost and timezone redistribution passes.
// startTime anchors the timezone-redistribution pass.
func Generate(cfg Config, startTime time.Time) (*ActorPopulation, error) {
	var seed uint64
	if cfg.Seed != nil {
		seed = *cfg.Seed
	} else {
		r := rng.FromEntropy()
		seed = r.Uint64()
	}
	r := rng.New(seed)

	explicit, err := buildExplicitActors(r, cfg)
	if err != nil {
		return nil, err
	}

	total := cfg.ActorCount
	if len(explicit) > total {
		total = len(explicit)
	}
	if total < 1 {
		total = 1
	}
	serviceRatio := clamp01(cfg.ServiceRatio)
	serviceCount := int(math.Round(float64(total) * serviceRatio))
	humanCount := total - serviceCount

	var explicitHuman, explicitService int
	for _, a := range explicit {
		if a.Kind == KindHuman {
			explicitHuman++
		} else {
			explicitService++
		}
	}

	synthHuman := humanCount - explicitHuman
	if synthHuman < 0 {
		synthHuman = 0
	}
	synthService := serviceCount - explicitService
	if synthService < 0 {
		synthService = 0
	}

	roleWeights := cfg.Role
	if len(roleWeights) == 0 {
		roleWeights = DefaultRoleWeights()
	}
	profileWeights := cfg.ServiceProfiles
	if len(profileWeights) == 0 {
		profileWeights = DefaultServiceProfiles(cfg.ServiceEventsPerHr)
	}

	accountPool := buildAccountPool(r, cfg)

	actors := make([]ActorSeed, 0, total)
	actors = append(actors, explicit...)

	for i := 0; i < synthHuman; i++ {
		seed, err := synthesizeHuman(r, cfg, roleWeights, accountPool)
		if err != nil {
			return nil, err
		}
		actors = append(actors, seed)
	}
	for i := 0; i < synthService; i++ {
		seed, err := synthesizeService(r, cfg, profileWeights, accountPool)
		if err != nil {
			return nil, err
		}
		actors = append(actors, seed)
	}

	for i := range actors {
		actors[i].ID = i
	}

	applyHotActorBoost(r, actors, cfg.HotActorRatio, cfg.HotActorMultiplier)
	redistributeTimezones(r, actors, cfg.TimezoneDistribution, startTime)

	for i := range actors {
		if err := actors[i].Validate(); err != nil {
			return nil, err
		}
	}

	return &ActorPopulation{Actors: actors}, nil
}

func buildAccountPool(r *rand.Rand, cfg Config) []string {
	if len(cfg.AccountIDs) > 0 {
		return cfg.AccountIDs
	}
	n := cfg.AccountCount
	if n < 1 {
		n = 1
	}
	ids := make([]string, n)
	for i := range ids {
		ids[i] = generateAccountID(r)
	}
	return ids
}

func pickAccount(r *rand.Rand, pool []string) string {
	if len(pool) == 0 {
		return generateAccountID(r)
	}
	return pool[r.IntN(len(pool))]
}

func buildExplicitActors(r *rand.Rand, cfg Config) ([]ActorSeed, error) {
	out := make([]ActorSeed, 0, len(cfg.Actor))
	seen := make(map[string]struct{}, len(cfg.Actor))
	for _, a := range cfg.Actor {
		if a.ID == "" {
			return nil, fmt.Errorf("explicit actor: id must be non-empty")
		}
		if _, dup := seen[a.ID]; dup {
			return nil, fmt.Errorf("explicit actor %s: duplicate id", a.ID)
		}
		seen[a.ID] = struct{}{}

		kind := Kind(a.Kind)
		if kind != KindHuman && kind != KindService {
			return nil, fmt.Errorf("explicit actor %s: kind must be human or service", a.ID)
		}
		if kind == KindHuman {
			if a.Role == "" {
				return nil, fmt.Errorf("explicit actor %s: human actors require role", a.ID)
			}
			if a.ServiceProfile != "" {
				return nil, fmt.Errorf("explicit actor %s: human actors forbid service_profile", a.ID)
			}
		} else {
			if a.ServiceProfile == "" {
				return nil, fmt.Errorf("explicit actor %s: service actors require service_profile", a.ID)
			}
			if a.Role != "" || a.UserName != "" {
				return nil, fmt.Errorf("explicit actor %s: service actors forbid role/user_name", a.ID)
			}
		}
		if a.EventsPerHour != 0 && a.EventsPerHour <= 0 {
			return nil, fmt.Errorf("explicit actor %s: events_per_hour must be > 0", a.ID)
		}
		if a.ErrorRate != nil && (*a.ErrorRate < 0 || *a.ErrorRate > 1) {
			return nil, fmt.Errorf("explicit actor %s: error_rate must be in [0,1]", a.ID)
		}
		if a.TimezoneOffset != nil && (*a.TimezoneOffset < -12 || *a.TimezoneOffset > 14) {
			return nil, fmt.Errorf("explicit actor %s: timezone_offset must be in [-12,14]", a.ID)
		}
		if a.AccountID != "" {
			if len(a.AccountID) != 12 {
				return nil, fmt.Errorf("explicit actor %s: account_id must match ^\\d{12}$", a.ID)
			}
			for _, c := range a.AccountID {
				if c < '0' || c > '9' {
					return nil, fmt.Errorf("explicit actor %s: account_id must match ^\\d{12}$", a.ID)
				}
			}
		}

		accountID := a.AccountID
		if accountID == "" {
			accountID = generateAccountID(r)
		}
		ident := generateIdentity(r, kind, accountID, Role(a.Role), ServiceProfile(a.ServiceProfile), a.UserName)

		uas := a.UserAgents
		if len(uas) == 0 {
			pool := humanUserAgents
			if kind == KindService {
				pool = serviceUserAgents
			}
			uas = sampleDistinct(r, pool, rng.IntRange(r, 2, 5))
		}
		ips := a.SourceIPs
		if len(ips) == 0 {
			pool := publicIPPool
			if kind == KindService {
				pool = serviceIPPool
			}
			ips = sampleDistinct(r, pool, rng.IntRange(r, 1, 4))
		}

		rate := a.EventsPerHour
		if rate <= 0 {
			rate = 10
		}
		errRate := 0.0
		if a.ErrorRate != nil {
			errRate = *a.ErrorRate
		}

		tags := make(map[string]struct{}, len(a.Tags))
		for _, t := range a.Tags {
			tags[t] = struct{}{}
		}

		accessKey := ident.accessKeyID
		if a.AccessKeyID != "" {
			accessKey = a.AccessKeyID
		}

		tz := 0
		tzFixed := false
		if a.TimezoneOffset != nil {
			tz = *a.TimezoneOffset
			tzFixed = true
		}

		out = append(out, ActorSeed{
			Kind:            kind,
			Role:            Role(a.Role),
			ServiceProfile:  ServiceProfile(a.ServiceProfile),
			ServicePattern:  ServicePattern(a.ServicePattern),
			IdentityType:    ident.identityType,
			PrincipalID:     ident.principalID,
			ARN:             ident.arn,
			AccountID:       accountID,
			AccessKeyID:     accessKey,
			UserName:        ident.userName,
			UserAgents:      uas,
			SourceIPs:       ips,
			RatePerHour:     rate,
			ErrorRate:       errRate,
			ActiveStartHour: a.ActiveStartHr,
			ActiveHours:     orDefault(a.ActiveHours, 24),
			TimezoneOffset:  tz,
			TimezoneFixed:   tzFixed,
			WeekendActive:   a.WeekendActive,
			ExplicitID:      a.ID,
			Tags:            tags,
			EventBias:       a.EventBias,
		})
	}
	return out, nil
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func synthesizeHuman(r *rand.Rand, cfg Config, roleWeights []WeightedName, accountPool []string) (ActorSeed, error) {
	weights := make([]float64, len(roleWeights))
	for i, w := range roleWeights {
		weights[i] = w.Weight
	}
	idx, ok := rng.WeightedIndex(r, weights)
	role := RoleDev
	rate := 10.0
	if ok {
		role = Role(roleWeights[idx].Name)
		rate = roleWeights[idx].EventsPerHour
	}
	if rate <= 0 {
		rate = 10
	}

	accountID := pickAccount(r, accountPool)
	ident := generateIdentity(r, KindHuman, accountID, role, "", "")

	uas := sampleDistinct(r, humanUserAgents, rng.IntRange(r, 2, 5))
	ips := sampleDistinct(r, publicIPPool, rng.IntRange(r, 1, 4))

	activeHours := rng.IntRange(r, 7, 11)
	activeStart := rng.IntRange(r, 6, 12)

	tz := 0
	switch u := r.Float64(); {
	case u < 0.5:
		tz = -8
	case u < 0.8:
		tz = 0
	default:
		tz = 8
	}
	weekend := rng.Bool(r, 0.2)

	errRate := humanErrorRate(r, cfg)

	return ActorSeed{
		Kind:            KindHuman,
		Role:            role,
		IdentityType:    ident.identityType,
		PrincipalID:     ident.principalID,
		ARN:             ident.arn,
		AccountID:       accountID,
		AccessKeyID:     ident.accessKeyID,
		UserName:        ident.userName,
		UserAgents:      uas,
		SourceIPs:       ips,
		RatePerHour:     rate,
		ErrorRate:       errRate,
		ActiveStartHour: activeStart,
		ActiveHours:     activeHours,
		TimezoneOffset:  tz,
		WeekendActive:   weekend,
		Tags:            map[string]struct{}{},
		EventBias:       map[string]float64{},
	}, nil
}

func synthesizeService(r *rand.Rand, cfg Config, profileWeights []WeightedName, accountPool []string) (ActorSeed, error) {
	weights := make([]float64, len(profileWeights))
	for i, w := range profileWeights {
		weights[i] = w.Weight
	}
	idx, ok := rng.WeightedIndex(r, weights)
	profile := ServiceProfileGeneric
	pattern := PatternConstant
	rate := 12.0
	if ok {
		w := profileWeights[idx]
		profile = ServiceProfile(w.Name)
		if w.Pattern != "" {
			pattern = ServicePattern(w.Pattern)
		}
		if w.EventsPerHour > 0 {
			rate = w.EventsPerHour
		}
	}

	accountID := pickAccount(r, accountPool)
	ident := generateIdentity(r, KindService, accountID, "", profile, "")

	uas := sampleDistinct(r, serviceUserAgents, rng.IntRange(r, 2, 5))
	ips := sampleDistinct(r, serviceIPPool, rng.IntRange(r, 1, 4))

	activeHours := rng.IntRange(r, 16, 25)
	activeStart := rng.IntRange(r, 0, 24)

	errRate := serviceErrorRate(r, cfg)

	return ActorSeed{
		Kind:            KindService,
		ServiceProfile:  profile,
		ServicePattern:  pattern,
		IdentityType:    ident.identityType,
		PrincipalID:     ident.principalID,
		ARN:             ident.arn,
		AccountID:       accountID,
		AccessKeyID:     ident.accessKeyID,
		UserAgents:      uas,
		SourceIPs:       ips,
		RatePerHour:     rate,
		ErrorRate:       errRate,
		ActiveStartHour: activeStart,
		ActiveHours:     activeHours,
		TimezoneOffset:  0,
		WeekendActive:   true,
		Tags:            map[string]struct{}{},
		EventBias:       map[string]float64{},
	}, nil
}

func humanErrorRate(r *rand.Rand, cfg Config) float64 {
	if cfg.HumanErrorRate != nil {
		return clamp01(*cfg.HumanErrorRate)
	}
	return defaultErrorRate(r, cfg)
}

func serviceErrorRate(r *rand.Rand, cfg Config) float64 {
	if cfg.ServiceErrorRate != nil {
		return clamp01(*cfg.ServiceErrorRate)
	}
	return defaultErrorRate(r, cfg)
}

func defaultErrorRate(r *rand.Rand, cfg Config) float64 {
	spec := ErrorRateSpec{Min: 0.01, Max: 0.05, Distribution: "uniform"}
	if cfg.ErrorRate != nil {
		spec = *cfg.ErrorRate
	}
	return sampleErrorRate(r, spec)
}

// applyHotActorBoost multiplies a uniformly chosen slice of the population
// by the hot-actor multiplier, producing a heavy-tail rate distribution.
func applyHotActorBoost(r *rand.Rand, actors []ActorSeed, hotRatio, multiplier float64) {
	if len(actors) == 0 {
		return
	}
	h := int(math.Round(float64(len(actors)) * clamp01(hotRatio)))
	if h <= 0 {
		return
	}
	if multiplier < 1 {
		multiplier = 1
	}
	idx := make([]int, len(actors))
	for i := range idx {
		idx[i] = i
	}
	r.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
	if h > len(idx) {
		h = len(idx)
	}
	for _, i := range idx[:h] {
		actors[i].RatePerHour *= multiplier
	}
}

// redistributeTimezones resamples timezone offsets: actors without an explicit,
// fixed timezone get resampled from the weighted distribution, using each
// entry's UTC offset at the simulation start time.
func redistributeTimezones(r *rand.Rand, actors []ActorSeed, dist []WeightedName, startTime time.Time) {
	if len(dist) == 0 {
		return
	}
	weights := make([]float64, len(dist))
	offsets := make([]int, len(dist))
	for i, d := range dist {
		weights[i] = d.Weight
		offsets[i] = resolveTZOffset(d.Name, startTime)
	}
	for i := range actors {
		if actors[i].TimezoneFixed {
			// Only an explicitly configured offset is fixed; explicit
			// actors that left timezone_offset unset resample like
			// everyone else.
			continue
		}
		idx, ok := rng.WeightedIndex(r, weights)
		if !ok {
			continue
		}
		actors[i].TimezoneOffset = offsets[idx]
	}
}

// resolveTZOffset resolves a named IANA zone to its UTC offset in whole
// hours at t; unresolvable/unknown names fall back to UTC.
func resolveTZOffset(name string, t time.Time) int {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return 0
	}
	_, offsetSeconds := t.In(loc).Zone()
	return int(math.Round(float64(offsetSeconds) / 3600))
}
