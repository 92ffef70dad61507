// seclogsim - synthetic security-audit event generator
// SPDX-License-Identifier: AGPL-3.0-or-later

package population

// ExplicitActor is one entry of the optional `[[population.actor]]` config
// list: an operator-authored actor that bypasses synthesis.
type ExplicitActor struct {
	ID             string            `koanf:"id" validate:"required"`
	Kind           string            `koanf:"kind" validate:"required,oneof=human service"`
	Role           string            `koanf:"role" validate:"omitempty,oneof=admin developer readonly auditor"`
	ServiceProfile string            `koanf:"service_profile"`
	ServicePattern string            `koanf:"service_pattern" validate:"omitempty,oneof=constant diurnal bursty"`
	UserName       string            `koanf:"user_name"`
	AccountID      string            `koanf:"account_id" validate:"omitempty,numeric,len=12"`
	AccessKeyID    string            `koanf:"access_key_id"`
	UserAgents     []string          `koanf:"user_agents"`
	SourceIPs      []string          `koanf:"source_ips"`
	EventsPerHour  float64           `koanf:"events_per_hour" validate:"omitempty,gt=0"`
	ErrorRate      *float64          `koanf:"error_rate" validate:"omitempty"`
	ActiveStartHr  int               `koanf:"active_start_hour" validate:"gte=0,lte=23"`
	ActiveHours    int               `koanf:"active_hours" validate:"omitempty,gte=1,lte=24"`
	TimezoneOffset *int              `koanf:"timezone_offset" validate:"omitempty,gte=-12,lte=14"`
	WeekendActive  bool              `koanf:"weekend_active"`
	Tags           []string          `koanf:"tags"`
	EventBias      map[string]float64 `koanf:"event_bias"`
}

// WeightedName is a (name, weight) pair used for role, service-profile, and
// timezone weighting tables.
type WeightedName struct {
	Name          string  `koanf:"name"`
	Weight        float64 `koanf:"weight"`
	EventsPerHour float64 `koanf:"events_per_hour"`
	Pattern       string  `koanf:"pattern"`
}

// ErrorRateSpec configures the baseline error-rate sampler.
type ErrorRateSpec struct {
	Min          float64 `koanf:"min" validate:"gte=0,lte=1"`
	Max          float64 `koanf:"max" validate:"gte=0,lte=1"`
	Distribution string  `koanf:"distribution" validate:"omitempty,oneof=uniform normal"`
}

// Config is the standalone population config: the file read by the `actors`
// subcommand and named by the generator config's
// population.actors_config_path.
type Config struct {
	Seed *uint64 `koanf:"seed"`

	TimezoneDistribution []WeightedName `koanf:"timezone_distribution"`

	ActorCount         int            `koanf:"actor_count" validate:"omitempty,gt=0"`
	ServiceRatio       float64        `koanf:"service_ratio" validate:"gte=0,lte=1"`
	HotActorRatio      float64        `koanf:"hot_actor_ratio" validate:"gte=0,lte=1"`
	HotActorMultiplier float64        `koanf:"hot_actor_multiplier" validate:"omitempty,gte=1"`
	AccountIDs         []string       `koanf:"account_ids" validate:"dive,numeric,len=12"`
	AccountCount       int            `koanf:"account_count" validate:"omitempty,gt=0"`
	ErrorRate          *ErrorRateSpec `koanf:"error_rate"`
	HumanErrorRate     *float64       `koanf:"human_error_rate"`
	ServiceErrorRate   *float64       `koanf:"service_error_rate"`
	Role               []WeightedName `koanf:"role"`
	ServiceEventsPerHr float64        `koanf:"service_events_per_hour" validate:"omitempty,gt=0"`
	ServiceProfiles    []WeightedName `koanf:"service_profiles"`
	Actor              []ExplicitActor `koanf:"actor"`
}

// DefaultRoleWeights is the fallback for an empty role weight list.
func DefaultRoleWeights() []WeightedName {
	return []WeightedName{
		{Name: string(RoleAdmin), Weight: 0.15},
		{Name: string(RoleDev), Weight: 0.55},
		{Name: string(RoleReadonly), Weight: 0.25},
		{Name: string(RoleAuditor), Weight: 0.05},
	}
}

// DefaultServiceProfiles is the fallback for an empty service_profiles
// list: Generic/Constant at a configurable fallback rate.
func DefaultServiceProfiles(fallbackRate float64) []WeightedName {
	if fallbackRate <= 0 {
		fallbackRate = 12
	}
	return []WeightedName{
		{Name: string(ServiceProfileGeneric), Weight: 1, EventsPerHour: fallbackRate, Pattern: string(PatternConstant)},
	}
}
