// seclogsim - synthetic security-audit event generator
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/coreaudit/seclogsim/internal/population"
	"github.com/coreaudit/seclogsim/internal/validation"
)

// EnvPrefix is the prefix for environment-variable overrides:
// SECLOGSIM_OUTPUT__DIR overrides output.dir, and so on.
const EnvPrefix = "SECLOGSIM_"

// Load reads the generator config at path, layering struct defaults, the
// TOML file, and SECLOGSIM_-prefixed environment variables, then validates
// the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		return nil, fmt.Errorf("config: load %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("config: load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal %s: %w", path, err)
	}

	if err := validation.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	if err := validateSources(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envTransform maps SECLOGSIM_OUTPUT__DIR to output.dir. Double underscores
// mark nesting boundaries so key segments that themselves contain
// underscores (target_size_mb, metrics_interval_ms, ...) survive intact.
func envTransform(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(s), "__", ".")
}

// validateSources checks the cross-field source invariants struct tags
// cannot express.
func validateSources(cfg *Config) error {
	ids := make(map[string]struct{}, len(cfg.Sources))
	for _, s := range cfg.Sources {
		if _, dup := ids[s.ID]; dup {
			return fmt.Errorf("config validation: source id %q is duplicated", s.ID)
		}
		ids[s.ID] = struct{}{}

		switch s.Type {
		case "cloudtrail":
			if len(s.RegionDistribution) > 0 && len(s.RegionDistribution) != len(s.Regions) {
				return fmt.Errorf("config validation: source %s: region_distribution must have one weight per region", s.ID)
			}
		case "entra_id":
			if s.TenantID == "" {
				return fmt.Errorf("config validation: source %s: tenant_id is required for entra_id sources", s.ID)
			}
			if s.TenantDomain == "" {
				return fmt.Errorf("config validation: source %s: tenant_domain is required for entra_id sources", s.ID)
			}
			if len(s.CategoryWeights) > 0 && len(s.CategoryWeights) != len(s.Categories) {
				return fmt.Errorf("config validation: source %s: category_weights must have one weight per category", s.ID)
			}
		}
	}
	return nil
}

// LoadPopulation reads a standalone population config (the `actors`
// subcommand input and the file named by population.actors_config_path).
func LoadPopulation(path string) (*population.Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		return nil, fmt.Errorf("config: load %s: %w", path, err)
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("config: load environment: %w", err)
	}

	// The file nests generation knobs under [population] with seed and
	// timezone_distribution at the top level.
	cfg := &population.Config{}
	if err := k.Unmarshal("population", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal %s: %w", path, err)
	}
	if k.Exists("seed") {
		seed := k.Int64("seed")
		u := uint64(seed)
		cfg.Seed = &u
	}
	if k.Exists("timezone_distribution") {
		var tz []population.WeightedName
		if err := k.Unmarshal("timezone_distribution", &tz); err != nil {
			return nil, fmt.Errorf("config: unmarshal timezone_distribution: %w", err)
		}
		cfg.TimezoneDistribution = tz
	}

	if err := validation.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}
