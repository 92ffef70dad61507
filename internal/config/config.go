// seclogsim - synthetic security-audit event generator
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config defines the top-level generator configuration and its
// TOML/env loading: struct defaults layered under the config file, layered
// under SECLOGSIM_-prefixed environment variables, then validated.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/coreaudit/seclogsim/internal/source"
	"github.com/coreaudit/seclogsim/internal/transport"
)

// TrafficConfig is the `[traffic]` block: when simulated time starts and
// how fast wall-clock tracks it.
type TrafficConfig struct {
	// StartTime anchors simulated time, RFC 3339. Empty means "now".
	StartTime string `koanf:"start_time"`

	// TimeScale > 0 throttles emission so one simulated second takes
	// 1/TimeScale wall-clock seconds. Zero disables throttling and the
	// generator runs flat out.
	TimeScale float64 `koanf:"time_scale" validate:"gte=0"`
}

// Start resolves the configured start time, defaulting to the current
// wall-clock instant when unset.
func (t TrafficConfig) Start() (time.Time, error) {
	if t.StartTime == "" {
		return time.Now().UTC(), nil
	}
	ts, err := time.Parse(time.RFC3339, t.StartTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("traffic.start_time: %w", err)
	}
	return ts.UTC(), nil
}

// FilesConfig is the `[output.files]` rotation policy.
type FilesConfig struct {
	TargetSizeMB  uint64 `koanf:"target_size_mb"`
	MaxAgeSeconds uint64 `koanf:"max_age_seconds"`
}

// OutputConfig is the `[output]` block.
type OutputConfig struct {
	Dir   string      `koanf:"dir" validate:"required"`
	Files FilesConfig `koanf:"files"`
}

// PopulationConfig is the `[population]` block of the generator config:
// where to read the population from, or the config to synthesize it with.
type PopulationConfig struct {
	// ActorsConfigPath points at a standalone population config; used when
	// ActorPopulationPath is unset or the file does not exist yet.
	ActorsConfigPath string `koanf:"actors_config_path"`

	// ActorPopulationPath points at a previously generated population
	// file. When the file exists it is loaded as-is, keeping actor
	// identities stable across runs.
	ActorPopulationPath string `koanf:"actor_population_path"`
}

// TransportConfig nests the optional live-transport blocks.
type TransportConfig struct {
	NATS transport.Config `koanf:"nats"`
}

// LoggingConfig is the `[logging]` block.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"omitempty,oneof=trace debug info warn error disabled"`
	Format string `koanf:"format" validate:"omitempty,oneof=json console"`
}

// Config is the full `gen` configuration.
type Config struct {
	// Seed makes the whole run reproducible. Absent, the generators seed
	// from OS entropy and the output is non-deterministic by design.
	Seed *uint64 `koanf:"seed"`

	Traffic    TrafficConfig    `koanf:"traffic"`
	Output     OutputConfig     `koanf:"output"`
	Population PopulationConfig `koanf:"population"`
	Sources    []source.Config  `koanf:"source" validate:"required,min=1,dive"`
	Transport  TransportConfig  `koanf:"transport"`
	Logging    LoggingConfig    `koanf:"logging"`

	// MaxEvents and MaxSeconds cap the run; zero means uncapped. Normally
	// set from the command line rather than the file.
	MaxEvents  uint64  `koanf:"max_events"`
	MaxSeconds float64 `koanf:"max_seconds" validate:"gte=0"`

	// MetricsIntervalMS is how often the metrics reporter samples the
	// shared counters.
	MetricsIntervalMS uint64 `koanf:"metrics_interval_ms" validate:"gt=0"`

	// WriterShards is the number of writer workers. Zero picks
	// min(NumCPU, 4) at run start.
	WriterShards int `koanf:"writer_shards" validate:"gte=0"`
}

// Default returns the configuration every load starts from.
func Default() *Config {
	return &Config{
		Traffic: TrafficConfig{TimeScale: 0},
		Output: OutputConfig{
			Dir:   "./out",
			Files: FilesConfig{TargetSizeMB: 64, MaxAgeSeconds: 0},
		},
		Transport:         TransportConfig{NATS: transport.DefaultConfig()},
		Logging:           LoggingConfig{Level: "info", Format: "json"},
		MetricsIntervalMS: 1000,
	}
}

// Redacted returns the config as a key tree suitable for printing (dry-run
// output and the /config endpoint), with secret-shaped values masked.
func (c *Config) Redacted() map[string]any {
	sources := make([]map[string]any, len(c.Sources))
	for i, s := range c.Sources {
		sources[i] = map[string]any{
			"type": s.Type,
			"id":   s.ID,
			"output": map[string]any{
				"dir": s.Output.Dir,
				"format": map[string]any{
					"type":        s.Output.Format.Type,
					"compression": s.Output.Format.Compression,
				},
			},
			"curated":             s.Curated,
			"regions":             s.Regions,
			"region_distribution": s.RegionDistribution,
			"tenant_id":           s.TenantID,
			"tenant_domain":       s.TenantDomain,
			"categories":          s.Categories,
			"category_weights":    s.CategoryWeights,
		}
	}
	out := map[string]any{
		"traffic": map[string]any{
			"start_time": c.Traffic.StartTime,
			"time_scale": c.Traffic.TimeScale,
		},
		"output": map[string]any{
			"dir": c.Output.Dir,
			"files": map[string]any{
				"target_size_mb":  c.Output.Files.TargetSizeMB,
				"max_age_seconds": c.Output.Files.MaxAgeSeconds,
			},
		},
		"population": map[string]any{
			"actors_config_path":    c.Population.ActorsConfigPath,
			"actor_population_path": c.Population.ActorPopulationPath,
		},
		"source": sources,
		"transport": map[string]any{
			"nats": map[string]any{
				"enabled":        c.Transport.NATS.Enabled,
				"url":            redactURL(c.Transport.NATS.URL),
				"subject_prefix": c.Transport.NATS.SubjectPrefix,
			},
		},
		"logging":             map[string]any{"level": c.Logging.Level, "format": c.Logging.Format},
		"max_events":          c.MaxEvents,
		"max_seconds":         c.MaxSeconds,
		"metrics_interval_ms": c.MetricsIntervalMS,
		"writer_shards":       c.WriterShards,
	}
	if c.Seed != nil {
		out["seed"] = *c.Seed
	}
	return out
}

// redactURL masks userinfo credentials embedded in a connection URL.
func redactURL(u string) string {
	at := strings.LastIndex(u, "@")
	if at < 0 {
		return u
	}
	scheme := ""
	rest := u
	if i := strings.Index(u, "://"); i >= 0 {
		scheme = u[:i+3]
		rest = u[i+3:]
		at = strings.LastIndex(rest, "@")
		if at < 0 {
			return u
		}
	}
	return scheme + "***" + rest[at:]
}
