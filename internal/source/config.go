// seclogsim - synthetic security-audit event generator
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package source implements the source generators: composing population
// profiles, the scheduler, and the template engine into a NextEvent() loop.
package source

// OutputFormat is the `[[source]].output.format` config block.
type OutputFormat struct {
	Type        string `koanf:"type" validate:"required,oneof=jsonl parquet"`
	Compression string `koanf:"compression" validate:"omitempty,oneof=gzip"`
}

// Output is the `[[source]].output` block, overriding the top-level output
// dir when set.
type Output struct {
	Dir    string       `koanf:"dir"`
	Format OutputFormat `koanf:"format"`
}

// Config is one `[[source]]` entry. CloudTrail- and Entra-specific
// fields are ignored by the other source type.
type Config struct {
	Type   string `koanf:"type" validate:"required,oneof=cloudtrail entra_id"`
	ID     string `koanf:"id" validate:"required"`
	Output Output `koanf:"output"`

	// CloudTrail-only.
	Curated            bool      `koanf:"curated"`
	Regions            []string  `koanf:"regions"`
	RegionDistribution []float64 `koanf:"region_distribution"`

	// Entra-only.
	TenantID        string    `koanf:"tenant_id"`
	TenantDomain    string    `koanf:"tenant_domain"`
	Categories      []string  `koanf:"categories"`
	CategoryWeights []float64 `koanf:"category_weights"`
}
