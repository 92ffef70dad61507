// seclogsim - synthetic security-audit event generator
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package sink implements the file sinks: CloudTrail-shaped
// {"Records":[...]} JSON (optionally gzip'd) and columnar Parquet, both
// partitioned per (tenant_id, region) and rotated by size or age.
package sink

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/coreaudit/seclogsim/internal/event"
)

const alnum = "abcdefghijklmnopqrstuvwxyz0123456789"

// Sink is the small behavioral capability every file-format implementation
// presents to a writer shard.
type Sink interface {
	// WriteEvent serializes ev into its partition buffer and returns the
	// number of bytes added (for the shared atomic byte counter).
	WriteEvent(ev event.Event) (int, error)
	// Flush rotates any partition whose buffer exceeds max_age_seconds (if
	// configured); it never forces a rotation purely because it was called.
	Flush() error
	// Close rotates every partition unconditionally and releases resources.
	Close() error
}

// Format is the `[[source]].output.format` config block.
type Format struct {
	Type        string // "jsonl" or "parquet"
	Compression string // "" or "gzip" (jsonl only)
}

// Config controls rotation and naming, shared by both sink implementations.
type Config struct {
	Dir           string
	Format        Format
	TargetSizeMB  uint64
	MaxAgeSeconds uint64
	// SourceID names the owning `[[source]]` entry, used in non-CloudTrail
	// file names.
	SourceID string
	// CloudTrail selects the CloudTrail naming convention
	// ("<tenant>_CloudTrail_<region>_...") instead of the generic
	// "<source_id>_<tenant>_<region>_..." one.
	CloudTrail bool
}

func (c Config) targetSizeBytes() int {
	if c.TargetSizeMB == 0 {
		return 0
	}
	return int(c.TargetSizeMB) << 20
}

func (c Config) maxAge() (time.Duration, bool) {
	if c.MaxAgeSeconds == 0 {
		return 0, false
	}
	return time.Duration(c.MaxAgeSeconds) * time.Second, true
}

// partitionKey is the (tenant_id, region) pair sinks buffer state under.
type partitionKey struct {
	tenant string
	region string
}

// New constructs the sink implementation named by cfg.Format.Type.
func New(cfg Config) (Sink, error) {
	switch cfg.Format.Type {
	case "parquet":
		return newParquetSink(cfg)
	case "jsonl", "":
		return newJSONSink(cfg), nil
	default:
		return nil, fmt.Errorf("sink: unknown output format %q", cfg.Format.Type)
	}
}

// fileName builds the output file name: a UTC stamp plus a 16
// lowercase-alnum random suffix, unique without any cross-shard locking.
func fileName(cfg Config, key partitionKey, openedAt time.Time, ext string) string {
	stamp := openedAt.UTC().Format("20060102T1504Z")
	suffix := randomSuffix(16)
	if cfg.CloudTrail {
		return fmt.Sprintf("%s_CloudTrail_%s_%s_%s.%s", key.tenant, key.region, stamp, suffix, ext)
	}
	return fmt.Sprintf("%s_%s_%s_%s_%s.%s", cfg.SourceID, key.tenant, key.region, stamp, suffix, ext)
}

func randomSuffix(n int) string {
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(alnum[rand.IntN(len(alnum))])
	}
	return b.String()
}
