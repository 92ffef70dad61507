// seclogsim - synthetic security-audit event generator
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package event defines the shared envelope every source wraps its
// payload in, independent of whether the payload came from the CloudTrail
// or Entra ID template engine.
package event

import (
	"time"

	json "github.com/goccy/go-json"
)

// Outcome is the envelope's coarse success/failure classification.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomeUnknown Outcome = "unknown"
)

// Source tags which template family produced an event.
type Source string

const (
	SourceCloudTrail Source = "cloudtrail"
	SourceEntraID    Source = "entra_id"
)

const SchemaVersion = "v1"

// Principal identifies the actor or target of an event.
type Principal struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
	Name string `json:"name,omitempty"`
}

// Geo is an optional coarse location attached to an event.
type Geo struct {
	Country string  `json:"country,omitempty"`
	City    string  `json:"city,omitempty"`
	Lat     float64 `json:"lat,omitempty"`
	Lon     float64 `json:"lon,omitempty"`
}

// Envelope is the common fields every emitted event carries, regardless of
// source.
type Envelope struct {
	SchemaVersion string     `json:"schema_version"`
	Timestamp     time.Time  `json:"timestamp"`
	Source        Source     `json:"source"`
	EventType     string     `json:"event_type"`
	Actor         Principal  `json:"actor"`
	Target        *Principal `json:"target,omitempty"`
	Outcome       Outcome    `json:"outcome"`
	Geo           *Geo       `json:"geo,omitempty"`
	IP            string     `json:"ip,omitempty"`
	UserAgent     string     `json:"user_agent,omitempty"`
	SessionID     string     `json:"session_id,omitempty"`
	TenantID      string     `json:"tenant_id,omitempty"`

	// Region is not part of the public envelope but is carried internally
	// for shard/partition selection; it is never serialized into the
	// JSON or Parquet output directly (CloudTrail derives it from the
	// payload's awsRegion, other sources reuse the source id).
	Region string `json:"-"`

	// SourceID names the configured source that produced this event. Like
	// Region it is internal routing state, never serialized.
	SourceID string `json:"-"`
}

// Event pairs the common envelope with a source-specific payload tree. The
// payload's shape is opaque to every component downstream of the template
// engine: it is serialized as-is.
type Event struct {
	Envelope Envelope
	Payload  map[string]any
}

// MarshalEnvelope renders the envelope alone as canonical JSON, used by the
// Parquet sink's per-event size estimate.
func (e Event) MarshalEnvelope() ([]byte, error) {
	return json.Marshal(e.Envelope)
}

// MarshalPayload renders the payload tree alone, used by the Parquet sink's
// payload_json column.
func (e Event) MarshalPayload() ([]byte, error) {
	return json.Marshal(e.Payload)
}
