// seclogsim - synthetic security-audit event generator
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transport implements the optional live-transport tee: a
// Watermill publisher over NATS that copies every dispatched event onto
// `<source-id>.events`, best-effort. It never blocks or fails the run;
// file output remains authoritative.
package transport

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	wmnats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"

	json "github.com/goccy/go-json"

	"github.com/coreaudit/seclogsim/internal/event"
	"github.com/coreaudit/seclogsim/internal/logging"
)

// Config is the `[transport.nats]` config block.
type Config struct {
	Enabled       bool   `koanf:"enabled"`
	URL           string `koanf:"url"`
	SubjectPrefix string `koanf:"subject_prefix"`
}

// DefaultConfig returns the disabled-by-default transport configuration.
func DefaultConfig() Config {
	return Config{Enabled: false, URL: "nats://127.0.0.1:4222", SubjectPrefix: ""}
}

// Publisher is a dispatch.Tee that copies every event's JSON encoding onto
// its source's NATS subject.
type Publisher struct {
	pub    message.Publisher
	prefix string
}

// New connects a Watermill NATS publisher per cfg. Connection failures are
// returned to the caller: construction-time errors are still fatal, only
// the per-event publish path is best-effort.
func New(cfg Config) (*Publisher, error) {
	logger := watermill.NewStdLogger(false, false)
	wmCfg := wmnats.PublisherConfig{
		URL:       cfg.URL,
		Marshaler: &wmnats.NATSMarshaler{},
		NatsOptions: []natsgo.Option{
			natsgo.RetryOnFailedConnect(true),
			natsgo.MaxReconnects(5),
		},
		JetStream: wmnats.JetStreamConfig{Disabled: true},
	}
	pub, err := wmnats.NewPublisher(wmCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("transport: connect nats publisher: %w", err)
	}
	return &Publisher{pub: pub, prefix: cfg.SubjectPrefix}, nil
}

// Tee implements dispatch.Tee. sourceID is the owning `[[source]].id`.
// Publish failures are logged at warn and otherwise ignored.
func (p *Publisher) Tee(sourceID string, ev event.Event) {
	subject := p.subjectFor(sourceID)
	data, err := json.Marshal(struct {
		Envelope event.Envelope `json:"envelope"`
		Payload  map[string]any `json:"payload"`
	}{Envelope: ev.Envelope, Payload: ev.Payload})
	if err != nil {
		logging.Warn().Err(err).Msg("transport: marshal event for live tee")
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), data)
	if err := p.pub.Publish(subject, msg); err != nil {
		logging.Warn().Err(err).Str("subject", subject).Msg("transport: publish event failed")
	}
}

func (p *Publisher) subjectFor(sourceID string) string {
	if p.prefix != "" {
		return p.prefix + "." + sourceID + ".events"
	}
	return sourceID + ".events"
}

// Close releases the underlying NATS connection.
func (p *Publisher) Close() error {
	return p.pub.Close()
}
