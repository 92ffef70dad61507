// seclogsim - synthetic security-audit event generator
// SPDX-License-Identifier: AGPL-3.0-or-later

package sink

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"

	"github.com/coreaudit/seclogsim/internal/event"
	"github.com/coreaudit/seclogsim/internal/metrics"
)

// jsonPartition buffers one (tenant, region)'s region file. The buffer
// opens with `{"Records":[`, records
// are appended comma-separated, and `]}` is appended at rotation.
type jsonPartition struct {
	buf      bytes.Buffer
	count    int
	openedAt time.Time
}

func newJSONPartition(now time.Time) *jsonPartition {
	p := &jsonPartition{openedAt: now}
	p.buf.WriteString(`{"Records":[`)
	return p
}

// JSONSink implements Sink over per-partition {"Records":[...]} files,
// optionally gzip-compressed.
type JSONSink struct {
	cfg        Config
	partitions map[partitionKey]*jsonPartition
}

func newJSONSink(cfg Config) *JSONSink {
	return &JSONSink{cfg: cfg, partitions: make(map[partitionKey]*jsonPartition)}
}

// WriteEvent implements Sink.
func (s *JSONSink) WriteEvent(ev event.Event) (int, error) {
	key := partitionKey{tenant: ev.Envelope.TenantID, region: ev.Envelope.Region}
	part, ok := s.partitions[key]
	if !ok {
		part = newJSONPartition(time.Now())
		s.partitions[key] = part
	}

	record, err := json.Marshal(ev.Payload)
	if err != nil {
		return 0, fmt.Errorf("sink: marshal event payload: %w", err)
	}

	written := 0
	if part.count > 0 {
		part.buf.WriteByte(',')
		written++
	}
	n, _ := part.buf.Write(record)
	written += n
	part.count++

	if size := s.cfg.targetSizeBytes(); size > 0 && part.buf.Len()+2 >= size {
		if err := s.rotate(key, true); err != nil {
			return written, err
		}
	}
	return written, nil
}

// Flush implements Sink: rotates partitions whose buffer age exceeds
// max_age_seconds. Age is checked only here, not on every write; the
// dispatcher flushes every second, which bounds the rotation lag.
func (s *JSONSink) Flush() error {
	maxAge, ok := s.cfg.maxAge()
	if !ok {
		return nil
	}
	now := time.Now()
	for key, part := range s.partitions {
		if part.count > 0 && now.Sub(part.openedAt) > maxAge {
			if err := s.rotate(key, true); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close implements Sink: rotates every non-empty partition unconditionally.
func (s *JSONSink) Close() error {
	for key, part := range s.partitions {
		if part.count == 0 {
			continue
		}
		if err := s.rotate(key, false); err != nil {
			return err
		}
	}
	return nil
}

// rotate finalizes the partition's current buffer to a file and resets it
// for subsequent writes. When reopen is false the partition is dropped
// entirely (used only by Close's final pass, where no further writes occur).
func (s *JSONSink) rotate(key partitionKey, reopen bool) error {
	part := s.partitions[key]
	if part == nil || part.count == 0 {
		return nil
	}

	part.buf.WriteString("]}")
	payload := part.buf.Bytes()

	ext := "json"
	if s.cfg.Format.Compression == "gzip" {
		var gz bytes.Buffer
		w := gzip.NewWriter(&gz)
		if _, err := w.Write(payload); err != nil {
			return fmt.Errorf("sink: gzip json partition: %w", err)
		}
		if err := w.Close(); err != nil {
			return fmt.Errorf("sink: close gzip writer: %w", err)
		}
		payload = gz.Bytes()
		ext = "json.gz"
	}

	name := fileName(s.cfg, key, part.openedAt, ext)
	path := filepath.Join(s.cfg.Dir, name)
	if err := os.MkdirAll(s.cfg.Dir, 0o755); err != nil {
		return fmt.Errorf("sink: create output dir: %w", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("sink: write %s: %w", path, err)
	}
	metrics.ObserveFileRotated(s.cfg.SourceID, key.tenant, key.region)

	if reopen {
		s.partitions[key] = newJSONPartition(time.Now())
	} else {
		delete(s.partitions, key)
	}
	return nil
}
