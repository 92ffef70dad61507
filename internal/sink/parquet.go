// seclogsim - synthetic security-audit event generator
// SPDX-License-Identifier: AGPL-3.0-or-later

package sink

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	json "github.com/goccy/go-json"

	"github.com/coreaudit/seclogsim/internal/event"
	"github.com/coreaudit/seclogsim/internal/metrics"
)

// batchFlushRows is the row-batch threshold before a builder is written
// out to the Parquet file.
const batchFlushRows = 1024

var userIdentityStructType = arrow.StructOf(
	arrow.Field{Name: "type", Type: arrow.BinaryTypes.String, Nullable: true},
	arrow.Field{Name: "principalId", Type: arrow.BinaryTypes.String, Nullable: true},
	arrow.Field{Name: "arn", Type: arrow.BinaryTypes.String, Nullable: true},
	arrow.Field{Name: "accountId", Type: arrow.BinaryTypes.String, Nullable: true},
	arrow.Field{Name: "accessKeyId", Type: arrow.BinaryTypes.String, Nullable: true},
	arrow.Field{Name: "userName", Type: arrow.BinaryTypes.String, Nullable: true},
)

var cloudtrailStructType = arrow.StructOf(
	arrow.Field{Name: "eventVersion", Type: arrow.BinaryTypes.String, Nullable: true},
	arrow.Field{Name: "eventTime", Type: arrow.BinaryTypes.String, Nullable: true},
	arrow.Field{Name: "eventSource", Type: arrow.BinaryTypes.String, Nullable: true},
	arrow.Field{Name: "eventName", Type: arrow.BinaryTypes.String, Nullable: true},
	arrow.Field{Name: "awsRegion", Type: arrow.BinaryTypes.String, Nullable: true},
	arrow.Field{Name: "sourceIPAddress", Type: arrow.BinaryTypes.String, Nullable: true},
	arrow.Field{Name: "userAgent", Type: arrow.BinaryTypes.String, Nullable: true},
	arrow.Field{Name: "userIdentity", Type: userIdentityStructType, Nullable: true},
	arrow.Field{Name: "requestParametersJson", Type: arrow.BinaryTypes.String, Nullable: true},
	arrow.Field{Name: "responseElementsJson", Type: arrow.BinaryTypes.String, Nullable: true},
	arrow.Field{Name: "errorCode", Type: arrow.BinaryTypes.String, Nullable: true},
	arrow.Field{Name: "errorMessage", Type: arrow.BinaryTypes.String, Nullable: true},
	arrow.Field{Name: "requestID", Type: arrow.BinaryTypes.String, Nullable: true},
	arrow.Field{Name: "eventID", Type: arrow.BinaryTypes.String, Nullable: true},
	arrow.Field{Name: "readOnly", Type: arrow.FixedWidthTypes.Boolean, Nullable: true},
	arrow.Field{Name: "eventType", Type: arrow.BinaryTypes.String, Nullable: true},
	arrow.Field{Name: "managementEvent", Type: arrow.FixedWidthTypes.Boolean, Nullable: true},
	arrow.Field{Name: "recipientAccountId", Type: arrow.BinaryTypes.String, Nullable: true},
	arrow.Field{Name: "eventCategory", Type: arrow.BinaryTypes.String, Nullable: true},
	arrow.Field{Name: "tlsDetailsJson", Type: arrow.BinaryTypes.String, Nullable: true},
	arrow.Field{Name: "sessionCredentialFromConsole", Type: arrow.FixedWidthTypes.Boolean, Nullable: true},
)

var envelopeStructType = arrow.StructOf(
	arrow.Field{Name: "schema_version", Type: arrow.BinaryTypes.String},
	arrow.Field{Name: "timestamp", Type: arrow.FixedWidthTypes.Timestamp_us},
	arrow.Field{Name: "source", Type: arrow.BinaryTypes.String},
	arrow.Field{Name: "event_type", Type: arrow.BinaryTypes.String},
	arrow.Field{Name: "actor_id", Type: arrow.BinaryTypes.String},
	arrow.Field{Name: "actor_kind", Type: arrow.BinaryTypes.String},
	arrow.Field{Name: "outcome", Type: arrow.BinaryTypes.String},
	arrow.Field{Name: "ip", Type: arrow.BinaryTypes.String, Nullable: true},
	arrow.Field{Name: "user_agent", Type: arrow.BinaryTypes.String, Nullable: true},
	arrow.Field{Name: "session_id", Type: arrow.BinaryTypes.String, Nullable: true},
	arrow.Field{Name: "tenant_id", Type: arrow.BinaryTypes.String, Nullable: true},
)

// parquetSchema is the fixed Arrow schema: a non-null envelope struct,
// an optional payload_json string, and an optional cloudtrail struct.
var parquetSchema = arrow.NewSchema([]arrow.Field{
	{Name: "envelope", Type: envelopeStructType, Nullable: false},
	{Name: "payload_json", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "cloudtrail", Type: cloudtrailStructType, Nullable: true},
}, nil)

// parquetPartition owns one in-progress .parquet.tmp file and its current
// unflushed row batch.
type parquetPartition struct {
	tmpPath   string
	finalPath string
	file      *os.File
	writer    *pqarrow.FileWriter
	builder   *array.RecordBuilder
	rows      int
	approxLen int
	openedAt  time.Time
}

// ParquetSink implements Sink over the fixed Arrow/Parquet schema,
// StructBuilder-backed batches flushed every 1024 rows, with a
// tmp-then-rename close to avoid readers ever seeing a truncated footer.
type ParquetSink struct {
	cfg        Config
	pool       memory.Allocator
	props      *parquet.WriterProperties
	arrowProps pqarrow.ArrowWriterProperties
	partitions map[partitionKey]*parquetPartition
}

func newParquetSink(cfg Config) (*ParquetSink, error) {
	return &ParquetSink{
		cfg:        cfg,
		pool:       memory.NewGoAllocator(),
		props:      parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy)),
		arrowProps: pqarrow.DefaultWriterProps(),
		partitions: make(map[partitionKey]*parquetPartition),
	}, nil
}

func (s *ParquetSink) openPartition(key partitionKey, now time.Time) (*parquetPartition, error) {
	if err := os.MkdirAll(s.cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("sink: create output dir: %w", err)
	}
	name := fileName(s.cfg, key, now, "parquet")
	finalPath := filepath.Join(s.cfg.Dir, name)
	tmpPath := finalPath + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("sink: create %s: %w", tmpPath, err)
	}
	fw, err := pqarrow.NewFileWriter(parquetSchema, f, s.props, s.arrowProps)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("sink: new parquet writer: %w", err)
	}

	part := &parquetPartition{
		tmpPath:   tmpPath,
		finalPath: finalPath,
		file:      f,
		writer:    fw,
		builder:   array.NewRecordBuilder(s.pool, parquetSchema),
		openedAt:  now,
	}
	s.partitions[key] = part
	return part, nil
}

// WriteEvent implements Sink.
func (s *ParquetSink) WriteEvent(ev event.Event) (int, error) {
	key := partitionKey{tenant: ev.Envelope.TenantID, region: ev.Envelope.Region}
	part, ok := s.partitions[key]
	if !ok {
		var err error
		part, err = s.openPartition(key, time.Now())
		if err != nil {
			return 0, err
		}
	}

	n, err := appendRow(part.builder, ev)
	if err != nil {
		return 0, err
	}
	part.rows++
	part.approxLen += n

	if part.rows >= batchFlushRows {
		if err := s.flushBatch(part); err != nil {
			return n, err
		}
	}

	if size := s.cfg.targetSizeBytes(); size > 0 && part.approxLen >= size {
		if err := s.rotate(key); err != nil {
			return n, err
		}
	}
	return n, nil
}

// flushBatch writes the partition's pending rows as one record batch and
// resets the builder, without finalizing the file.
func (s *ParquetSink) flushBatch(part *parquetPartition) error {
	if part.rows == 0 {
		return nil
	}
	rec := part.builder.NewRecord()
	defer rec.Release()
	if err := part.writer.Write(rec); err != nil {
		return fmt.Errorf("sink: write parquet batch: %w", err)
	}
	part.rows = 0
	return nil
}

// Flush implements Sink: rotates partitions whose file age exceeds
// max_age_seconds.
func (s *ParquetSink) Flush() error {
	maxAge, ok := s.cfg.maxAge()
	if !ok {
		return nil
	}
	now := time.Now()
	for key, part := range s.partitions {
		if now.Sub(part.openedAt) > maxAge {
			if err := s.rotate(key); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close implements Sink: rotates every partition unconditionally.
func (s *ParquetSink) Close() error {
	for key := range s.partitions {
		if err := s.rotate(key); err != nil {
			return err
		}
	}
	return nil
}

// rotate flushes any pending batch, closes the Parquet writer (finalizing
// its footer), and atomically renames the .tmp file to its final name.
func (s *ParquetSink) rotate(key partitionKey) error {
	part := s.partitions[key]
	if part == nil {
		return nil
	}
	delete(s.partitions, key)

	if err := s.flushBatch(part); err != nil {
		return err
	}
	part.builder.Release()
	if err := part.writer.Close(); err != nil {
		return fmt.Errorf("sink: close parquet writer: %w", err)
	}
	if err := os.Rename(part.tmpPath, part.finalPath); err != nil {
		return fmt.Errorf("sink: rename %s to %s: %w", part.tmpPath, part.finalPath, err)
	}
	metrics.ObserveFileRotated(s.cfg.SourceID, key.tenant, key.region)
	return nil
}

// appendRow fills one row of the fixed schema from ev, returning the
// approximate envelope+payload byte length used for size-based rotation.
func appendRow(b *array.RecordBuilder, ev event.Event) (int, error) {
	envelopeJSON, err := ev.MarshalEnvelope()
	if err != nil {
		return 0, fmt.Errorf("sink: marshal envelope: %w", err)
	}
	payloadJSON, err := ev.MarshalPayload()
	if err != nil {
		return 0, fmt.Errorf("sink: marshal payload: %w", err)
	}

	appendEnvelope(b.Field(0).(*array.StructBuilder), ev.Envelope)

	isCloudTrail := ev.Envelope.Source == event.SourceCloudTrail
	payloadBldr := b.Field(1).(*array.StringBuilder)
	if isCloudTrail {
		payloadBldr.AppendNull()
	} else {
		payloadBldr.Append(string(payloadJSON))
	}

	ctBldr := b.Field(2).(*array.StructBuilder)
	if isCloudTrail {
		appendCloudTrail(ctBldr, ev.Payload)
	} else {
		ctBldr.AppendNull()
	}

	return len(envelopeJSON) + len(payloadJSON), nil
}

func appendEnvelope(b *array.StructBuilder, env event.Envelope) {
	b.Append(true)
	b.FieldBuilder(0).(*array.StringBuilder).Append(env.SchemaVersion)
	b.FieldBuilder(1).(*array.TimestampBuilder).Append(arrow.Timestamp(env.Timestamp.UnixMicro()))
	b.FieldBuilder(2).(*array.StringBuilder).Append(string(env.Source))
	b.FieldBuilder(3).(*array.StringBuilder).Append(env.EventType)
	b.FieldBuilder(4).(*array.StringBuilder).Append(env.Actor.ID)
	b.FieldBuilder(5).(*array.StringBuilder).Append(env.Actor.Kind)
	b.FieldBuilder(6).(*array.StringBuilder).Append(string(env.Outcome))
	appendOptionalString(b.FieldBuilder(7).(*array.StringBuilder), &env.IP)
	appendOptionalString(b.FieldBuilder(8).(*array.StringBuilder), &env.UserAgent)
	appendOptionalString(b.FieldBuilder(9).(*array.StringBuilder), &env.SessionID)
	appendOptionalString(b.FieldBuilder(10).(*array.StringBuilder), &env.TenantID)
}

func appendCloudTrail(b *array.StructBuilder, payload map[string]any) {
	b.Append(true)
	appendOptionalString(b.FieldBuilder(0).(*array.StringBuilder), payloadString(payload, "eventVersion"))
	appendOptionalString(b.FieldBuilder(1).(*array.StringBuilder), payloadString(payload, "eventTime"))
	appendOptionalString(b.FieldBuilder(2).(*array.StringBuilder), payloadString(payload, "eventSource"))
	appendOptionalString(b.FieldBuilder(3).(*array.StringBuilder), payloadString(payload, "eventName"))
	appendOptionalString(b.FieldBuilder(4).(*array.StringBuilder), payloadString(payload, "awsRegion"))
	appendOptionalString(b.FieldBuilder(5).(*array.StringBuilder), payloadString(payload, "sourceIPAddress"))
	appendOptionalString(b.FieldBuilder(6).(*array.StringBuilder), payloadString(payload, "userAgent"))

	identityBldr := b.FieldBuilder(7).(*array.StructBuilder)
	if identity, ok := payload["userIdentity"].(map[string]any); ok {
		identityBldr.Append(true)
		appendOptionalString(identityBldr.FieldBuilder(0).(*array.StringBuilder), payloadString(identity, "type"))
		appendOptionalString(identityBldr.FieldBuilder(1).(*array.StringBuilder), payloadString(identity, "principalId"))
		appendOptionalString(identityBldr.FieldBuilder(2).(*array.StringBuilder), payloadString(identity, "arn"))
		appendOptionalString(identityBldr.FieldBuilder(3).(*array.StringBuilder), payloadString(identity, "accountId"))
		appendOptionalString(identityBldr.FieldBuilder(4).(*array.StringBuilder), payloadString(identity, "accessKeyId"))
		appendOptionalString(identityBldr.FieldBuilder(5).(*array.StringBuilder), payloadString(identity, "userName"))
	} else {
		identityBldr.AppendNull()
	}

	appendOptionalString(b.FieldBuilder(8).(*array.StringBuilder), marshalIfPresent(payload, "requestParameters"))
	appendOptionalString(b.FieldBuilder(9).(*array.StringBuilder), marshalIfPresent(payload, "responseElements"))
	appendOptionalString(b.FieldBuilder(10).(*array.StringBuilder), payloadString(payload, "errorCode"))
	appendOptionalString(b.FieldBuilder(11).(*array.StringBuilder), payloadString(payload, "errorMessage"))
	appendOptionalString(b.FieldBuilder(12).(*array.StringBuilder), payloadString(payload, "requestID"))
	appendOptionalString(b.FieldBuilder(13).(*array.StringBuilder), payloadString(payload, "eventID"))
	appendOptionalBool(b.FieldBuilder(14).(*array.BooleanBuilder), payloadBool(payload, "readOnly"))
	appendOptionalString(b.FieldBuilder(15).(*array.StringBuilder), payloadString(payload, "eventType"))
	appendOptionalBool(b.FieldBuilder(16).(*array.BooleanBuilder), payloadBool(payload, "managementEvent"))
	appendOptionalString(b.FieldBuilder(17).(*array.StringBuilder), payloadString(payload, "recipientAccountId"))
	appendOptionalString(b.FieldBuilder(18).(*array.StringBuilder), payloadString(payload, "eventCategory"))
	appendOptionalString(b.FieldBuilder(19).(*array.StringBuilder), marshalIfPresent(payload, "tlsDetails"))
	appendOptionalBool(b.FieldBuilder(20).(*array.BooleanBuilder), payloadLooseBool(payload, "sessionCredentialFromConsole"))
}

func appendOptionalString(b *array.StringBuilder, v *string) {
	if v == nil {
		b.AppendNull()
		return
	}
	b.Append(*v)
}

func appendOptionalBool(b *array.BooleanBuilder, v *bool) {
	if v == nil {
		b.AppendNull()
		return
	}
	b.Append(*v)
}

func payloadString(m map[string]any, key string) *string {
	if m == nil {
		return nil
	}
	v, ok := m[key]
	if !ok {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return &s
}

func payloadBool(m map[string]any, key string) *bool {
	if m == nil {
		return nil
	}
	v, ok := m[key]
	if !ok {
		return nil
	}
	b, ok := v.(bool)
	if !ok {
		return nil
	}
	return &b
}

// payloadLooseBool reads a boolean that CloudTrail records sometimes carry
// as the strings "true"/"false" rather than a JSON bool.
func payloadLooseBool(m map[string]any, key string) *bool {
	if m == nil {
		return nil
	}
	switch v := m[key].(type) {
	case bool:
		return &v
	case string:
		b := v == "true"
		return &b
	default:
		return nil
	}
}

func marshalIfPresent(m map[string]any, key string) *string {
	if m == nil {
		return nil
	}
	v, ok := m[key]
	if !ok {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	s := string(b)
	return &s
}
