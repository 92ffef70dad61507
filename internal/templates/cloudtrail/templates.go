// seclogsim - synthetic security-audit event generator
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloudtrail

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/coreaudit/seclogsim/internal/rng"
	"github.com/coreaudit/seclogsim/internal/templates"
)

// TemplateFunc builds the request/response subtree for one event name on
// top of the common base record.
type TemplateFunc func(rec map[string]any, ctx templates.ActorContext, t time.Time, r *rand.Rand)

var namedTemplates = map[string]TemplateFunc{
	"ConsoleLogin":    templateConsoleLogin,
	"AssumeRole":      templateAssumeRole,
	"GetSessionToken": templateGetSessionToken,
	"PutObject":       templatePutObject,
	"GetObject":       templateGetObject,
	"RunInstances":    templateRunInstances,
	"StartInstances":  templateStartStopInstances,
	"StopInstances":   templateStartStopInstances,
}

// Build constructs a complete CloudTrail payload for eventName, applying the
// matching named template or the generic fallback.
func Build(ctx templates.ActorContext, eventName string, t time.Time, r *rand.Rand) (map[string]any, error) {
	if eventName == "" {
		return nil, fmt.Errorf("cloudtrail: empty event name")
	}
	rec := baseRecord(ctx, eventName, t, r)
	if readOnlyEvents[eventName] {
		rec["readOnly"] = true
	}
	if fn, ok := namedTemplates[eventName]; ok {
		fn(rec, ctx, t, r)
	}
	// Unrecognized names fall back to the minimal record baseRecord
	// already built.
	return rec, nil
}

func templateConsoleLogin(rec map[string]any, ctx templates.ActorContext, t time.Time, r *rand.Rand) {
	rec["responseElements"] = map[string]any{"ConsoleLogin": "Success"}
}

func templateAssumeRole(rec map[string]any, ctx templates.ActorContext, t time.Time, r *rand.Rand) {
	rec["requestParameters"] = map[string]any{
		"roleArn":         ctx.ARN,
		"roleSessionName": ctx.ActorID,
	}
	rec["responseElements"] = map[string]any{
		"credentials": map[string]any{
			"accessKeyId": ctx.AccessKeyID,
		},
	}
}

func templateGetSessionToken(rec map[string]any, ctx templates.ActorContext, t time.Time, r *rand.Rand) {
	rec["requestParameters"] = map[string]any{"durationSeconds": 3600}
	rec["responseElements"] = map[string]any{
		"credentials": map[string]any{"accessKeyId": ctx.AccessKeyID},
	}
}

func templatePutObject(rec map[string]any, ctx templates.ActorContext, t time.Time, r *rand.Rand) {
	bucket := fmt.Sprintf("bucket-%s", ctx.TenantID)
	key := fmt.Sprintf("objects/%d-%s", t.Unix(), templates.NewUUID(r)[:8])
	rec["requestParameters"] = map[string]any{"bucketName": bucket, "key": key}
	rec["responseElements"] = nil
}

func templateGetObject(rec map[string]any, ctx templates.ActorContext, t time.Time, r *rand.Rand) {
	bucket := fmt.Sprintf("bucket-%s", ctx.TenantID)
	key := fmt.Sprintf("objects/%d-%s", t.Unix(), templates.NewUUID(r)[:8])
	rec["requestParameters"] = map[string]any{"bucketName": bucket, "key": key}
}

func templateRunInstances(rec map[string]any, ctx templates.ActorContext, t time.Time, r *rand.Rand) {
	count := rng.IntRange(r, 1, 4)
	rec["requestParameters"] = map[string]any{
		"instanceType":     "t3.micro",
		"minCount":         1,
		"maxCount":         count,
	}
	instances := make([]map[string]any, count)
	for i := range instances {
		instances[i] = map[string]any{"instanceId": "i-" + templates.NewUUID(r)[:17]}
	}
	rec["responseElements"] = map[string]any{"instancesSet": map[string]any{"items": instances}}
}

func templateStartStopInstances(rec map[string]any, ctx templates.ActorContext, t time.Time, r *rand.Rand) {
	rec["requestParameters"] = map[string]any{
		"instancesSet": map[string]any{
			"items": []map[string]any{{"instanceId": "i-" + templates.NewUUID(r)[:17]}},
		},
	}
}
