// seclogsim - synthetic security-audit event generator
// SPDX-License-Identifier: AGPL-3.0-or-later

package entraid

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/coreaudit/seclogsim/internal/templates"
)

// TemplateFunc builds the event-specific subtree for one Entra event name.
type TemplateFunc func(rec map[string]any, ctx templates.ActorContext, t time.Time, r *rand.Rand)

var namedTemplates = map[string]TemplateFunc{
	"SignIn":                   templateSignIn,
	"RefreshToken":             templateRefreshToken,
	"DeviceCode":                templateDeviceCode,
	"AddUser":                  templateUserMutation("Add user"),
	"UpdateUser":               templateUserMutation("Update user"),
	"DeleteUser":               templateUserMutation("Delete user"),
	"AddGroupMember":           templateGroupMutation("Add member to group"),
	"RemoveGroupMember":        templateGroupMutation("Remove member from group"),
	"AddAppRoleAssignment":     templateAppRoleAssignment,
	"ResetPassword":            templateResetPassword,
	"UpdateConditionalAccess":  templateConditionalAccess,
}

// Build constructs a complete Entra ID record for eventName, applying the
// matching named template or the generic fallback.
func Build(ctx templates.ActorContext, eventName string, t time.Time, r *rand.Rand) (map[string]any, error) {
	if eventName == "" {
		return nil, fmt.Errorf("entraid: empty event name")
	}
	rec := baseRecord(ctx, eventName, t, r)
	if fn, ok := namedTemplates[eventName]; ok {
		fn(rec, ctx, t, r)
	}
	return rec, nil
}

func templateSignIn(rec map[string]any, ctx templates.ActorContext, t time.Time, r *rand.Rand) {
	rec["clientAppUsed"] = "Browser"
	rec["conditionalAccessStatus"] = "success"
	rec["status"] = map[string]any{"errorCode": 0}
	rec["deviceDetail"] = map[string]any{"trustType": "AzureAD"}
}

func templateRefreshToken(rec map[string]any, ctx templates.ActorContext, t time.Time, r *rand.Rand) {
	rec["clientAppUsed"] = "Mobile Apps and Desktop clients"
	rec["status"] = map[string]any{"errorCode": 0}
}

func templateDeviceCode(rec map[string]any, ctx templates.ActorContext, t time.Time, r *rand.Rand) {
	rec["clientAppUsed"] = "Device code"
	rec["status"] = map[string]any{"errorCode": 0}
}

func templateUserMutation(label string) TemplateFunc {
	return func(rec map[string]any, ctx templates.ActorContext, t time.Time, r *rand.Rand) {
		rec["targetResources"] = []map[string]any{{
			"type":        "User",
			"displayName": label,
			"id":          templates.NewUUID(r),
		}}
	}
}

func templateGroupMutation(label string) TemplateFunc {
	return func(rec map[string]any, ctx templates.ActorContext, t time.Time, r *rand.Rand) {
		rec["targetResources"] = []map[string]any{{
			"type":        "Group",
			"displayName": label,
			"id":          templates.NewUUID(r),
		}}
	}
}

func templateAppRoleAssignment(rec map[string]any, ctx templates.ActorContext, t time.Time, r *rand.Rand) {
	rec["targetResources"] = []map[string]any{{
		"type":        "ServicePrincipal",
		"displayName": "Add app role assignment",
		"id":          templates.NewUUID(r),
	}}
}

func templateResetPassword(rec map[string]any, ctx templates.ActorContext, t time.Time, r *rand.Rand) {
	rec["targetResources"] = []map[string]any{{
		"type":        "User",
		"displayName": "Reset password",
		"id":          ctx.ActorID,
	}}
}

func templateConditionalAccess(rec map[string]any, ctx templates.ActorContext, t time.Time, r *rand.Rand) {
	rec["targetResources"] = []map[string]any{{
		"type":        "Policy",
		"displayName": "Update conditional access policy",
		"id":          templates.NewUUID(r),
	}}
}
