// seclogsim - synthetic security-audit event generator
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package entraid implements the Entra ID template engine: sign-in and
// audit log record construction, keyed by event name, with the same
// candidate-biasing and error-injection shape as the cloudtrail package
// but following Entra ID's sign-in/audit log field catalogue instead.
package entraid

import (
	"math/rand/v2"
	"time"

	"github.com/coreaudit/seclogsim/internal/templates"
)

// Category distinguishes Entra's two log categories.
type Category string

const (
	CategorySignIn Category = "signin"
	CategoryAudit  Category = "audit"
)

var signInEvents = map[string]bool{
	"SignIn":       true,
	"RefreshToken": true,
	"DeviceCode":   true,
}

// CategoryOf reports which Entra log category an event name belongs to.
func CategoryOf(eventName string) Category {
	if signInEvents[eventName] {
		return CategorySignIn
	}
	return CategoryAudit
}

func baseRecord(ctx templates.ActorContext, eventName string, t time.Time, r *rand.Rand) map[string]any {
	rec := map[string]any{
		"id":                templates.NewUUID(r),
		"createdDateTime":   t.UTC().Format(time.RFC3339),
		"category":          categoryLabel(CategoryOf(eventName)),
		"activityDisplayName": eventName,
		"userPrincipalName": ctx.ActorName,
		"userId":            ctx.ActorID,
		"ipAddress":         ctx.SourceIP,
		"userAgent":         ctx.UserAgent,
		"tenantId":          ctx.TenantID,
		"correlationId":     templates.NewUUID(r),
		"result":            "success",
	}
	return rec
}

func categoryLabel(c Category) string {
	if c == CategorySignIn {
		return "SignInLogs"
	}
	return "AuditLogs"
}
