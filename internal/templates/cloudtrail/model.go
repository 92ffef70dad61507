// seclogsim - synthetic security-audit event generator
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cloudtrail implements the CloudTrail template engine:
// deterministic event-name → payload construction plus per-event error
// injection.
package cloudtrail

import (
	"math/rand/v2"
	"strings"
	"time"

	"github.com/coreaudit/seclogsim/internal/templates"
)

// eventCategory is always "Management" for the templates implemented here.
const eventCategory = "Management"

// baseRecord fills the common CloudTrail fields shared by every event
// name, before a specific template adds its request/response subtree.
func baseRecord(ctx templates.ActorContext, eventName string, t time.Time, r *rand.Rand) map[string]any {
	userIdentity := map[string]any{
		"type":        ctx.IdentityType,
		"principalId": ctx.PrincipalID,
		"arn":         ctx.ARN,
		"accountId":   ctx.AccountID,
	}
	if ctx.AccessKeyID != "" {
		userIdentity["accessKeyId"] = ctx.AccessKeyID
	}
	if ctx.ActorName != "" {
		userIdentity["userName"] = ctx.ActorName
	}
	sessionContext := map[string]any{
		"attributes": map[string]any{
			"creationDate":     t.UTC().Format(time.RFC3339),
			"mfaAuthenticated": boolString(ctx.MFAAuthenticated),
		},
	}
	if ctx.IdentityType == "AssumedRole" {
		// Assumed-role records name the issuing role alongside the session
		// attributes; the principal's session suffix is stripped back off.
		issuerArn := ctx.ARN
		issuerPrincipal := ctx.PrincipalID
		if i := strings.Index(issuerPrincipal, ":"); i >= 0 {
			issuerPrincipal = issuerPrincipal[:i]
		}
		sessionContext["sessionIssuer"] = map[string]any{
			"type":        "Role",
			"principalId": issuerPrincipal,
			"arn":         issuerArn,
			"accountId":   ctx.AccountID,
		}
		sessionContext["webIdFederationData"] = map[string]any{}
	}
	userIdentity["sessionContext"] = sessionContext

	rec := map[string]any{
		"eventVersion":     "1.08",
		"userIdentity":     userIdentity,
		"eventTime":        t.UTC().Format(time.RFC3339),
		"eventSource":      eventSourceFor(eventName),
		"eventName":        eventName,
		"awsRegion":        ctx.Region,
		"sourceIPAddress":  ctx.SourceIP,
		"userAgent":        ctx.UserAgent,
		"requestID":        templates.NewUUID(r),
		"eventID":          templates.NewUUID(r),
		"eventType":        "AwsApiCall",
		"managementEvent":  true,
		"recipientAccountId": ctx.AccountID,
		"eventCategory":    eventCategory,
		"tlsDetails": map[string]any{
			"tlsVersion":               "TLSv1.2",
			"cipherSuite":              "ECDHE-RSA-AES128-GCM-SHA256",
			"clientProvidedHostHeader": eventSourceFor(eventName),
		},
	}
	if eventName == "ConsoleLogin" {
		rec["eventType"] = "AwsConsoleSignIn"
	}
	if ctx.SessionCredentialFromConsole() {
		rec["sessionCredentialFromConsole"] = "true"
	}
	return rec
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

var eventSources = map[string]string{
	"ConsoleLogin":      "signin.amazonaws.com",
	"AssumeRole":        "sts.amazonaws.com",
	"GetSessionToken":   "sts.amazonaws.com",
	"GetCallerIdentity": "sts.amazonaws.com",
	"PutObject":         "s3.amazonaws.com",
	"GetObject":         "s3.amazonaws.com",
	"RunInstances":      "ec2.amazonaws.com",
	"StartInstances":    "ec2.amazonaws.com",
	"StopInstances":     "ec2.amazonaws.com",
	"DescribeInstances": "ec2.amazonaws.com",
}

func eventSourceFor(eventName string) string {
	if src, ok := eventSources[eventName]; ok {
		return src
	}
	return "unknown.amazonaws.com"
}

// readOnlyEvents marks the events whose CloudTrail record sets readOnly.
var readOnlyEvents = map[string]bool{
	"GetObject":         true,
	"DescribeInstances": true,
	"GetCallerIdentity": true,
}
