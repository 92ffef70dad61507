// seclogsim - synthetic security-audit event generator
// SPDX-License-Identifier: AGPL-3.0-or-later

package templates

import "strings"

// ActorContext is the per-event view of an actor and its environment that
// the template engine needs to build a payload: selected sticky UA/IP,
// region/tenant, and session-derived flags.
type ActorContext struct {
	ActorID      string
	ActorKind    string
	ActorName    string
	IdentityType string
	PrincipalID  string
	ARN          string
	AccountID    string
	AccessKeyID  string

	UserAgent string
	SourceIP  string
	SessionID string

	Region   string
	TenantID string

	MFAAuthenticated bool
}

// SessionCredentialFromConsole is a heuristic: the UA string looks like a
// browser rather than an SDK/CLI client.
func (c ActorContext) SessionCredentialFromConsole() bool {
	ua := strings.ToLower(c.UserAgent)
	return strings.Contains(ua, "mozilla") || strings.Contains(ua, "webkit") || strings.Contains(ua, "gecko")
}
