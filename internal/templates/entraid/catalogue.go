// seclogsim - synthetic security-audit event generator
// SPDX-License-Identifier: AGPL-3.0-or-later

package entraid

import "github.com/coreaudit/seclogsim/internal/templates"

var anchorEvents = map[string]struct{}{
	"SignIn": {},
}

// DefaultNames is the curated catalogue's base event-name list.
var DefaultNames = []string{
	"SignIn", "RefreshToken", "DeviceCode",
	"AddUser", "UpdateUser", "DeleteUser",
	"AddGroupMember", "RemoveGroupMember",
	"AddAppRoleAssignment", "ResetPassword", "UpdateConditionalAccess",
}

// SignInNames and AuditNames split DefaultNames by category, used to
// implement the category_weights config knob.
var SignInNames = []string{"SignIn", "RefreshToken", "DeviceCode"}

var AuditNames = []string{
	"AddUser", "UpdateUser", "DeleteUser",
	"AddGroupMember", "RemoveGroupMember",
	"AddAppRoleAssignment", "ResetPassword", "UpdateConditionalAccess",
}

// Catalogue returns the candidate table biased by the actor's last_event.
func Catalogue() templates.Catalogue {
	return templates.Catalogue{
		"none": {
			{Name: "SignIn", Weight: 5},
			{Name: "DeviceCode", Weight: 1},
		},
		"SignIn": {
			{Name: "RefreshToken", Weight: 3},
			{Name: "AddUser", Weight: 1},
			{Name: "UpdateUser", Weight: 1},
			{Name: "AddGroupMember", Weight: 1},
		},
		"other": {
			{Name: "SignIn", Weight: 4},
			{Name: "RefreshToken", Weight: 2},
			{Name: "UpdateUser", Weight: 1},
			{Name: "DeleteUser", Weight: 1},
			{Name: "AddGroupMember", Weight: 1},
			{Name: "RemoveGroupMember", Weight: 1},
			{Name: "AddAppRoleAssignment", Weight: 1},
			{Name: "ResetPassword", Weight: 1},
			{Name: "UpdateConditionalAccess", Weight: 1},
		},
	}
}

// LastEventClass buckets lastEvent for a candidate-table lookup.
func LastEventClass(lastEvent string) string {
	return templates.LastEventClass(lastEvent, anchorEvents)
}
