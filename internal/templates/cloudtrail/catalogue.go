// seclogsim - synthetic security-audit event generator
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloudtrail

import (
	"github.com/coreaudit/seclogsim/internal/templates"
)

// anchorEvents are the last_event values that get their own candidate-table
// row; everything else buckets into "other".
var anchorEvents = map[string]struct{}{
	"ConsoleLogin":      {},
	"AssumeRole":        {},
	"GetCallerIdentity": {},
}

// DefaultNames is the curated catalogue's base event-name list, enabled by
// the `curated` flag on the source config (GLOSSARY: "Curated catalogue").
var DefaultNames = []string{
	"ConsoleLogin", "AssumeRole", "GetSessionToken", "PutObject", "GetObject",
	"RunInstances", "StartInstances", "StopInstances", "DescribeInstances",
	"GetCallerIdentity",
}

// Catalogue returns the role/profile-biased candidate table used to pick
// the next event name given the actor's last_event class.
func Catalogue() templates.Catalogue {
	return templates.Catalogue{
		"none": {
			{Name: "ConsoleLogin", Weight: 3},
			{Name: "AssumeRole", Weight: 1},
			{Name: "GetCallerIdentity", Weight: 1},
		},
		"ConsoleLogin": {
			{Name: "AssumeRole", Weight: 2},
			{Name: "GetSessionToken", Weight: 1},
			{Name: "DescribeInstances", Weight: 2},
			{Name: "PutObject", Weight: 1},
		},
		"AssumeRole": {
			{Name: "GetCallerIdentity", Weight: 1},
			{Name: "PutObject", Weight: 2},
			{Name: "GetObject", Weight: 2},
			{Name: "RunInstances", Weight: 1},
			{Name: "StartInstances", Weight: 1},
			{Name: "StopInstances", Weight: 1},
		},
		"GetCallerIdentity": {
			{Name: "PutObject", Weight: 2},
			{Name: "GetObject", Weight: 3},
			{Name: "DescribeInstances", Weight: 2},
		},
		"other": {
			{Name: "PutObject", Weight: 2},
			{Name: "GetObject", Weight: 3},
			{Name: "DescribeInstances", Weight: 2},
			{Name: "RunInstances", Weight: 1},
			{Name: "StartInstances", Weight: 1},
			{Name: "StopInstances", Weight: 1},
			{Name: "ConsoleLogin", Weight: 1},
		},
	}
}

// LastEventClass buckets lastEvent for a candidate-table lookup.
func LastEventClass(lastEvent string) string {
	return templates.LastEventClass(lastEvent, anchorEvents)
}
