// seclogsim - synthetic security-audit event generator
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloudtrail

import "math/rand/v2"

type errorDefault struct {
	code    string
	message string
}

var defaultErrors = map[string]errorDefault{
	"ConsoleLogin":    {"SigninFailure", "Password or username is invalid."},
	"AssumeRole":      {"AccessDenied", "User is not authorized to perform: sts:AssumeRole"},
	"PutObject":       {"AccessDenied", "Access Denied"},
	"GetSessionToken": {"AccessDenied", "Access Denied"},
	"RunInstances":    {"UnauthorizedOperation", "You are not authorized to perform this operation."},
	"StartInstances":  {"UnauthorizedOperation", "You are not authorized to perform this operation."},
	"StopInstances":   {"UnauthorizedOperation", "You are not authorized to perform this operation."},
}

var fallbackError = errorDefault{"AccessDenied", "Access Denied"}

// InjectError applies error injection: with probability p, sets
// errorCode/errorMessage from the per-event default (falling back to a
// generic AccessDenied), and for ConsoleLogin also flips the response
// element to "Failure".
func InjectError(rec map[string]any, eventName string, p float64, r *rand.Rand) {
	if r.Float64() >= p {
		return
	}
	def, ok := defaultErrors[eventName]
	if !ok {
		def = fallbackError
	}
	rec["errorCode"] = def.code
	rec["errorMessage"] = def.message
	if eventName == "ConsoleLogin" {
		if respAny, ok := rec["responseElements"].(map[string]any); ok {
			respAny["ConsoleLogin"] = "Failure"
		} else {
			rec["responseElements"] = map[string]any{"ConsoleLogin": "Failure"}
		}
	}
}
