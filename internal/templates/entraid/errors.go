// seclogsim - synthetic security-audit event generator
// SPDX-License-Identifier: AGPL-3.0-or-later

package entraid

import "math/rand/v2"

type errorDefault struct {
	code    int
	reason  string
}

var defaultErrors = map[string]errorDefault{
	"SignIn":       {50126, "Invalid username or password."},
	"RefreshToken": {70008, "The refresh token has expired."},
	"DeviceCode":   {70016, "Authorization is still pending."},
}

var fallbackError = errorDefault{90002, "Directory object not found."}

// InjectError flips an Entra record to a failure with probability p,
// setting the per-event default error code and reason.
func InjectError(rec map[string]any, eventName string, p float64, r *rand.Rand) {
	if r.Float64() >= p {
		return
	}
	def, ok := defaultErrors[eventName]
	if !ok {
		def = fallbackError
	}
	rec["result"] = "failure"
	if status, ok := rec["status"].(map[string]any); ok {
		status["errorCode"] = def.code
		status["failureReason"] = def.reason
	} else {
		rec["status"] = map[string]any{"errorCode": def.code, "failureReason": def.reason}
	}
}
