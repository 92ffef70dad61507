// seclogsim - synthetic security-audit event generator
// SPDX-License-Identifier: AGPL-3.0-or-later

package population

import (
	"math/rand/v2"

	"github.com/coreaudit/seclogsim/internal/rng"
)

const normalRejectionAttempts = 6

// sampleErrorRate draws an actor's baseline error rate: clamp both bounds
// to [0,1], swap if
// inverted, then draw uniform or normal (rejection-sampled, clamped after
// normalRejectionAttempts tries). Equal endpoints return the endpoint.
func sampleErrorRate(r *rand.Rand, spec ErrorRateSpec) float64 {
	min, max := clamp01(spec.Min), clamp01(spec.Max)
	if min > max {
		min, max = max, min
	}
	if min == max {
		return min
	}
	if spec.Distribution == "normal" {
		return rng.NormalRange(r, min, max, normalRejectionAttempts)
	}
	return rng.UniformRange(r, min, max)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
