// seclogsim - synthetic security-audit event generator
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package templates holds the candidate-biasing machinery shared by the
// CloudTrail and Entra ID template engines: a first-order Markov chain
// over event names, keyed on the actor's last emitted event.
package templates

import (
	"math/rand/v2"

	"github.com/coreaudit/seclogsim/internal/rng"
)

// LastEventClass buckets an actor's last_event for the candidate table
// lookup: none, a small set of named "anchor" events, or "other".
func LastEventClass(lastEvent string, anchors map[string]struct{}) string {
	if lastEvent == "" {
		return "none"
	}
	if _, ok := anchors[lastEvent]; ok {
		return lastEvent
	}
	return "other"
}

// Candidate is one (event name, base weight) entry in a catalogue.
type Candidate struct {
	Name   string
	Weight float64
}

// Catalogue maps a last-event class to its candidate list.
type Catalogue map[string][]Candidate

// Pick selects the next event name: filter the class's candidates to the
// allowed set, multiply by the actor's per-event bias, weighted-index
// sample; fall back to a catalogue-wide sample if the filtered list is
// empty.
func Pick(r *rand.Rand, cat Catalogue, class string, allowed map[string]struct{}, bias map[string]float64) (string, bool) {
	names, weights := filteredCandidates(cat[class], allowed, bias)
	if len(names) == 0 {
		names, weights = filteredCandidates(allCandidates(cat), allowed, bias)
	}
	if len(names) == 0 {
		return "", false
	}
	idx, ok := rng.WeightedIndex(r, weights)
	if !ok {
		return "", false
	}
	return names[idx], true
}

func filteredCandidates(candidates []Candidate, allowed map[string]struct{}, bias map[string]float64) ([]string, []float64) {
	names := make([]string, 0, len(candidates))
	weights := make([]float64, 0, len(candidates))
	for _, c := range candidates {
		if allowed != nil {
			if _, ok := allowed[c.Name]; !ok {
				continue
			}
		}
		w := c.Weight
		if b, ok := bias[c.Name]; ok {
			w *= b
		}
		names = append(names, c.Name)
		weights = append(weights, w)
	}
	return names, weights
}

func allCandidates(cat Catalogue) []Candidate {
	var out []Candidate
	seen := make(map[string]struct{})
	for _, list := range cat {
		for _, c := range list {
			if _, ok := seen[c.Name]; ok {
				continue
			}
			seen[c.Name] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}
