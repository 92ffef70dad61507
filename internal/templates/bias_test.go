// seclogsim - synthetic security-audit event generator
// SPDX-License-Identifier: AGPL-3.0-or-later

package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreaudit/seclogsim/internal/rng"
)

func testCatalogue() Catalogue {
	return Catalogue{
		"none": {
			{Name: "Login", Weight: 3},
			{Name: "Assume", Weight: 1},
		},
		"Login": {
			{Name: "Read", Weight: 2},
			{Name: "Write", Weight: 1},
		},
		"other": {
			{Name: "Read", Weight: 1},
			{Name: "Write", Weight: 1},
			{Name: "Login", Weight: 1},
		},
	}
}

func TestLastEventClassBuckets(t *testing.T) {
	anchors := map[string]struct{}{"Login": {}}
	assert.Equal(t, "none", LastEventClass("", anchors))
	assert.Equal(t, "Login", LastEventClass("Login", anchors))
	assert.Equal(t, "other", LastEventClass("Whatever", anchors))
}

func TestPickHonorsAllowedSet(t *testing.T) {
	r := rng.New(1)
	allowed := map[string]struct{}{"Assume": {}}
	for i := 0; i < 50; i++ {
		name, ok := Pick(r, testCatalogue(), "none", allowed, nil)
		require.True(t, ok)
		assert.Equal(t, "Assume", name)
	}
}

func TestPickFallsBackToCatalogueWide(t *testing.T) {
	r := rng.New(2)
	// "Login" class has only Read/Write; allowing only Login forces the
	// catalogue-wide fallback.
	allowed := map[string]struct{}{"Login": {}}
	name, ok := Pick(r, testCatalogue(), "Login", allowed, nil)
	require.True(t, ok)
	assert.Equal(t, "Login", name)
}

func TestPickAppliesBias(t *testing.T) {
	r := rng.New(3)
	bias := map[string]float64{"Write": 100}
	writes := 0
	for i := 0; i < 1000; i++ {
		name, ok := Pick(r, testCatalogue(), "Login", nil, bias)
		require.True(t, ok)
		if name == "Write" {
			writes++
		}
	}
	// Weight ratio is 2 : 100, so Write should dominate.
	assert.Greater(t, writes, 900)
}

func TestPickEmptyCatalogue(t *testing.T) {
	r := rng.New(4)
	_, ok := Pick(r, Catalogue{}, "none", nil, nil)
	assert.False(t, ok)
}
