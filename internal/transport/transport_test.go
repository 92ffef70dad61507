// seclogsim - synthetic security-audit event generator
// SPDX-License-Identifier: AGPL-3.0-or-later

package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubjectForAppliesPrefix(t *testing.T) {
	p := &Publisher{prefix: "seclogsim"}
	assert.Equal(t, "seclogsim.ct-main.events", p.subjectFor("ct-main"))

	p = &Publisher{}
	assert.Equal(t, "ct-main.events", p.subjectFor("ct-main"))
}

func TestDefaultConfigDisabled(t *testing.T) {
	cfg := DefaultConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, "nats://127.0.0.1:4222", cfg.URL)
}
