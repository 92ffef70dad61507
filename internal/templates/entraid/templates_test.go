// seclogsim - synthetic security-audit event generator
// SPDX-License-Identifier: AGPL-3.0-or-later

package entraid

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreaudit/seclogsim/internal/rng"
	"github.com/coreaudit/seclogsim/internal/templates"
)

func testCtx() templates.ActorContext {
	return templates.ActorContext{
		ActorID:   "11111111-2222-4333-8444-555555555555",
		ActorKind: "human",
		ActorName: "alice@example.onmicrosoft.com",
		UserAgent: "Mozilla/5.0",
		SourceIP:  "203.0.113.4",
		TenantID:  "c0ffee00-0000-4000-8000-000000000001",
	}
}

func TestBuildSignIn(t *testing.T) {
	r := rng.New(1)
	rec, err := Build(testCtx(), "SignIn", time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), r)
	require.NoError(t, err)
	assert.Equal(t, "SignInLogs", rec["category"])
	assert.Equal(t, "success", rec["result"])
	assert.Equal(t, "alice@example.onmicrosoft.com", rec["userPrincipalName"])
	assert.NotEmpty(t, rec["correlationId"])
}

func TestBuildAuditEventCarriesTarget(t *testing.T) {
	r := rng.New(2)
	rec, err := Build(testCtx(), "AddGroupMember", time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), r)
	require.NoError(t, err)
	assert.Equal(t, "AuditLogs", rec["category"])
	targets, ok := rec["targetResources"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, targets, 1)
	assert.Equal(t, "Group", targets[0]["type"])
}

func TestBuildEmptyNameErrors(t *testing.T) {
	r := rng.New(3)
	_, err := Build(testCtx(), "", time.Now().UTC(), r)
	require.Error(t, err)
}

func TestCategoryOf(t *testing.T) {
	assert.Equal(t, CategorySignIn, CategoryOf("SignIn"))
	assert.Equal(t, CategorySignIn, CategoryOf("DeviceCode"))
	assert.Equal(t, CategoryAudit, CategoryOf("ResetPassword"))
	assert.Equal(t, CategoryAudit, CategoryOf("Unknown"))
}

func TestInjectErrorFlipsResult(t *testing.T) {
	r := rng.New(4)
	rec, err := Build(testCtx(), "SignIn", time.Now().UTC(), r)
	require.NoError(t, err)

	InjectError(rec, "SignIn", 1.0, r)
	assert.Equal(t, "failure", rec["result"])
	status, ok := rec["status"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 50126, status["errorCode"])
	assert.NotEmpty(t, status["failureReason"])
}

func TestInjectErrorNeverFiresAtZero(t *testing.T) {
	r := rng.New(5)
	for i := 0; i < 100; i++ {
		rec, err := Build(testCtx(), "SignIn", time.Now().UTC(), r)
		require.NoError(t, err)
		InjectError(rec, "SignIn", 0.0, r)
		assert.Equal(t, "success", rec["result"])
	}
}
