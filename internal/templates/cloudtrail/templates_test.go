// seclogsim - synthetic security-audit event generator
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloudtrail

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
		ActorID:      "actor-1",
		IdentityType: "IAMUser",
		PrincipalID:  "AIDAEXAMPLE",
		ARN:          "arn:aws:iam::123456789012:user/alice",
		AccountID:    "123456789012",
		AccessKeyID:  "AKIAEXAMPLE",
		UserAgent:    "aws-cli/2.15.30",
		SourceIP:     "203.0.113.4",
		Region:       "us-east-1",
		TenantID:     "tenant-a",
	}
}

func TestBuildConsoleLogin(t *testing.T) {
	r := rng.New(1)
	rec, err := Build(testCtx(), "ConsoleLogin", time.Now().UTC(), r)
	require.NoError(t, err)
	assert.Equal(t, "ConsoleLogin", rec["eventName"])
	assert.Equal(t, "AwsConsoleSignIn", rec["eventType"])
	assert.Equal(t, "Management", rec["eventCategory"])
}

func TestBuildEmptyNameErrors(t *testing.T) {
	r := rng.New(1)
	_, err := Build(testCtx(), "", time.Now().UTC(), r)
	require.Error(t, err)
}

func TestInjectErrorSetsFields(t *testing.T) {
	r := rng.New(5)
	rec, err := Build(testCtx(), "AssumeRole", time.Now().UTC(), r)
	require.NoError(t, err)
	InjectError(rec, "AssumeRole", 1.0, r)
	assert.Equal(t, "AccessDenied", rec["errorCode"])
	assert.NotEmpty(t, rec["errorMessage"])
}

func TestGenericFallback(t *testing.T) {
	r := rng.New(9)
	rec, err := Build(testCtx(), "DeleteBucket", time.Now().UTC(), r)
	require.NoError(t, err)
	assert.Equal(t, "DeleteBucket", rec["eventName"])
	assert.NotNil(t, rec["eventID"])
}
