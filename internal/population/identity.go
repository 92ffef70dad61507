// seclogsim - synthetic security-audit event generator
// SPDX-License-Identifier: AGPL-3.0-or-later

package population

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

const alnumUpper = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func randomAlnum(r *rand.Rand, n int) string {
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(alnumUpper[r.IntN(len(alnumUpper))])
	}
	return b.String()
}

type identity struct {
	identityType string
	principalID  string
	arn          string
	accessKeyID  string
	userName     string
}

// generateIdentity builds the identity-shaped fields of an ActorSeed. Human
// actors get an IAMUser-shaped identity; services get an AssumedRole-shaped
// one, matching CloudTrail's userIdentity.type enumeration.
func generateIdentity(r *rand.Rand, kind Kind, accountID string, role Role, profile ServiceProfile, username string) identity {
	if kind == KindHuman {
		principalID := "AIDA" + randomAlnum(r, 17)
		if username == "" {
			username = strings.ToLower(string(role)) + "." + strings.ToLower(randomAlnum(r, 5))
		}
		return identity{
			identityType: "IAMUser",
			principalID:  principalID,
			arn:          fmt.Sprintf("arn:aws:iam::%s:user/%s", accountID, username),
			accessKeyID:  "AKIA" + randomAlnum(r, 16),
			userName:     username,
		}
	}

	principalID := "AROA" + randomAlnum(r, 17)
	roleName := string(profile)
	if roleName == "" {
		roleName = "generic"
	}
	roleName += "-service-role"
	sessionName := roleName + "-" + randomAlnum(r, 8)
	return identity{
		identityType: "AssumedRole",
		principalID:  principalID + ":" + sessionName,
		arn:          fmt.Sprintf("arn:aws:sts::%s:assumed-role/%s/%s", accountID, roleName, sessionName),
		accessKeyID:  "ASIA" + randomAlnum(r, 16),
	}
}

// generateAccountID produces a 12-digit account id when none of the
// configured pool/count options apply.
func generateAccountID(r *rand.Rand) string {
	var b strings.Builder
	b.Grow(12)
	b.WriteByte(byte('1' + r.IntN(9))) // avoid a leading zero
	for i := 1; i < 12; i++ {
		b.WriteByte(byte('0' + r.IntN(10)))
	}
	return b.String()
}
