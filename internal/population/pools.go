// seclogsim - synthetic security-audit event generator
// SPDX-License-Identifier: AGPL-3.0-or-later

package population

import "math/rand/v2"

// humanUserAgents and serviceUserAgents are the built-in pools actors draw
// their sticky user-agent strings from.
var humanUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
	"aws-cli/2.15.30 Python/3.11.8 Linux/6.5.0 exe/x86_64.ubuntu.22",
	"Boto3/1.34.69 Python/3.11.8 Linux/6.5.0 Botocore/1.34.69",
}

var serviceUserAgents = []string{
	"aws-sdk-go/1.51.0 (go1.22.1; linux; amd64)",
	"aws-sdk-go-v2/1.26.1 os/linux lang/go#1.22.1 md/GOOS#linux md/GOARCH#amd64",
	"Boto3/1.34.69 Python/3.11.8 Linux/6.5.0 Botocore/1.34.69",
	"aws-sdk-java/1.12.650 Linux/6.5.0 OpenJDK_64-Bit_Server_VM/17.0.10",
}

var publicIPPool = []string{
	"203.0.113.4", "203.0.113.17", "203.0.113.62", "198.51.100.9",
	"198.51.100.23", "198.51.100.88", "192.0.2.5", "192.0.2.44",
	"192.0.2.91", "203.0.113.200",
}

var serviceIPPool = []string{
	"10.0.1.11", "10.0.1.34", "10.0.2.5", "10.0.2.61", "10.0.3.19",
}

func sampleDistinct(r *rand.Rand, pool []string, n int) []string {
	if n > len(pool) {
		n = len(pool)
	}
	idx := make([]int, len(pool))
	for i := range idx {
		idx[i] = i
	}
	// Fisher-Yates partial shuffle for the first n slots.
	for i := 0; i < n; i++ {
		j := i + r.IntN(len(idx)-i)
		idx[i], idx[j] = idx[j], idx[i]
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = pool[idx[i]]
	}
	return out
}
