// seclogsim - synthetic security-audit event generator
// SPDX-License-Identifier: AGPL-3.0-or-later

package templates

import (
	"encoding/binary"
	"io"
	"math/rand/v2"

	"github.com/google/uuid"
)

// randReader adapts a seeded *rand.Rand to io.Reader so uuid.NewRandomFromReader
// produces a UUIDv4-shaped string whose bytes trace back to the run's seed,
// keeping eventID/requestID generation reproducible.
type randReader struct{ r *rand.Rand }

func (rr randReader) Read(p []byte) (int, error) {
	n := len(p)
	for len(p) >= 8 {
		binary.LittleEndian.PutUint64(p, rr.r.Uint64())
		p = p[8:]
	}
	if len(p) > 0 {
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], rr.r.Uint64())
		copy(p, buf[:len(p)])
	}
	return n, nil
}

// NewUUID draws a UUIDv4-shaped identifier from r.
func NewUUID(r *rand.Rand) string {
	id, err := uuid.NewRandomFromReader(randReader{r: r})
	if err != nil {
		// randReader never returns an error; unreachable in practice.
		return uuid.Nil.String()
	}
	return id.String()
}

var _ io.Reader = randReader{}
