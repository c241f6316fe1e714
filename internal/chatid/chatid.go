// Package chatid derives conversation identifiers for two-party chats.
//
// The conversation id is a pure function of the unordered participant pair, so
// both sides of a conversation converge on the same id without coordination.
package chatid

import (
	"crypto/sha1"
	"sort"
	"strings"

	"github.com/google/uuid"
)

const separator = ":"

// Deriver produces a conversation identifier for a pair of participants.
type Deriver interface {
	Derive(a, b string) string
}

// New returns the digest-based deriver: the participant pair is sorted
// lexicographically, joined, hashed with SHA-1 and the first 16 digest bytes
// are formatted as a v5-style UUID. Derive(a, b) == Derive(b, a) always holds.
func New() Deriver {
	return digestDeriver{}
}

// NewRandom returns a deriver that ignores its inputs and produces a random
// identifier. A conversation created this way cannot be deterministically
// rejoined by the other participant; it exists for throwaway rooms and as the
// documented degraded mode when deterministic ids are not wanted.
func NewRandom() Deriver {
	return randomDeriver{}
}

type digestDeriver struct{}

func (digestDeriver) Derive(a, b string) string {
	participants := []string{a, b}
	sort.Strings(participants)

	sum := sha1.Sum([]byte(strings.Join(participants, separator)))

	var raw [16]byte
	copy(raw[:], sum[:16])
	raw[6] = (raw[6] & 0x0f) | 0x50
	raw[8] = (raw[8] & 0x3f) | 0x80

	id, err := uuid.FromBytes(raw[:])
	if err != nil {
		// unreachable: FromBytes only fails on length mismatch
		return uuid.NewString()
	}
	return id.String()
}

type randomDeriver struct{}

func (randomDeriver) Derive(string, string) string {
	return uuid.NewString()
}
