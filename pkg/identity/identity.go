// Package identity assigns stable identifiers to participants and disciplines.
//
// Participants without an identifier get one derived from their display data,
// so the same participant maps to the same id across independent downloads.
// Disciplines are not re-identified by content: an id is assigned once and
// persisted from then on.
package identity

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/mpapenbr/swimprotocol/pkg/model"
)

// Candidate is one source of an identity in a precedence list
type Candidate struct {
	Value  string
	Source model.IDSource
}

// used to create fresh discipline ids, replaced in tests
var newRandom = uuid.New

// ParticipantID derives a deterministic id from the participant's display data.
// The 31-hash is not collision resistant, see Collisions.
func ParticipantID(fullName, dateOfBirth, club string) uuid.UUID {
	h := hash(fullName + "|" + dateOfBirth + "|" + club)
	var abs uint64
	switch {
	case h == math.MinInt64:
		abs = 1 << 63
	case h < 0:
		abs = uint64(-h)
	default:
		abs = uint64(h)
	}
	// version nibble 5, variant nibble 8
	s := fmt.Sprintf("%08x-0000-5000-8000-%012x", uint32(abs>>32), abs&0xFFFFFFFFFFFF)
	return uuid.MustParse(s)
}

// hash folds every code point into a wrapping 31-multiplicative hash
func hash(s string) int64 {
	var h int64
	for _, r := range s {
		h = 31*h + int64(r)
	}
	return h
}

// Participant resolves a participant id.
// Candidates are tried in order, the first one that parses as uuid wins.
// Without a usable candidate the id is derived from the display data.
//
//nolint:whitespace // editor/linter issue
func Participant(
	fullName, dateOfBirth, club string,
	candidates ...Candidate,
) (uuid.UUID, model.IDSource) {
	if id, src, ok := first(candidates); ok {
		return id, src
	}
	return ParticipantID(fullName, dateOfBirth, club), model.IDSourceDerived
}

// Discipline resolves a discipline id.
// Candidates are tried in order, without a usable one a random id is generated.
func Discipline(candidates ...Candidate) (uuid.UUID, model.IDSource) {
	if id, src, ok := first(candidates); ok {
		return id, src
	}
	return newRandom(), model.IDSourceGenerated
}

func first(candidates []Candidate) (uuid.UUID, model.IDSource, bool) {
	for _, c := range candidates {
		if c.Value == "" {
			continue
		}
		id, err := uuid.Parse(c.Value)
		if err != nil {
			continue
		}
		src := c.Source
		if src == "" {
			src = model.IDSourceServer
		}
		return id, src, true
	}
	return uuid.Nil, "", false
}
