package model

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

const (
	MinRelayDistance = 0
	MaxRelayDistance = 100
)

var ErrInvalidResultKey = errors.New("invalid result key")

type (
	// ResultTimes maps a composite key to a finish time string
	ResultTimes map[string]string
	// RelayResults maps a composite key to the recorded relay legs
	RelayResults map[string][]RelayResultEntry

	// RelayResultEntry is one leg of a relay result.
	// The id is generated per entry and is not stable across edits.
	RelayResultEntry struct {
		ID       uuid.UUID `json:"id"`
		Distance int       `json:"distance"` // meters, 0..100
		Time     string    `json:"time"`     // mm:ss:SS
	}
)

func NewRelayResultEntry(distance int, time string) RelayResultEntry {
	return RelayResultEntry{ID: uuid.New(), Distance: distance, Time: time}
}

// CompositeKey identifies a participant within a discipline
func CompositeKey(disciplineID, participantID uuid.UUID) string {
	return disciplineID.String() + "-" + participantID.String()
}

// ParseCompositeKey splits a key produced by CompositeKey
func ParseCompositeKey(key string) (disciplineID, participantID uuid.UUID, err error) {
	const idLen = 36
	if len(key) != 2*idLen+1 || key[idLen] != '-' {
		return uuid.Nil, uuid.Nil, ErrInvalidResultKey
	}
	if disciplineID, err = uuid.Parse(key[:idLen]); err != nil {
		return uuid.Nil, uuid.Nil, ErrInvalidResultKey
	}
	if participantID, err = uuid.Parse(key[idLen+1:]); err != nil {
		return uuid.Nil, uuid.Nil, ErrInvalidResultKey
	}
	return disciplineID, participantID, nil
}

// IsLegacyKey reports whether key is a bare participant id as written by
// the first schema generation
func IsLegacyKey(key string) bool {
	if len(key) != 36 {
		return false
	}
	_, err := uuid.Parse(key)
	return err == nil
}

func (r ResultTimes) Clone() ResultTimes {
	ret := make(ResultTimes, len(r))
	for k, v := range r {
		ret[k] = v
	}
	return ret
}

func (r RelayResults) Clone() RelayResults {
	ret := make(RelayResults, len(r))
	for k, v := range r {
		entries := make([]RelayResultEntry, len(v))
		copy(entries, v)
		ret[k] = entries
	}
	return ret
}

// TotalDistance sums the distances of all legs recorded for key
func (r RelayResults) TotalDistance(key string) int {
	sum := 0
	for _, e := range r[key] {
		sum += e.Distance
	}
	return sum
}

// NormalizeKey lower cases the uuid parts of a stored key
func NormalizeKey(key string) string {
	return strings.ToLower(key)
}
