package model

import (
	"strings"

	"github.com/google/uuid"
)

type DisciplineType string

const (
	DisciplineIndividual DisciplineType = "individual"
	DisciplineRelay      DisciplineType = "relay"
)

// FinishProtocolEntry is one record of the finish protocol submission.
// Individual entries carry FinishTime, relay entries Meters and RelayResults.
//
//nolint:tagliatelle // external API
type FinishProtocolEntry struct {
	DisciplineID    string         `json:"discipline_id"`
	DisciplineType  DisciplineType `json:"discipline_type"`
	ParticipantID   string         `json:"participant_id"`
	ParticipantName string         `json:"participant_name"`
	FinishTime      *string        `json:"finish_time,omitempty"`
	Meters          *int           `json:"meters,omitempty"`
	RelayResults    *string        `json:"relay_results,omitempty"` // comma separated seconds
}

// WireID formats an id the way the server received it from earlier clients,
// upper case hex
func WireID(id uuid.UUID) string {
	return strings.ToUpper(id.String())
}
