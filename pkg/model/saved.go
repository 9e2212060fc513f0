package model

import "time"

// CurrentSchemaVersion of the persisted SavedProtocol.
//
// Version 1 (implicit, no version field): results keyed by bare participant id.
// Version 2: results keyed by CompositeKey.
const CurrentSchemaVersion = 2

// SavedProtocol is the unit of local persistence, one per competition id.
//
//nolint:tagliatelle // storage format
type SavedProtocol struct {
	SchemaVersion int          `json:"schema_version"`
	ID            string       `json:"id"` // competition id
	Protocol      *Protocol    `json:"protocol_data"`
	ResultTimes   ResultTimes  `json:"result_times"`
	RelayResults  RelayResults `json:"relay_results"`
	SavedAt       time.Time    `json:"saved_at"`
}

func NewSavedProtocol(competitionID string, p *Protocol) *SavedProtocol {
	return &SavedProtocol{
		SchemaVersion: CurrentSchemaVersion,
		ID:            competitionID,
		Protocol:      p,
		ResultTimes:   ResultTimes{},
		RelayResults:  RelayResults{},
	}
}
