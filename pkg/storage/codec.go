package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mpapenbr/swimprotocol/pkg/model"
	"github.com/mpapenbr/swimprotocol/pkg/protocol"
)

// envelope mirrors model.SavedProtocol but keeps the protocol raw, so it
// can pass through the protocol decoder which knows about identities and
// legacy tree shapes.
//
// Files of the first generation use camelCase names (protocolData, ...).
// They are read as version 1 and rewritten in the current layout.
//
//nolint:tagliatelle // storage format
type envelope struct {
	SchemaVersion int                `json:"schema_version"`
	ID            string             `json:"id"`
	Protocol      json.RawMessage    `json:"protocol_data"`
	ResultTimes   model.ResultTimes  `json:"result_times"`
	RelayResults  model.RelayResults `json:"relay_results"`
	SavedAt       *time.Time         `json:"saved_at"`

	LegacyProtocol     json.RawMessage    `json:"protocolData"`
	LegacyResultTimes  model.ResultTimes  `json:"resultTimes"`
	LegacyRelayResults model.RelayResults `json:"relayResults"`
	LegacySavedAt      *time.Time         `json:"savedAt"`
}

func isEmptyRaw(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// merge folds the camelCase fields into the current ones. It reports
// whether the record used the first generation layout.
func (e *envelope) merge() (legacy bool) {
	if isEmptyRaw(e.Protocol) && !isEmptyRaw(e.LegacyProtocol) {
		e.Protocol = e.LegacyProtocol
		legacy = true
	}
	if e.ResultTimes == nil && e.LegacyResultTimes != nil {
		e.ResultTimes = e.LegacyResultTimes
		legacy = true
	}
	if e.RelayResults == nil && e.LegacyRelayResults != nil {
		e.RelayResults = e.LegacyRelayResults
		legacy = true
	}
	if e.SavedAt == nil && e.LegacySavedAt != nil {
		e.SavedAt = e.LegacySavedAt
		legacy = true
	}
	return legacy
}

func encode(sp *model.SavedProtocol) ([]byte, error) {
	return json.Marshal(sp)
}

// decode reads a stored record. The returned version is the schema version
// found in the blob, records without version field count as version 1.
func decode(data []byte) (sp *model.SavedProtocol, version int, err error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, 0, fmt.Errorf("decode saved protocol: %w", err)
	}
	legacy := env.merge()
	if isEmptyRaw(env.Protocol) {
		return nil, 0, fmt.Errorf("decode saved protocol: missing protocol_data")
	}
	p, err := protocol.Decode(env.Protocol)
	if err != nil {
		return nil, 0, fmt.Errorf("decode saved protocol: %w", err)
	}
	version = env.SchemaVersion
	if version == 0 || legacy {
		version = 1
	}
	sp = &model.SavedProtocol{
		SchemaVersion: version,
		ID:            env.ID,
		Protocol:      p,
		ResultTimes:   env.ResultTimes,
		RelayResults:  env.RelayResults,
	}
	if env.SavedAt != nil {
		sp.SavedAt = *env.SavedAt
	}
	if sp.ResultTimes == nil {
		sp.ResultTimes = model.ResultTimes{}
	}
	if sp.RelayResults == nil {
		sp.RelayResults = model.RelayResults{}
	}
	return sp, version, nil
}
