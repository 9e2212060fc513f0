package storage

import (
	"sort"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/mpapenbr/swimprotocol/pkg/model"
	"github.com/mpapenbr/swimprotocol/pkg/results"
)

// MigrationReport describes what happened while lifting a record to the
// current schema version
type MigrationReport struct {
	From    int
	Rekeyed int
	// legacy distance results of relay starts turned into a relay leg
	Converted int
	// legacy keys that could not be assigned to exactly one discipline
	Kept []string
}

// migrate re-keys results stored by bare participant id to the composite
// key. A legacy key is only re-keyed if the participant starts in exactly
// one discipline and the composite key is not taken yet. All other keys are
// kept unchanged so no result is lost.
//
// The first generation stored relay results as a distance ("50 м") in the
// time map. Such a value becomes a single leg without time.
//
//nolint:funlen,gocognit // one pass per result map
func migrate(sp *model.SavedProtocol, from int) MigrationReport {
	report := MigrationReport{From: from, Kept: []string{}}
	if from >= model.CurrentSchemaVersion {
		return report
	}

	resolve := func(key string) (string, bool) {
		norm := model.NormalizeKey(key)
		if !model.IsLegacyKey(norm) {
			return norm, false
		}
		pid := uuid.MustParse(norm)
		dids := sp.Protocol.DisciplinesOf(pid)
		if len(dids) != 1 {
			return key, true
		}
		return model.CompositeKey(dids[0], pid), false
	}

	times := make(model.ResultTimes, len(sp.ResultTimes))
	kept := map[string]bool{}
	// composite keys go first, they win over a re-keyed legacy entry
	for _, key := range sortedKeys(sp.ResultTimes) {
		if !model.IsLegacyKey(key) {
			times[model.NormalizeKey(key)] = sp.ResultTimes[key]
		}
	}
	for _, key := range sortedKeys(sp.ResultTimes) {
		if !model.IsLegacyKey(key) {
			continue
		}
		target, ambiguous := resolve(key)
		if _, taken := times[target]; ambiguous || taken {
			times[key] = sp.ResultTimes[key]
			kept[key] = true
			continue
		}
		times[target] = sp.ResultTimes[key]
		report.Rekeyed++
	}

	relay := make(model.RelayResults, len(sp.RelayResults))
	for _, key := range sortedKeys(sp.RelayResults) {
		if !model.IsLegacyKey(key) {
			relay[model.NormalizeKey(key)] = sp.RelayResults[key]
		}
	}
	for _, key := range sortedKeys(sp.RelayResults) {
		if !model.IsLegacyKey(key) {
			continue
		}
		target, ambiguous := resolve(key)
		if _, taken := relay[target]; ambiguous || taken {
			relay[key] = sp.RelayResults[key]
			kept[key] = true
			continue
		}
		relay[target] = sp.RelayResults[key]
		report.Rekeyed++
	}

	for _, key := range sortedKeys(times) {
		if kept[key] {
			continue
		}
		meters, ok := relayDistance(sp.Protocol, key, times[key])
		if !ok {
			continue
		}
		if _, taken := relay[key]; taken {
			continue
		}
		relay[key] = []model.RelayResultEntry{
			model.NewRelayResultEntry(meters, legacyLegTime),
		}
		delete(times, key)
		report.Converted++
	}

	sp.ResultTimes = times
	sp.RelayResults = relay
	sp.SchemaVersion = model.CurrentSchemaVersion
	report.Kept = sortedKeys(kept)
	return report
}

// legacyLegTime is the time of a leg converted from a distance-only result
const legacyLegTime = "00:00:00"

// relayDistance reports the meters of a legacy distance value if key belongs
// to a relay start
func relayDistance(p *model.Protocol, key, value string) (int, bool) {
	if !results.IsValidResult(value) {
		return 0, false
	}
	did, pid, err := model.ParseCompositeKey(key)
	if err != nil {
		return 0, false
	}
	d, pa := p.Participant(did, pid)
	if pa == nil || !results.IsRelay(d, pa) {
		return 0, false
	}
	return results.DistanceOf(value)
}

func sortedKeys[V any](m map[string]V) []string {
	ret := lo.Keys(m)
	sort.Strings(ret)
	return ret
}
