// Package submission flattens a protocol and its recorded results into the
// entries of a finish protocol.
package submission

import (
	"errors"
	"strings"

	"github.com/samber/lo"

	"github.com/mpapenbr/swimprotocol/pkg/model"
	"github.com/mpapenbr/swimprotocol/pkg/results"
)

var ErrNothingToSubmit = errors.New("nothing to submit")

// Build creates one entry per participant start holding a qualifying result.
// Individual starts qualify with a valid time, relay starts with at least one
// recorded leg. Returns ErrNothingToSubmit if no start qualifies.
//
//nolint:whitespace // editor/linter issue
func Build(
	p *model.Protocol,
	times model.ResultTimes,
	relay model.RelayResults,
) ([]model.FinishProtocolEntry, error) {
	ret := []model.FinishProtocolEntry{}
	p.Walk(func(d *model.Discipline, _ *model.GenderCategory, _ *model.AgeCategory,
		_, _ int, pa *model.Participant,
	) {
		key := model.CompositeKey(d.ID, pa.ID)
		entry := model.FinishProtocolEntry{
			DisciplineID:    model.WireID(d.ID),
			ParticipantID:   model.WireID(pa.ID),
			ParticipantName: pa.FullName,
		}
		if results.IsRelay(d, pa) {
			legs := relay[key]
			if len(legs) == 0 {
				return
			}
			entry.DisciplineType = model.DisciplineRelay
			entry.Meters = lo.ToPtr(lo.SumBy(legs, func(e model.RelayResultEntry) int {
				return e.Distance
			}))
			entry.RelayResults = lo.ToPtr(strings.Join(
				lo.Map(legs, func(e model.RelayResultEntry, _ int) string {
					return results.SegmentSeconds(e.Time)
				}), ","))
		} else {
			value, ok := times[key]
			if !ok || !results.IsValidResult(value) {
				return
			}
			entry.DisciplineType = model.DisciplineIndividual
			entry.FinishTime = lo.ToPtr(value)
		}
		ret = append(ret, entry)
	})
	if len(ret) == 0 {
		return nil, ErrNothingToSubmit
	}
	return ret, nil
}

// Summary counts the individual and relay entries
func Summary(entries []model.FinishProtocolEntry) (individual, relay int) {
	individual = lo.CountBy(entries, func(e model.FinishProtocolEntry) bool {
		return e.DisciplineType == model.DisciplineIndividual
	})
	return individual, len(entries) - individual
}
