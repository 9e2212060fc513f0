package identity

import (
	"sort"

	"github.com/google/uuid"

	"github.com/mpapenbr/swimprotocol/pkg/model"
)

type disciplineContent struct {
	name        string
	description string
}

// Reconcile keeps discipline ids stable across downloads.
//
// Disciplines of next whose id was generated during this decode take over the
// id of the first unused generated discipline of prev with the same name and
// description. Server assigned ids are never touched.
// Returns the number of reused ids.
func Reconcile(prev, next *model.Protocol) int {
	if prev == nil || next == nil {
		return 0
	}
	inUse := map[uuid.UUID]bool{}
	for _, d := range next.Disciplines {
		if d.IDSource != model.IDSourceGenerated {
			inUse[d.ID] = true
		}
	}
	pool := map[disciplineContent][]uuid.UUID{}
	for _, d := range prev.Disciplines {
		if d.IDSource != model.IDSourceGenerated || inUse[d.ID] {
			continue
		}
		k := disciplineContent{d.Name, d.Description}
		pool[k] = append(pool[k], d.ID)
	}

	reused := 0
	for _, d := range next.Disciplines {
		if d.IDSource != model.IDSourceGenerated {
			continue
		}
		k := disciplineContent{d.Name, d.Description}
		ids := pool[k]
		if len(ids) == 0 {
			continue
		}
		d.ID = ids[0]
		pool[k] = ids[1:]
		reused++
	}
	return reused
}

// Collision describes participants with different display data sharing the
// same derived id
type Collision struct {
	ID    uuid.UUID
	Names []string
}

// Collisions reports derived participant ids shared by distinct participants.
// The same participant starting in several disciplines is not a collision.
func Collisions(p *model.Protocol) []Collision {
	type triple struct{ name, dob, club string }
	seen := map[uuid.UUID]map[triple]bool{}
	p.Walk(func(_ *model.Discipline, _ *model.GenderCategory, _ *model.AgeCategory,
		_, _ int, pa *model.Participant,
	) {
		if pa.IDSource != model.IDSourceDerived {
			return
		}
		if seen[pa.ID] == nil {
			seen[pa.ID] = map[triple]bool{}
		}
		seen[pa.ID][triple{pa.FullName, pa.DateOfBirth, pa.Club}] = true
	})

	ret := []Collision{}
	for id, triples := range seen {
		if len(triples) < 2 {
			continue
		}
		names := make([]string, 0, len(triples))
		for t := range triples {
			names = append(names, t.name)
		}
		sort.Strings(names)
		ret = append(ret, Collision{ID: id, Names: names})
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].ID.String() < ret[j].ID.String() })
	return ret
}
