package model

import (
	"encoding/json"

	"github.com/google/uuid"
)

// IDSource tells where an identity came from.
// It is persisted with the local snapshot so later decodes can tell server
// assigned ids from locally generated ones.
type IDSource string

const (
	IDSourceServer    IDSource = "server"
	IDSourceGenerated IDSource = "generated"
	IDSourceDerived   IDSource = "derived"
)

type (
	//nolint:tagliatelle // external API
	Protocol struct {
		CompetitionName string        `json:"competition_name"`
		CompetitionDate string        `json:"competition_date"` // display string
		Location        string        `json:"location"`
		Disciplines     []*Discipline `json:"disciplines"`
	}

	//nolint:tagliatelle // external API
	Discipline struct {
		ID          uuid.UUID         `json:"id"`
		IDSource    IDSource          `json:"id_source"`
		Name        string            `json:"discipline_name"`
		Description string            `json:"description"`
		Genders     []*GenderCategory `json:"genders"`
	}

	//nolint:tagliatelle // external API
	GenderCategory struct {
		Gender        string         `json:"gender"`
		AgeCategories []*AgeCategory `json:"age_categories"`
	}

	//nolint:tagliatelle // external API
	AgeCategory struct {
		CategoryName string `json:"category_name"`
		Heats        []Heat `json:"heats"`
	}

	// Heat is a fixed size sequence of lanes. Lane number is index+1.
	Heat []Lane

	// Lane is either empty or holds exactly one participant.
	Lane struct {
		Participant *Participant
	}

	//nolint:tagliatelle // external API
	Participant struct {
		ID              uuid.UUID `json:"id"`
		IDSource        IDSource  `json:"id_source"`
		FullName        string    `json:"full_name"`
		Gender          string    `json:"gender"`
		DateOfBirth     string    `json:"date_of_birth"` // display string
		Club            string    `json:"club"`
		ApplicationTime string    `json:"application_time"`
		TeamName        *string   `json:"team_name,omitempty"`
	}

	// Visit is called for every occupied lane.
	// laneIdx is the zero based position within the heat.
	Visit func(d *Discipline, g *GenderCategory, a *AgeCategory, heatIdx, laneIdx int,
		p *Participant)
)

func EmptyLane() Lane {
	return Lane{}
}

func OccupiedLane(p *Participant) Lane {
	return Lane{Participant: p}
}

func (l Lane) IsEmpty() bool {
	return l.Participant == nil
}

func (l Lane) MarshalJSON() ([]byte, error) {
	if l.Participant == nil {
		return []byte("null"), nil
	}
	return json.Marshal(l.Participant)
}

// InTeam reports whether the participant belongs to a relay team
func (p *Participant) InTeam() bool {
	return p.TeamName != nil
}

// Walk traverses discipline, gender, age category, heat and lane in order
// and calls fn for every occupied lane.
func (p *Protocol) Walk(fn Visit) {
	for _, d := range p.Disciplines {
		for _, g := range d.Genders {
			for _, a := range g.AgeCategories {
				for hi, heat := range a.Heats {
					for li, lane := range heat {
						if lane.IsEmpty() {
							continue
						}
						fn(d, g, a, hi, li, lane.Participant)
					}
				}
			}
		}
	}
}

func (p *Protocol) ParticipantCount() int {
	count := 0
	p.Walk(func(*Discipline, *GenderCategory, *AgeCategory, int, int, *Participant) {
		count++
	})
	return count
}

// Discipline returns the discipline with the given id or nil
func (p *Protocol) Discipline(id uuid.UUID) *Discipline {
	for _, d := range p.Disciplines {
		if d.ID == id {
			return d
		}
	}
	return nil
}

// DisciplinesOf returns the ids of all disciplines the participant starts in
func (p *Protocol) DisciplinesOf(participantID uuid.UUID) []uuid.UUID {
	ret := []uuid.UUID{}
	seen := map[uuid.UUID]bool{}
	p.Walk(func(d *Discipline, _ *GenderCategory, _ *AgeCategory, _, _ int, pa *Participant) {
		if pa.ID == participantID && !seen[d.ID] {
			seen[d.ID] = true
			ret = append(ret, d.ID)
		}
	})
	return ret
}

// Participant looks up a participant within a discipline
//
//nolint:whitespace // editor/linter issue
func (p *Protocol) Participant(
	disciplineID, participantID uuid.UUID,
) (*Discipline, *Participant) {
	d := p.Discipline(disciplineID)
	if d == nil {
		return nil, nil
	}
	for _, g := range d.Genders {
		for _, a := range g.AgeCategories {
			for _, heat := range a.Heats {
				for _, lane := range heat {
					if !lane.IsEmpty() && lane.Participant.ID == participantID {
						return d, lane.Participant
					}
				}
			}
		}
	}
	return d, nil
}

// Occupancy returns one flag per lane, true if the lane holds a participant
func (h Heat) Occupancy() []bool {
	ret := make([]bool, len(h))
	for i, l := range h {
		ret[i] = !l.IsEmpty()
	}
	return ret
}
