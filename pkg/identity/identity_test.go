//nolint:funlen // ok for tests
package identity

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/swimprotocol/pkg/model"
)

func TestParticipantID(t *testing.T) {
	tests := []struct {
		name string
		full string
		dob  string
		club string
		want string
	}{
		{
			name: "cyrillic",
			full: "Козлов Тимофей Иванович", dob: "15.01.2019", club: "ТЕСТ",
			want: "6061d009-0000-5000-8000-d009821393e9",
		},
		{name: "short", full: "a", dob: "b", club: "c", want: "00000000-0000-5000-8000-00000590c52e"},
		{name: "empty fields", want: "00000000-0000-5000-8000-000000000f80"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParticipantID(tt.full, tt.dob, tt.club)
			assert.Equal(t, tt.want, got.String())
			assert.Equal(t, got, ParticipantID(tt.full, tt.dob, tt.club), "not deterministic")
			assert.Equal(t, uuid.Version(5), got.Version())
			assert.Equal(t, uuid.RFC4122, got.Variant())
		})
	}
}

func TestParticipantID_NoCollisions(t *testing.T) {
	first := []string{"Иван", "Мария", "Пётр", "Анна", "Олег", "Юлия", "Роман", "Софья"}
	last := []string{"Козлов", "Смирнова", "Николаев", "Семёнова", "Орлов", "Павлова", "Егоров"}
	clubs := []string{"ТЕСТ", "Дельфин"}

	type triple struct{ full, dob, club string }
	var corpus []triple
	for i, f := range first {
		for j, l := range last {
			corpus = append(corpus, triple{
				full: l + " " + f,
				dob:  fmt.Sprintf("%02d.%02d.%d", 1+(i+j)%28, 1+j%12, 2010+i),
				club: clubs[(i+j)%len(clubs)],
			})
		}
	}
	// same name, differing in exactly one other field
	corpus = append(corpus,
		triple{"Козлов Иван", "01.01.2010", "Дельфин"},
		triple{"Козлов Иван", "02.01.2010", "ТЕСТ"},
		triple{"Козлов  Иван", "01.01.2010", "ТЕСТ"},
	)
	require.GreaterOrEqual(t, len(corpus), 50)

	seen := map[uuid.UUID]triple{}
	for _, c := range corpus {
		id := ParticipantID(c.full, c.dob, c.club)
		if prev, ok := seen[id]; ok && prev != c {
			t.Fatalf("collision between %v and %v", prev, c)
		}
		seen[id] = c
	}
}

func TestHash_Wraps(t *testing.T) {
	// long inputs overflow int64 many times, result must stay stable
	long := ""
	for i := 0; i < 200; i++ {
		long += "Ω"
	}
	assert.Equal(t, ParticipantID(long, "", ""), ParticipantID(long, "", ""))
	assert.NotEqual(t, ParticipantID(long, "", ""), ParticipantID(long+"Ω", "", ""))
}

func TestParticipant_Precedence(t *testing.T) {
	local := "c75759c4-0fa2-4d1f-afc9-b4748030ddbb"
	server := "b16c2c4f-3c02-4fe3-86f2-26e4d229d406"
	derived := ParticipantID("A", "B", "C")

	tests := []struct {
		name       string
		candidates []Candidate
		wantID     uuid.UUID
		wantSource model.IDSource
	}{
		{
			name: "local first",
			candidates: []Candidate{
				{Value: local, Source: model.IDSourceDerived},
				{Value: server, Source: model.IDSourceServer},
			},
			wantID: uuid.MustParse(local), wantSource: model.IDSourceDerived,
		},
		{
			name:       "server when local absent",
			candidates: []Candidate{{Value: ""}, {Value: server, Source: model.IDSourceServer}},
			wantID:     uuid.MustParse(server), wantSource: model.IDSourceServer,
		},
		{
			name:       "unparsable falls through",
			candidates: []Candidate{{Value: "42"}, {Value: server}},
			wantID:     uuid.MustParse(server), wantSource: model.IDSourceServer,
		},
		{
			name:       "derived fallback",
			candidates: []Candidate{{Value: "garbage"}},
			wantID:     derived, wantSource: model.IDSourceDerived,
		},
		{name: "no candidates", wantID: derived, wantSource: model.IDSourceDerived},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, src := Participant("A", "B", "C", tt.candidates...)
			assert.Equal(t, tt.wantID, id)
			assert.Equal(t, tt.wantSource, src)
		})
	}
}

func TestDiscipline_GeneratesWhenAbsent(t *testing.T) {
	fixed := uuid.MustParse("d21ea4ef-dbd2-4c78-a332-0d14ad17c813")
	orig := newRandom
	newRandom = func() uuid.UUID { return fixed }
	defer func() { newRandom = orig }()

	id, src := Discipline(Candidate{Value: "not-an-id"})
	assert.Equal(t, fixed, id)
	assert.Equal(t, model.IDSourceGenerated, src)

	server := uuid.New()
	id, src = Discipline(Candidate{Value: server.String()})
	assert.Equal(t, server, id)
	assert.Equal(t, model.IDSourceServer, src)
}

func TestReconcile(t *testing.T) {
	prevFree := uuid.New()
	prevDup1 := uuid.New()
	prevDup2 := uuid.New()
	serverID := uuid.New()

	prev := &model.Protocol{Disciplines: []*model.Discipline{
		{ID: prevFree, IDSource: model.IDSourceGenerated, Name: "50 м вольный стиль", Description: "d"},
		{ID: prevDup1, IDSource: model.IDSourceGenerated, Name: "Эстафета", Description: "4x25"},
		{ID: prevDup2, IDSource: model.IDSourceGenerated, Name: "Эстафета", Description: "4x25"},
		{ID: serverID, IDSource: model.IDSourceServer, Name: "50 м на спине", Description: "d"},
	}}
	next := &model.Protocol{Disciplines: []*model.Discipline{
		{ID: uuid.New(), IDSource: model.IDSourceGenerated, Name: "Эстафета", Description: "4x25"},
		{ID: uuid.New(), IDSource: model.IDSourceGenerated, Name: "Эстафета", Description: "4x25"},
		{ID: uuid.New(), IDSource: model.IDSourceGenerated, Name: "50 м вольный стиль", Description: "d"},
		{ID: serverID, IDSource: model.IDSourceServer, Name: "50 м на спине", Description: "d"},
		{ID: uuid.New(), IDSource: model.IDSourceGenerated, Name: "new", Description: "d"},
	}}
	fresh := next.Disciplines[4].ID

	assert.Equal(t, 3, Reconcile(prev, next))
	assert.Equal(t, prevDup1, next.Disciplines[0].ID)
	assert.Equal(t, prevDup2, next.Disciplines[1].ID)
	assert.Equal(t, prevFree, next.Disciplines[2].ID)
	assert.Equal(t, serverID, next.Disciplines[3].ID)
	assert.Equal(t, fresh, next.Disciplines[4].ID)

	assert.Equal(t, 0, Reconcile(nil, next))
}

func TestCollisions(t *testing.T) {
	same := ParticipantID("A", "B", "C")
	p := &model.Protocol{Disciplines: []*model.Discipline{{
		Genders: []*model.GenderCategory{{AgeCategories: []*model.AgeCategory{{
			Heats: []model.Heat{{
				model.OccupiedLane(&model.Participant{
					ID: same, IDSource: model.IDSourceDerived, FullName: "A", DateOfBirth: "B", Club: "C",
				}),
				model.OccupiedLane(&model.Participant{
					ID: same, IDSource: model.IDSourceDerived, FullName: "A", DateOfBirth: "B", Club: "C",
				}),
			}},
		}}}},
	}}}
	assert.Empty(t, Collisions(p))

	// forge a collision: different data, same id
	p.Disciplines[0].Genders[0].AgeCategories[0].Heats[0] = append(
		p.Disciplines[0].Genders[0].AgeCategories[0].Heats[0],
		model.OccupiedLane(&model.Participant{
			ID: same, IDSource: model.IDSourceDerived, FullName: "Z", DateOfBirth: "B", Club: "C",
		}))
	got := Collisions(p)
	require.Len(t, got, 1)
	assert.Equal(t, same, got[0].ID)
	assert.Equal(t, []string{"A", "Z"}, got[0].Names)
}
