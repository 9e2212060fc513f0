//nolint:funlen // ok for tests
package protocol

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/swimprotocol/pkg/model"
)

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

func TestDecode_StartProtocol(t *testing.T) {
	p, err := Decode(readFixture(t, "start_protocol.json"))
	require.NoError(t, err)

	assert.Equal(t, "Кубок Журавлей", p.CompetitionName)
	assert.Equal(t, "06.12.2025", p.CompetitionDate)
	assert.Equal(t, "Москва", p.Location)
	require.Len(t, p.Disciplines, 2)
	assert.Equal(t, 3, p.ParticipantCount())

	individual := p.Disciplines[0]
	assert.Equal(t, uuid.MustParse("e2794ac2-32e3-4970-850b-5052efdbaad3"), individual.ID)
	assert.Equal(t, model.IDSourceServer, individual.IDSource)

	heat := individual.Genders[0].AgeCategories[0].Heats[0]
	assert.Equal(t, []bool{false, true, false}, heat.Occupancy())
	kozlov := heat[1].Participant
	assert.Equal(t, "6061d009-0000-5000-8000-d009821393e9", kozlov.ID.String())
	assert.Equal(t, model.IDSourceDerived, kozlov.IDSource)
	assert.False(t, kozlov.InTeam())

	relay := p.Disciplines[1]
	assert.Equal(t, model.IDSourceGenerated, relay.IDSource)
	assert.NotEqual(t, uuid.Nil, relay.ID)

	team := relay.Genders[0].AgeCategories[0].Heats[0][0].Participant
	assert.Equal(t, uuid.MustParse("c75759c4-0fa2-4d1f-afc9-b4748030ddbb"), team.ID)
	assert.Equal(t, model.IDSourceServer, team.IDSource)
	require.True(t, team.InTeam())
	assert.Equal(t, "Журавли", *team.TeamName)

	// explicit null team name is not a team membership
	assert.False(t, relay.Genders[0].AgeCategories[0].Heats[0][1].Participant.InTeam())
}

func TestDecode_RoundTrip(t *testing.T) {
	orig, err := Decode(readFixture(t, "start_protocol.json"))
	require.NoError(t, err)

	data, err := Encode(orig)
	require.NoError(t, err)
	again, err := Decode(data)
	require.NoError(t, err)

	if diff := cmp.Diff(orig, again); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []bool{false, true, false},
		again.Disciplines[0].Genders[0].AgeCategories[0].Heats[0].Occupancy())
}

func TestDecode_NullLanesInThreeLaneHeat(t *testing.T) {
	doc := `{"competition_name":"c","competition_date":"d","location":"l","disciplines":[
	{"discipline_name":"n","description":"","genders":[{"gender":"g","age_categories":[
	{"category_name":"a","heats":[[null,{"full_name":"X","gender":"М","date_of_birth":"",
	"club":"","application_time":""},null]]}]}]}]}`

	p, err := Decode([]byte(doc))
	require.NoError(t, err)
	heat := p.Disciplines[0].Genders[0].AgeCategories[0].Heats[0]
	require.Len(t, heat, 3)
	assert.True(t, heat[0].IsEmpty())
	assert.Equal(t, "X", heat[1].Participant.FullName)
	assert.True(t, heat[2].IsEmpty())

	data, err := Encode(p)
	require.NoError(t, err)
	again, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, heat.Occupancy(),
		again.Disciplines[0].Genders[0].AgeCategories[0].Heats[0].Occupancy())
}

func TestDecode_LegacyShape(t *testing.T) {
	p, err := Decode(readFixture(t, "legacy_protocol.json"))
	require.NoError(t, err)
	require.Len(t, p.Disciplines, 1)

	type cat struct {
		gender, category string
		lanes            int
	}
	var got []cat
	for _, g := range p.Disciplines[0].Genders {
		for _, a := range g.AgeCategories {
			got = append(got, cat{g.Gender, a.CategoryName, len(a.Heats[0])})
		}
	}
	want := []cat{
		{"Мальчики", "2018 г.р.", 1},
		{"Девочки", "2018 г.р.", 2},
		{"Девочки", "2017 г.р.", 1},
	}
	assert.Equal(t, want, got)
	assert.Equal(t, 3, p.ParticipantCount())
}

func TestDecode_KeepsSnapshotIdentities(t *testing.T) {
	doc := `{"competition_name":"c","competition_date":"d","location":"l","disciplines":[
	{"id":"d21ea4ef-dbd2-4c78-a332-0d14ad17c813","id_source":"generated",
	"discipline_id":"e2794ac2-32e3-4970-850b-5052efdbaad3",
	"discipline_name":"n","description":"","genders":[{"gender":"g","age_categories":[
	{"category_name":"a","heats":[[{"id":"b16c2c4f-3c02-4fe3-86f2-26e4d229d406",
	"participant_id":"c75759c4-0fa2-4d1f-afc9-b4748030ddbb","full_name":"X","gender":"М",
	"date_of_birth":"","club":"","application_time":""},
	{"id":"not-a-uuid","full_name":"Y","gender":"М","date_of_birth":"",
	"club":"","application_time":""}]]}]}]}]}`

	p, err := Decode([]byte(doc))
	require.NoError(t, err)
	d := p.Disciplines[0]
	assert.Equal(t, "d21ea4ef-dbd2-4c78-a332-0d14ad17c813", d.ID.String())
	assert.Equal(t, model.IDSourceGenerated, d.IDSource)

	heat := d.Genders[0].AgeCategories[0].Heats[0]
	assert.Equal(t, "b16c2c4f-3c02-4fe3-86f2-26e4d229d406", heat[0].Participant.ID.String())
	assert.Equal(t, model.IDSourceServer, heat[0].Participant.IDSource)
	// unparsable id falls back to the derived id
	assert.Equal(t, model.IDSourceDerived, heat[1].Participant.IDSource)
}

func TestDecode_Errors(t *testing.T) {
	const head = `{"competition_name":"c","competition_date":"d","location":"l","disciplines":[`
	const lanePrefix = `{"discipline_name":"n","description":"","genders":[{"gender":"g",` +
		`"age_categories":[{"category_name":"a","heats":[[`
	const laneSuffix = `]]}]}]}]}`

	tests := []struct {
		name     string
		doc      string
		wantKind Kind
		wantPath string
	}{
		{
			name:     "invalid json",
			doc:      `{"competition_name":`,
			wantKind: DataCorrupted,
		},
		{
			name:     "root not an object",
			doc:      `[]`,
			wantKind: TypeMismatch,
		},
		{
			name:     "missing competition name",
			doc:      `{"competition_date":"d","location":"l","disciplines":[]}`,
			wantKind: KeyNotFound,
			wantPath: "competition_name",
		},
		{
			name:     "null location",
			doc:      `{"competition_name":"c","competition_date":"d","location":null,"disciplines":[]}`,
			wantKind: ValueNotFound,
			wantPath: "location",
		},
		{
			name:     "discipline without genders",
			doc:      head + `{"discipline_name":"n","description":""}]}`,
			wantKind: KeyNotFound,
			wantPath: "disciplines -> 0 -> genders",
		},
		{
			name:     "lane of wrong type",
			doc:      head + lanePrefix + `null,42` + laneSuffix,
			wantKind: TypeMismatch,
			wantPath: "disciplines -> 0 -> genders -> 0 -> age_categories -> 0 -> heats -> 0 -> 1",
		},
		{
			name: "malformed participant",
			doc: head + lanePrefix + `{"gender":"М","date_of_birth":"","club":"",` +
				`"application_time":""}` + laneSuffix,
			wantKind: KeyNotFound,
			wantPath: "disciplines -> 0 -> genders -> 0 -> age_categories -> 0 -> heats -> 0 -> 0" +
				" -> full_name",
		},
		{
			name:     "number as name",
			doc:      `{"competition_name":1,"competition_date":"d","location":"l","disciplines":[]}`,
			wantKind: TypeMismatch,
			wantPath: "competition_name",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Decode([]byte(tt.doc))
			assert.Nil(t, p)
			var de *DecodeError
			require.True(t, errors.As(err, &de), "got %v", err)
			assert.Equal(t, tt.wantKind, de.Kind)
			assert.Equal(t, tt.wantPath, de.PathString())
			assert.Contains(t, de.Error(), tt.wantKind.String())
		})
	}
}

func TestDecodeCompetitions(t *testing.T) {
	got, err := DecodeCompetitions(readFixture(t, "competitions.json"))
	require.NoError(t, err)
	want := []model.Competition{
		{
			ID: "1f0c", Description: "Кубок Журавлей", Location: "Москва",
			Date: "2025-12-06", IsActive: true, RegisteredCount: 42,
		},
		{
			ID: "17", Description: "Первенство", Location: "Казань",
			Date: "2025-11-23", IsActive: false, RegisteredCount: 0,
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DecodeCompetitions() mismatch (-want +got):\n%s", diff)
	}

	_, err = DecodeCompetitions([]byte(`[{"id":"x","description":"d","location":"l","date":"d",` +
		`"is_active":"yes","registered_count":1}]`))
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, TypeMismatch, de.Kind)
	assert.Equal(t, "0 -> is_active", de.PathString())
}

func TestOptNullString(t *testing.T) {
	tests := []struct {
		name      string
		o         obj
		wantState string
		wantTyped bool
	}{
		{name: "absent", o: obj{}, wantState: "unset", wantTyped: true},
		{name: "null", o: obj{"team_name": nil}, wantState: "null", wantTyped: true},
		{name: "value", o: obj{"team_name": "Журавли"}, wantState: "set", wantTyped: true},
		{name: "number", o: obj{"team_name": int64(7)}, wantState: "unset", wantTyped: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, typed := optNullString(tt.o, "team_name")
			assert.Equal(t, tt.wantTyped, typed)
			assert.Equal(t, tt.wantState, got.State().String())
		})
	}
}

func TestDecode_TeamNameStates(t *testing.T) {
	doc := `{"competition_name":"K","competition_date":"01.01.2025","location":"L",
	"disciplines":[{"id":"e2794ac2-32e3-4970-850b-5052efdbaad3","discipline_name":"50 м",
	"description":"","genders":[{"gender":"М","age_categories":[{"category_name":"A",
	"heats":[[
	{"full_name":"A","gender":"М","date_of_birth":"","club":"","application_time":""},
	{"full_name":"B","gender":"М","date_of_birth":"","club":"","application_time":"","team_name":null},
	{"full_name":"C","gender":"М","date_of_birth":"","club":"","application_time":"","team_name":5},
	{"full_name":"D","gender":"М","date_of_birth":"","club":"","application_time":"","team_name":"T"}
	]]}]}]}]}`
	p, err := Decode([]byte(doc))
	require.NoError(t, err)
	heat := p.Disciplines[0].Genders[0].AgeCategories[0].Heats[0]
	require.Len(t, heat, 4)
	assert.False(t, heat[0].Participant.InTeam())
	assert.False(t, heat[1].Participant.InTeam())
	assert.False(t, heat[2].Participant.InTeam())
	require.True(t, heat[3].Participant.InTeam())
	assert.Equal(t, "T", *heat[3].Participant.TeamName)
}
