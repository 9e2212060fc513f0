package results

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/swimprotocol/pkg/model"
)

func TestIsValidResult(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{"", false},
		{"00:00:00", false},
		{"00:00:0", false},
		{"0:00:00", false},
		{"0 м", false},
		{"0м", false},
		{"01:23:45", true},
		{"50 м", true},
		{"garbage", true},
		{"00:00:01", true},
		{" 0 м", true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidResult(tt.raw))
		})
	}
}

func TestSegmentSeconds(t *testing.T) {
	tests := []struct {
		time string
		want string
	}{
		{"01:10:00", "70.00"},
		{"00:30:50", "30.50"},
		{"00:30.5", "30.05"},
		{"02:05.07", "125.07"},
		{"10:00:00:99", "600.00"},
		{"01:10", "0.00"},
		{"", "0.00"},
		{"aa:bb:cc", "0.00"},
		{"01:xx:00", "0.00"},
	}
	for _, tt := range tests {
		t.Run(tt.time, func(t *testing.T) {
			assert.Equal(t, tt.want, SegmentSeconds(tt.time))
		})
	}
}

func TestTotalDuration(t *testing.T) {
	entries := []model.RelayResultEntry{
		model.NewRelayResultEntry(50, "01:10:00"),
		model.NewRelayResultEntry(25, "00:30:50"),
		model.NewRelayResultEntry(25, "broken"),
	}
	assert.Equal(t, "100.50", TotalDuration(entries).StringFixed(2))

	d, ok := SegmentDuration("00:30:05")
	require.True(t, ok)
	assert.Equal(t, "30.05", d.StringFixed(2))
	_, ok = SegmentDuration("30")
	assert.False(t, ok)
}

func TestIsRelay(t *testing.T) {
	team := "Журавли"
	tests := []struct {
		name       string
		discipline string
		teamName   *string
		want       bool
	}{
		{name: "individual", discipline: "50 м вольный стиль", want: false},
		{name: "relay discipline", discipline: "Эстафета 4x25 м", want: true},
		{name: "upper case marker", discipline: "ЭСТАФЕТА", want: true},
		{name: "team member", discipline: "50 м вольный стиль", teamName: &team, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &model.Discipline{Name: tt.discipline}
			p := &model.Participant{TeamName: tt.teamName}
			assert.Equal(t, tt.want, IsRelay(d, p))
		})
	}
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "01:10:00", want: "01:10:00"},
		{in: "1:2:3", want: "01:02:03"},
		{in: "00:30.50", want: "00:30:50"},
		{in: "05:07", want: "05:07:00"},
		{in: "60:00:00", wantErr: true},
		{in: "00:60:00", wantErr: true},
		{in: "00:00:100", wantErr: true},
		{in: "-1:00:00", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeTime(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTime)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDistance(t *testing.T) {
	assert.Equal(t, 50, ParseDistance("50 м"))
	assert.Equal(t, 25, ParseDistance("25м"))
	assert.Equal(t, 0, ParseDistance("far"))
}

func TestDistanceOf(t *testing.T) {
	n, ok := DistanceOf("75 м")
	assert.True(t, ok)
	assert.Equal(t, 75, n)
	_, ok = DistanceOf("00:45:00")
	assert.False(t, ok)
	n, ok = DistanceOf("0")
	assert.True(t, ok)
	assert.Equal(t, 0, n)
}
