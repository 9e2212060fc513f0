// Package results classifies and converts raw result strings.
package results

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mpapenbr/swimprotocol/pkg/model"
)

const relayMarker = "эстафет"

var ErrInvalidTime = errors.New("invalid time, want mm:ss:SS")

// values meaning "not yet entered"
var sentinels = map[string]bool{
	"":         true,
	"00:00:00": true,
	"00:00:0":  true,
	"0:00:00":  true,
	"0 м":      true,
	"0м":       true,
}

// IsValidResult reports whether raw holds an entered result.
// Only the known empty sentinels are rejected, the format is not checked.
func IsValidResult(raw string) bool {
	return !sentinels[raw]
}

// IsRelayDiscipline reports whether the discipline name marks a relay
func IsRelayDiscipline(name string) bool {
	return strings.Contains(strings.ToLower(name), relayMarker)
}

// IsRelay classifies a participant start. Either a team membership or a relay
// discipline name is sufficient.
func IsRelay(d *model.Discipline, p *model.Participant) bool {
	return p.InTeam() || IsRelayDiscipline(d.Name)
}

// segment splits mm:ss:SS (or mm:ss.SS) into its integer components
func segment(t string) (minutes, seconds, fraction int, ok bool) {
	parts := strings.Split(strings.ReplaceAll(t, ".", ":"), ":")
	if len(parts) < 3 {
		return 0, 0, 0, false
	}
	var err error
	if minutes, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, 0, false
	}
	if seconds, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, 0, false
	}
	if fraction, err = strconv.Atoi(parts[2]); err != nil {
		return 0, 0, 0, false
	}
	return minutes, seconds, fraction, true
}

// SegmentSeconds converts a relay leg time to "<seconds>.<fraction>" as
// expected by the finish protocol. Malformed input yields "0.00".
func SegmentSeconds(t string) string {
	m, s, f, ok := segment(t)
	if !ok {
		return "0.00"
	}
	return fmt.Sprintf("%d.%02d", m*60+s, f)
}

// SegmentDuration returns the leg time in seconds
func SegmentDuration(t string) (decimal.Decimal, bool) {
	m, s, f, ok := segment(t)
	if !ok {
		return decimal.Zero, false
	}
	return decimal.NewFromInt(int64(m*60 + s)).Add(decimal.New(int64(f), -2)), true
}

// TotalDuration sums the leg times, malformed legs count as zero
func TotalDuration(entries []model.RelayResultEntry) decimal.Decimal {
	sum := decimal.Zero
	for _, e := range entries {
		if d, ok := SegmentDuration(e.Time); ok {
			sum = sum.Add(d)
		}
	}
	return sum
}

func FormatTime(minutes, seconds, hundredths int) string {
	return fmt.Sprintf("%02d:%02d:%02d", minutes, seconds, hundredths)
}

// ParseTime validates a leg time in mm:ss:SS form.
// A two component value mm:ss is accepted with zero hundredths.
func ParseTime(t string) (minutes, seconds, hundredths int, err error) {
	parts := strings.Split(strings.ReplaceAll(t, ".", ":"), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, 0, 0, ErrInvalidTime
	}
	vals := make([]int, 3)
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 {
			return 0, 0, 0, ErrInvalidTime
		}
		vals[i] = v
	}
	if vals[0] > 59 || vals[1] > 59 || vals[2] > 99 {
		return 0, 0, 0, ErrInvalidTime
	}
	return vals[0], vals[1], vals[2], nil
}

// NormalizeTime parses t and renders it in canonical mm:ss:SS form
func NormalizeTime(t string) (string, error) {
	m, s, h, err := ParseTime(t)
	if err != nil {
		return "", err
	}
	return FormatTime(m, s, h), nil
}

// ParseDistance reads a distance like "50 м" or "50м" as meters.
// Unparsable input yields 0.
func ParseDistance(s string) int {
	n, _ := DistanceOf(s)
	return n
}

// DistanceOf is ParseDistance with a flag telling whether s was a distance
func DistanceOf(s string) (meters int, ok bool) {
	s = strings.ReplaceAll(s, " м", "")
	s = strings.ReplaceAll(s, "м", "")
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return n, true
}
