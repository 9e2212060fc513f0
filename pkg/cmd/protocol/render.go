package protocol

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mpapenbr/swimprotocol/pkg/identity"
	"github.com/mpapenbr/swimprotocol/pkg/model"
	"github.com/mpapenbr/swimprotocol/pkg/results"
)

// RenderSaved writes the protocol tree with lane numbers, result keys and
// recorded results
//
//nolint:funlen // nested tree
func RenderSaved(w io.Writer, sp *model.SavedProtocol) error {
	var sb strings.Builder
	p := sp.Protocol
	fmt.Fprintf(&sb, "%s (%s, %s)\n", p.CompetitionName, p.CompetitionDate, p.Location)
	fmt.Fprintf(&sb, "competition %s, saved %s\n", sp.ID, sp.SavedAt.Format(time.RFC3339))

	known := map[string]bool{}
	for _, d := range p.Disciplines {
		fmt.Fprintf(&sb, "\n%s [%s %s]\n", d.Name, d.ID, d.IDSource)
		if d.Description != "" {
			fmt.Fprintf(&sb, "  %s\n", d.Description)
		}
		for _, g := range d.Genders {
			fmt.Fprintf(&sb, "  %s\n", g.Gender)
			for _, a := range g.AgeCategories {
				fmt.Fprintf(&sb, "    %s\n", a.CategoryName)
				for hi, heat := range a.Heats {
					fmt.Fprintf(&sb, "      Heat %d\n", hi+1)
					for li, lane := range heat {
						if lane.IsEmpty() {
							fmt.Fprintf(&sb, "        %d: -\n", li+1)
							continue
						}
						pa := lane.Participant
						key := model.CompositeKey(d.ID, pa.ID)
						known[key] = true
						fmt.Fprintf(&sb, "        %d: %s (%s, %s)", li+1,
							pa.FullName, pa.DateOfBirth, pa.Club)
						if pa.TeamName != nil {
							fmt.Fprintf(&sb, " team %s", *pa.TeamName)
						}
						fmt.Fprintf(&sb, "\n           key %s\n", key)
						if results.IsRelay(d, pa) {
							renderRelay(&sb, sp.RelayResults[key])
						} else if v, ok := sp.ResultTimes[key]; ok {
							fmt.Fprintf(&sb, "           result %s\n", v)
						}
					}
				}
			}
		}
	}

	orphaned := 0
	for key := range sp.ResultTimes {
		if !known[key] {
			orphaned++
		}
	}
	for key := range sp.RelayResults {
		if !known[key] {
			orphaned++
		}
	}
	if orphaned > 0 {
		fmt.Fprintf(&sb, "\n%d stored results do not match any start\n", orphaned)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func renderRelay(sb *strings.Builder, legs []model.RelayResultEntry) {
	if len(legs) == 0 {
		return
	}
	meters := 0
	for _, e := range legs {
		meters += e.Distance
		fmt.Fprintf(sb, "           leg %s %d m %s\n", e.ID, e.Distance, e.Time)
	}
	fmt.Fprintf(sb, "           total %d m %s s\n",
		meters, results.TotalDuration(legs).StringFixed(2))
}

// RenderCollisions reports participants sharing a derived id.
// Returns the number of collisions.
func RenderCollisions(w io.Writer, p *model.Protocol) (int, error) {
	collisions := identity.Collisions(p)
	var sb strings.Builder
	if len(collisions) == 0 {
		sb.WriteString("no participant id collisions\n")
	}
	for _, c := range collisions {
		fmt.Fprintf(&sb, "id %s shared by: %s\n", c.ID, strings.Join(c.Names, ", "))
	}
	_, err := io.WriteString(w, sb.String())
	return len(collisions), err
}
