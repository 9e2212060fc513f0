package client

import (
	"fmt"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

type (
	// Stats are reported by the server on a successful submit
	Stats struct {
		Processed  int
		Individual int
		Relay      int
	}
	SubmitResult struct {
		Submitted int    // number of entries sent
		Stats     *Stats // nil if the server did not report statistics
	}
)

var (
	processedPath  = jp.MustParseString("$.data.processed_count")
	individualPath = jp.MustParseString("$.data.individual_count")
	relayPath      = jp.MustParseString("$.data.relay_count")
)

// Message is the text shown to the user after a successful submit
func (r *SubmitResult) Message() string {
	if r.Stats != nil {
		return fmt.Sprintf("submitted %d results (individual: %d, relay: %d)",
			r.Stats.Processed, r.Stats.Individual, r.Stats.Relay)
	}
	return fmt.Sprintf("submitted %d results", r.Submitted)
}

// extractStats requires all three counters to be integers
func extractStats(body []byte) *Stats {
	doc, err := oj.Parse(body)
	if err != nil {
		return nil
	}
	var ret Stats
	for _, e := range []struct {
		path jp.Expr
		dst  *int
	}{
		{processedPath, &ret.Processed},
		{individualPath, &ret.Individual},
		{relayPath, &ret.Relay},
	} {
		v, ok := e.path.First(doc).(int64)
		if !ok {
			return nil
		}
		*e.dst = int(v)
	}
	return &ret
}
