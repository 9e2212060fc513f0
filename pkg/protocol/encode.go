package protocol

import (
	"encoding/json"

	"github.com/mpapenbr/swimprotocol/pkg/model"
)

// Encode writes the canonical snapshot of p.
// Identities and their sources are included so a later Decode restores them.
func Encode(p *model.Protocol) ([]byte, error) {
	return json.Marshal(p)
}
