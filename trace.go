package prefs

import (
	"encoding/json"
)

// SeedOrigin names the source a binding's seed value came from.
type SeedOrigin string

const (
	// SeedOriginHook marks a seed recovered from the pre-paint hook.
	SeedOriginHook SeedOrigin = "hook"
	// SeedOriginDefault marks a seed that fell back to the descriptor default.
	SeedOriginDefault SeedOrigin = "default"
)

// SeedTrace captures provenance for one binding's seed: the sources
// considered in order and the value that won.
type SeedTrace struct {
	Key     string       `json:"key"`
	Hook    string       `json:"hook"`
	Value   string       `json:"value"`
	Origin  SeedOrigin   `json:"origin"`
	Sources []SeedSource `json:"sources"`
}

// SeedSource details how one candidate source contributed to a seed.
type SeedSource struct {
	Origin   SeedOrigin `json:"origin"`
	Value    string     `json:"value,omitempty"`
	Found    bool       `json:"found"`
	Accepted bool       `json:"accepted"`
	Reason   string     `json:"reason,omitempty"`
}

// ToJSON serialises the trace into JSON for logging or transport helpers.
func (t SeedTrace) ToJSON() ([]byte, error) {
	type alias SeedTrace
	return json.Marshal(alias(t))
}

// SeedTraceFromJSON deserialises a JSON payload that was previously generated
// via ToJSON.
func SeedTraceFromJSON(payload []byte) (SeedTrace, error) {
	type alias SeedTrace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return SeedTrace{}, err
	}
	return SeedTrace(trace), nil
}
