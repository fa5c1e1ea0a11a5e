// Package research fans a user's growth question out to multiple search
// providers concurrently, absorbs individual provider failures, and
// synthesizes the surviving insights into a single ranked result. Results are
// cached by content fingerprint so identical questions inside the TTL window
// never trigger a second fan-out.
package research

import (
	"encoding/json"
	"time"
)

// Insight is one normalized finding from a research provider.
type Insight struct {
	Provider    string          `json:"provider"`
	Query       string          `json:"query"`
	Summary     string          `json:"summary"`
	Confidence  float64         `json:"confidence"`
	RetrievedAt time.Time       `json:"retrieved_at"`
	Raw         json.RawMessage `json:"raw,omitempty"`
}

// Result is the synthesized output of one research fan-out. Insights are
// ordered highest effective confidence first. FromCache is set on cache hits
// and never serialized into the cache itself.
type Result struct {
	Fingerprint string    `json:"fingerprint"`
	Insights    []Insight `json:"insights"`
	Degraded    bool      `json:"degraded"`
	Summary     string    `json:"summary"`
	Confidence  float64   `json:"confidence"`
	FromCache   bool      `json:"-"`
}
