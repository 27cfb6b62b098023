package model

import "strings"

// Corroboration statuses an analyst may assign to an evidence chain.
const (
	StatusCorroborated          = "corroborated"
	StatusPartiallyCorroborated = "partially_corroborated"
	StatusUncorroborated        = "uncorroborated"
	StatusContradicted          = "contradicted"
)

// CorroborationStatuses is the closed set of allowed status values.
var CorroborationStatuses = map[string]bool{
	StatusCorroborated:          true,
	StatusPartiallyCorroborated: true,
	StatusUncorroborated:        true,
	StatusContradicted:          true,
}

// MatchTypes is the closed vocabulary for how one hop links two entities.
// Compound types are written with "+" (e.g. "fuzzy+address-based") and
// validated component by component.
var MatchTypes = map[string]bool{
	"exact":         true,
	"fuzzy":         true,
	"address-based": true,
	"ein":           true,
	"phone":         true,
	"email":         true,
}

// ValidMatchType reports whether s is a known match type or a "+"-joined
// compound of known match types. Empty components are invalid.
func ValidMatchType(s string) bool {
	if s == "" {
		return false
	}
	for _, part := range strings.Split(s, "+") {
		if !MatchTypes[part] {
			return false
		}
	}
	return true
}

// Hop is one directed link in an evidence chain.
type Hop struct {
	FromEntity  string   `json:"from_entity"`
	FromDataset string   `json:"from_dataset"`
	ToEntity    string   `json:"to_entity"`
	ToDataset   string   `json:"to_dataset"`
	MatchType   string   `json:"match_type"`
	MatchScore  *float64 `json:"match_score,omitempty"` // Absent means unknown, scored as 0
	FromRecord  string   `json:"from_record,omitempty"`
	ToRecord    string   `json:"to_record,omitempty"`
	Note        string   `json:"note,omitempty"`
}

// EvidenceChain is the typed view of one analyst-authored chain, built
// by a tolerant decoder. Validation and rewriting work on the raw JSON
// object so unknown fields survive; this view exists for the scorer.
type EvidenceChain struct {
	ID                 string   `json:"id,omitempty"`
	Claim              string   `json:"claim"`
	Hops               []Hop    `json:"hops"`
	Corroboration      string   `json:"corroboration,omitempty"`
	IndependentSources int      `json:"independent_sources,omitempty"`
	LinkStrength       *float64 `json:"link_strength,omitempty"`
	Confidence         Tier     `json:"confidence,omitempty"`
	Basis              string   `json:"confidence_basis,omitempty"`
}

// MinHopScore returns the weakest hop score; absent scores count as 0.
// A chain with no hops scores 0.
func (c *EvidenceChain) MinHopScore() float64 {
	if len(c.Hops) == 0 {
		return 0
	}
	min := 1.0
	for _, h := range c.Hops {
		s := 0.0
		if h.MatchScore != nil {
			s = *h.MatchScore
		}
		if s < min {
			min = s
		}
	}
	return min
}
