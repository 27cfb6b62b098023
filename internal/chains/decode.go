package chains

import (
	"encoding/json"

	"github.com/mtautner/dossier/internal/model"
)

// Decode builds the typed view of a raw chain object for scoring.
// It is deliberately forgiving: missing or mistyped fields decode to
// zero values, because rejecting them is the validator's job.
func Decode(raw map[string]any) model.EvidenceChain {
	c := model.EvidenceChain{
		ID:                 str(raw["id"]),
		Claim:              str(raw["claim"]),
		Corroboration:      corroboration(raw),
		IndependentSources: independentSources(raw),
		LinkStrength:       num(raw["link_strength"]),
	}
	if tier, err := model.ParseTier(str(raw["confidence"])); err == nil {
		c.Confidence = tier
	}
	c.Basis = str(raw["confidence_basis"])

	if arr, ok := raw["hops"].([]any); ok {
		for _, el := range arr {
			h, ok := el.(map[string]any)
			if !ok {
				c.Hops = append(c.Hops, model.Hop{})
				continue
			}
			c.Hops = append(c.Hops, model.Hop{
				FromEntity:  str(h["from_entity"]),
				FromDataset: str(h["from_dataset"]),
				ToEntity:    str(h["to_entity"]),
				ToDataset:   str(h["to_dataset"]),
				MatchType:   str(h["match_type"]),
				MatchScore:  num(h["match_score"]),
				FromRecord:  str(h["from_record"]),
				ToRecord:    str(h["to_record"]),
				Note:        str(h["note"]),
			})
		}
	}
	return c
}

// corroboration accepts the field under its common spellings.
func corroboration(raw map[string]any) string {
	for _, key := range []string{"corroboration", "corroboration_status", "status"} {
		if s := str(raw[key]); s != "" {
			return s
		}
	}
	return ""
}

// independentSources accepts either a count or a list of sources.
func independentSources(raw map[string]any) int {
	switch v := raw["independent_sources"].(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	case float64:
		return int(v)
	case []any:
		return len(v)
	}
	return 0
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

// num returns a float pointer for numeric values and nil for anything
// else, keeping absent distinguishable from zero.
func num(v any) *float64 {
	switch n := v.(type) {
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return &f
		}
	case float64:
		return &n
	}
	return nil
}
