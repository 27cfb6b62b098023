package model

import "time"

// Meta is the run header stamped on every analysis artifact.
type Meta struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Datasets    []string  `json:"datasets"`
	Records     int       `json:"record_count"`
	Threshold   float64   `json:"threshold,omitempty"`
	Warnings    []string  `json:"warnings,omitempty"`
}

// CanonicalArtifact is the on-disk shape of analysis/canonical_entities.json.
type CanonicalArtifact struct {
	Meta     Meta              `json:"meta"`
	Entities []CanonicalEntity `json:"entities"`
}

// CrossRefArtifact is the on-disk shape of analysis/cross_references.json.
type CrossRefArtifact struct {
	Meta        Meta             `json:"meta"`
	MinDatasets int              `json:"min_datasets"`
	References  []CrossReference `json:"cross_references"`
}

// ChainResult is the validation outcome for a single chain.
type ChainResult struct {
	ChainID  string   `json:"chain_id"`
	File     string   `json:"file"`
	Failures []string `json:"failures,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Failed reports whether the chain had at least one hard failure.
func (r *ChainResult) Failed() bool { return len(r.Failures) > 0 }

// ValidationReport is the on-disk shape of analysis/chain_validation.json.
type ValidationReport struct {
	Meta    Meta          `json:"meta"`
	Files   []string      `json:"files"`
	Chains  []ChainResult `json:"chains"`
	Passed  int           `json:"passed"`
	Failed  int           `json:"failed"`
	Warned  int           `json:"warned"`
	Skipped int           `json:"skipped"`
}

// TierChange records one scored object whose tier moved, appended to
// analysis/scoring_log.jsonl.
type TierChange struct {
	RunID    string    `json:"run_id"`
	Kind     string    `json:"kind"` // entity | cross_reference | chain
	ID       string    `json:"id"`
	Name     string    `json:"name,omitempty"`
	OldTier  Tier      `json:"old_tier"`
	NewTier  Tier      `json:"new_tier"`
	Basis    string    `json:"basis"`
	ScoredAt time.Time `json:"scored_at"`
}
