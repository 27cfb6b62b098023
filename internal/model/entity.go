package model

// EntityRecord is one observed name mention loaded from a dataset file.
// Records are immutable after loading and live only for a single run.
type EntityRecord struct {
	Index    int               `json:"-"`                  // Dense load order index, used by the clusterer
	Name     string            `json:"name"`               // Raw name as it appears in the source
	Key      string            `json:"key"`                // Normalized comparison key
	Dataset  string            `json:"dataset"`            // Owning dataset identifier (file stem)
	Source   string            `json:"source"`             // Source file name
	Location string            `json:"location"`           // row:N for CSV, JSONPath-like for JSON
	Extra    map[string]string `json:"extra,omitempty"`    // Remaining non-provenance fields on the source record
}

// Variant is one name mention folded into a canonical entity, with enough
// provenance to re-locate the original record.
type Variant struct {
	Name       string  `json:"name"`
	Dataset    string  `json:"dataset"`
	Source     string  `json:"source"`
	Location   string  `json:"location"`
	Similarity float64 `json:"similarity"` // Similarity of this variant's key to the canonical key
}

// CanonicalEntity is the deduplicated representative of one cluster of
// name variants. Confidence and Basis are the only fields mutated after
// construction (by the confidence scorer); a changed input requires a
// full re-run, entities are never incrementally re-clustered.
type CanonicalEntity struct {
	ID         string    `json:"id"`                // Stable within one run (ent_0001, ...)
	Name       string    `json:"name"`              // Most frequent raw name in the cluster
	Variants   []Variant `json:"variants"`          // Ordered by first-seen record index
	Sources    []string  `json:"sources"`           // Sorted distinct dataset identifiers
	Confidence Tier      `json:"confidence"`
	Basis      string    `json:"confidence_basis"`  // Human-readable scoring explanation
}

// AvgSimilarity returns the mean variant-to-canonical similarity.
func (e *CanonicalEntity) AvgSimilarity() float64 {
	if len(e.Variants) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range e.Variants {
		sum += v.Similarity
	}
	return sum / float64(len(e.Variants))
}
