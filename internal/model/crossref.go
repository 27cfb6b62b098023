package model

// PairComparison is the field-level comparison between one unordered pair
// of datasets an entity appears in.
type PairComparison struct {
	DatasetA       string          `json:"dataset_a"`
	DatasetB       string          `json:"dataset_b"`
	MatchingFields map[string]bool `json:"matching_fields"` // field name -> values agree (case/whitespace-insensitive)
	ExactMatches   int             `json:"exact_matches"`   // Count of true entries in MatchingFields
	CommonFields   int             `json:"common_fields"`   // Count of fields present on both sides
}

// CrossReference links one canonical entity across the datasets it appears
// in. Fully derived; recomputed from scratch each run.
type CrossReference struct {
	EntityID     string           `json:"entity_id"`
	EntityName   string           `json:"entity_name"`
	Datasets     []string         `json:"datasets"`      // Sorted distinct datasets
	RecordCounts map[string]int   `json:"record_counts"` // Records per dataset
	Pairs        []PairComparison `json:"pairs"`
	Confidence   Tier             `json:"confidence"`
	Basis        string           `json:"confidence_basis"`
}

// MatchRate returns exact field matches over all compared fields across
// every dataset pair, or 0 when no fields were comparable anywhere.
func (x *CrossReference) MatchRate() float64 {
	exact, common := 0, 0
	for _, p := range x.Pairs {
		exact += p.ExactMatches
		common += p.CommonFields
	}
	if common == 0 {
		return 0
	}
	return float64(exact) / float64(common)
}
