package score

import (
	"fmt"
	"strings"

	"github.com/mtautner/dossier/internal/model"
)

// HardFields are the structured identifier fields whose cross-dataset
// agreement outweighs name similarity, in reporting order.
var HardFields = []string{"ein", "tin", "phone", "email"}

// FieldSource is one relocated record's fields tagged with the dataset
// it came from.
type FieldSource struct {
	Dataset string
	Fields  map[string]string
}

// Signals summarizes what the hard-identifier fields say about one
// entity's records.
type Signals struct {
	Hard              bool   // same value recurs in ≥2 distinct datasets
	HardField         string // field that produced the hard signal
	Disqualified      bool   // one field carries ≥2 distinct non-empty values
	DisqualifiedField string
}

// DetectSignals scans the entity's records for hard-identifier
// agreement and conflicts. Field names match case-insensitively,
// values compare case/whitespace-insensitively.
func DetectSignals(sources []FieldSource) Signals {
	var sig Signals
	for _, field := range HardFields {
		datasets := map[string]map[string]bool{} // canonical value -> datasets seen in
		for _, src := range sources {
			for k, v := range src.Fields {
				if !strings.EqualFold(k, field) {
					continue
				}
				c := canon(v)
				if c == "" {
					continue
				}
				if datasets[c] == nil {
					datasets[c] = map[string]bool{}
				}
				datasets[c][src.Dataset] = true
			}
		}

		if len(datasets) >= 2 && !sig.Disqualified {
			sig.Disqualified = true
			sig.DisqualifiedField = field
		}
		if !sig.Hard {
			for _, seen := range datasets {
				if len(seen) >= 2 {
					sig.Hard = true
					sig.HardField = field
					break
				}
			}
		}
	}
	return sig
}

// EntityTier scores one canonical entity. A hard disqualifier forces
// unresolved no matter how strong the name evidence is.
func EntityTier(e *model.CanonicalEntity, sig Signals) (model.Tier, string) {
	srcs := len(e.Sources)
	avg := e.AvgSimilarity()

	switch {
	case sig.Disqualified:
		return model.TierUnresolved,
			fmt.Sprintf("conflicting %s values across records", sig.DisqualifiedField)
	case srcs >= 2 && sig.Hard:
		return model.TierConfirmed,
			fmt.Sprintf("%d datasets, matching %s", srcs, sig.HardField)
	case srcs >= 2 && avg >= 0.85:
		return model.TierConfirmed,
			fmt.Sprintf("%d datasets, avg similarity %.2f", srcs, avg)
	case srcs >= 2:
		return model.TierProbable,
			fmt.Sprintf("%d datasets, avg similarity %.2f", srcs, avg)
	case sig.Hard && avg >= 0.70:
		return model.TierProbable,
			fmt.Sprintf("matching %s, avg similarity %.2f", sig.HardField, avg)
	case len(e.Variants) >= 2:
		return model.TierPossible,
			fmt.Sprintf("single dataset, %d name variants", len(e.Variants))
	default:
		return model.TierUnresolved, "single record, no corroboration"
	}
}

// CrossRefTier scores one cross-reference from its dataset spread and
// field match rate.
func CrossRefTier(r *model.CrossReference) (model.Tier, string) {
	n := len(r.Datasets)
	rate := r.MatchRate()

	switch {
	case n >= 3 && rate >= 0.5:
		return model.TierConfirmed,
			fmt.Sprintf("%d datasets, field match rate %.2f", n, rate)
	case n >= 2 && rate >= 0.3:
		return model.TierProbable,
			fmt.Sprintf("%d datasets, field match rate %.2f", n, rate)
	case n >= 2:
		return model.TierPossible,
			fmt.Sprintf("%d datasets, field match rate %.2f", n, rate)
	default:
		return model.TierUnresolved, "fewer than 2 datasets"
	}
}

// ChainTier scores one evidence chain on weakest-link semantics.
// Contradicted chains never rise above unresolved.
func ChainTier(c *model.EvidenceChain) (model.Tier, string) {
	min := c.MinHopScore()
	hops := len(c.Hops)
	indep := c.IndependentSources

	switch {
	case c.Corroboration == model.StatusContradicted:
		return model.TierUnresolved, "contradicted by independent evidence"
	case c.Corroboration == model.StatusCorroborated && indep >= 2 && min >= 0.85:
		return model.TierConfirmed,
			fmt.Sprintf("corroborated by %d independent sources, weakest hop %.2f", indep, min)
	case c.Corroboration == model.StatusCorroborated:
		return model.TierProbable,
			fmt.Sprintf("corroborated, weakest hop %.2f", min)
	case indep >= 2 && min >= 0.70:
		return model.TierProbable,
			fmt.Sprintf("%d independent sources, weakest hop %.2f", indep, min)
	case min >= 0.55 && hops <= 3:
		return model.TierPossible,
			fmt.Sprintf("weakest hop %.2f over %d hops", min, hops)
	default:
		return model.TierUnresolved, "insufficient link strength"
	}
}

// canon folds a field value for comparison: lowercase, whitespace
// collapsed and trimmed.
func canon(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
