package score

import (
	"fmt"
	"time"

	"github.com/mtautner/dossier/internal/chains"
	"github.com/mtautner/dossier/internal/dataset"
	"github.com/mtautner/dossier/internal/model"
)

// Scorer applies the authoritative tier rules to previously produced
// artifacts. Scoring the same input twice yields the same tiers and
// basis strings and reports no further changes.
type Scorer struct {
	runID string
	at    time.Time
}

// NewScorer creates a scorer stamping changes with the given run id.
func NewScorer(runID string) *Scorer {
	return &Scorer{runID: runID, at: time.Now().UTC()}
}

// RescoreEntities re-derives every entity tier from hard-identifier
// signals and name similarity, mutating the entities in place.
func (s *Scorer) RescoreEntities(entities []model.CanonicalEntity, datasets []*dataset.Dataset) ([]model.TierChange, []string) {
	byName := make(map[string]*dataset.Dataset, len(datasets))
	for _, ds := range datasets {
		byName[ds.Name] = ds
	}

	var changes []model.TierChange
	var warnings []string
	for i := range entities {
		e := &entities[i]
		sources, missed := fieldSources(e, byName)
		warnings = append(warnings, missed...)

		tier, basis := EntityTier(e, DetectSignals(sources))
		if tier != e.Confidence {
			changes = append(changes, s.change("entity", e.ID, e.Name, e.Confidence, tier, basis))
		}
		e.Confidence, e.Basis = tier, basis
	}
	return changes, warnings
}

// fieldSources re-locates the entity's records so the scorer can read
// their identifier fields.
func fieldSources(e *model.CanonicalEntity, byName map[string]*dataset.Dataset) ([]FieldSource, []string) {
	var sources []FieldSource
	var missed []string
	for _, v := range e.Variants {
		ds, ok := byName[v.Dataset]
		if !ok {
			missed = append(missed, fmt.Sprintf("%s: dataset %s not loaded", e.ID, v.Dataset))
			continue
		}
		rec, ok := ds.RecordAt(v.Location)
		if !ok {
			missed = append(missed, fmt.Sprintf("%s: record %s %s not found", e.ID, v.Source, v.Location))
			continue
		}
		sources = append(sources, FieldSource{Dataset: v.Dataset, Fields: rec.Fields})
	}
	return sources, missed
}

// RescoreCrossRefs re-derives every cross-reference tier in place.
func (s *Scorer) RescoreCrossRefs(refs []model.CrossReference) []model.TierChange {
	var changes []model.TierChange
	for i := range refs {
		r := &refs[i]
		tier, basis := CrossRefTier(r)
		if tier != r.Confidence {
			changes = append(changes, s.change("cross_reference", r.EntityID, r.EntityName, r.Confidence, tier, basis))
		}
		r.Confidence, r.Basis = tier, basis
	}
	return changes
}

// RescoreChainFile re-derives the tier of every chain in one findings
// file, updating the raw objects so a rewrite persists them. The
// caller decides whether to save.
func (s *Scorer) RescoreChainFile(f *chains.File) []model.TierChange {
	var changes []model.TierChange
	for i, raw := range f.Chains {
		c := chains.Decode(raw)
		tier, basis := ChainTier(&c)
		if tier != c.Confidence {
			changes = append(changes, s.change("chain", f.ChainID(i), c.Claim, c.Confidence, tier, basis))
		}
		raw["confidence"] = string(tier)
		raw["confidence_basis"] = basis
	}
	return changes
}

func (s *Scorer) change(kind, id, name string, from, to model.Tier, basis string) model.TierChange {
	return model.TierChange{
		RunID:    s.runID,
		Kind:     kind,
		ID:       id,
		Name:     name,
		OldTier:  from,
		NewTier:  to,
		Basis:    basis,
		ScoredAt: s.at,
	}
}
