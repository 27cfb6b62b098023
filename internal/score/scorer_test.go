package score

import (
	"strings"
	"testing"

	"github.com/mtautner/dossier/internal/chains"
	"github.com/mtautner/dossier/internal/dataset"
	"github.com/mtautner/dossier/internal/model"
	"github.com/mtautner/dossier/internal/normalize"
	"github.com/mtautner/dossier/internal/resolve"
)

func fptr(v float64) *float64 { return &v }

func scoredEntity(sources []string, sims ...float64) model.CanonicalEntity {
	e := model.CanonicalEntity{ID: "ent_0001", Name: "Acme Corp", Sources: sources}
	for _, s := range sims {
		e.Variants = append(e.Variants, model.Variant{Name: "Acme Corp", Similarity: s})
	}
	return e
}

func TestDetectSignals_HardSignal(t *testing.T) {
	sig := DetectSignals([]FieldSource{
		{Dataset: "registry", Fields: map[string]string{"EIN": "12-3456789"}},
		{Dataset: "sanctions", Fields: map[string]string{"ein": " 12-3456789 "}},
	})
	if !sig.Hard || sig.HardField != "ein" {
		t.Errorf("Expected hard signal on ein, got %+v", sig)
	}
	if sig.Disqualified {
		t.Errorf("Expected no disqualifier, got %+v", sig)
	}
}

func TestDetectSignals_SameDatasetRecurrenceIsNotHard(t *testing.T) {
	sig := DetectSignals([]FieldSource{
		{Dataset: "registry", Fields: map[string]string{"ein": "12-3456789"}},
		{Dataset: "registry", Fields: map[string]string{"ein": "12-3456789"}},
	})
	if sig.Hard {
		t.Error("A value recurring within one dataset must not count as a hard signal")
	}
}

func TestDetectSignals_Disqualifier(t *testing.T) {
	sig := DetectSignals([]FieldSource{
		{Dataset: "registry", Fields: map[string]string{"ein": "12-3456789"}},
		{Dataset: "sanctions", Fields: map[string]string{"ein": "98-7654321"}},
	})
	if !sig.Disqualified || sig.DisqualifiedField != "ein" {
		t.Errorf("Expected ein disqualifier, got %+v", sig)
	}
}

func TestDetectSignals_EmptyValuesIgnored(t *testing.T) {
	sig := DetectSignals([]FieldSource{
		{Dataset: "registry", Fields: map[string]string{"phone": "+49 30 1234"}},
		{Dataset: "sanctions", Fields: map[string]string{"phone": ""}},
	})
	if sig.Hard || sig.Disqualified {
		t.Errorf("Empty values must not produce signals, got %+v", sig)
	}
}

func TestEntityTier_Rules(t *testing.T) {
	cases := []struct {
		name string
		e    model.CanonicalEntity
		sig  Signals
		want model.Tier
	}{
		{
			"disqualifier overrides perfect similarity",
			scoredEntity([]string{"a", "b", "c"}, 1.0, 1.0, 1.0),
			Signals{Hard: true, HardField: "ein", Disqualified: true, DisqualifiedField: "ein"},
			model.TierUnresolved,
		},
		{
			"hard signal confirms",
			scoredEntity([]string{"a", "b"}, 0.86, 0.80),
			Signals{Hard: true, HardField: "ein"},
			model.TierConfirmed,
		},
		{
			"high average confirms",
			scoredEntity([]string{"a", "b"}, 0.95, 0.90),
			Signals{},
			model.TierConfirmed,
		},
		{
			"two datasets alone are probable",
			scoredEntity([]string{"a", "b"}, 0.80, 0.78),
			Signals{},
			model.TierProbable,
		},
		{
			"single-dataset variants are possible",
			scoredEntity([]string{"a"}, 0.95, 0.95),
			Signals{},
			model.TierPossible,
		},
		{
			"lone record stays unresolved",
			scoredEntity([]string{"a"}, 1.0),
			Signals{},
			model.TierUnresolved,
		},
	}
	for _, tc := range cases {
		got, basis := EntityTier(&tc.e, tc.sig)
		if got != tc.want {
			t.Errorf("%s: expected %s, got %s (%s)", tc.name, tc.want, got, basis)
		}
	}
}

func TestCrossRefTier_Rules(t *testing.T) {
	ref := func(datasets int, exact, common int) model.CrossReference {
		r := model.CrossReference{}
		for i := 0; i < datasets; i++ {
			r.Datasets = append(r.Datasets, string(rune('a'+i)))
		}
		r.Pairs = []model.PairComparison{{ExactMatches: exact, CommonFields: common}}
		return r
	}

	cases := []struct {
		name string
		r    model.CrossReference
		want model.Tier
	}{
		{"three datasets, half matching", ref(3, 3, 6), model.TierConfirmed},
		{"two datasets, moderate rate", ref(2, 3, 10), model.TierProbable},
		{"two datasets, weak rate", ref(2, 1, 5), model.TierPossible},
		{"two datasets, nothing comparable", ref(2, 0, 0), model.TierPossible},
		{"one dataset", ref(1, 5, 5), model.TierUnresolved},
	}
	for _, tc := range cases {
		got, basis := CrossRefTier(&tc.r)
		if got != tc.want {
			t.Errorf("%s: expected %s, got %s (%s)", tc.name, tc.want, got, basis)
		}
	}
}

func TestChainTier_Rules(t *testing.T) {
	chain := func(status string, indep int, scores ...*float64) model.EvidenceChain {
		c := model.EvidenceChain{Corroboration: status, IndependentSources: indep}
		for _, s := range scores {
			c.Hops = append(c.Hops, model.Hop{MatchScore: s})
		}
		return c
	}

	cases := []struct {
		name string
		c    model.EvidenceChain
		want model.Tier
	}{
		{
			"contradicted overrides strong links",
			chain(model.StatusContradicted, 3, fptr(0.95), fptr(0.9)),
			model.TierUnresolved,
		},
		{
			"corroborated with strong links confirms",
			chain(model.StatusCorroborated, 2, fptr(0.9), fptr(0.88)),
			model.TierConfirmed,
		},
		{
			"corroborated with weak links is probable",
			chain(model.StatusCorroborated, 2, fptr(0.8)),
			model.TierProbable,
		},
		{
			"independent sources without corroboration are probable",
			chain(model.StatusUncorroborated, 2, fptr(0.75)),
			model.TierProbable,
		},
		{
			"short chain with fair links is possible",
			chain("", 0, fptr(0.6), fptr(0.58)),
			model.TierPossible,
		},
		{
			"long chain never rises above unresolved on link strength alone",
			chain("", 0, fptr(0.9), fptr(0.9), fptr(0.9), fptr(0.9)),
			model.TierUnresolved,
		},
		{
			"scoreless hop counts as zero",
			chain(model.StatusUncorroborated, 0, nil, fptr(0.9)),
			model.TierUnresolved,
		},
	}
	for _, tc := range cases {
		got, basis := ChainTier(&tc.c)
		if got != tc.want {
			t.Errorf("%s: expected %s, got %s (%s)", tc.name, tc.want, got, basis)
		}
	}
}

func conflictFixture(withConflict bool) ([]model.CanonicalEntity, []*dataset.Dataset) {
	registry := &dataset.Dataset{
		Name: "registry", Source: "registry.csv", Headers: []string{"name", "ein"},
		Records: []dataset.Record{
			{Location: "row:2", Fields: map[string]string{"name": "Acme Corp", "ein": "12-3456789"}},
		},
	}
	sanctions := &dataset.Dataset{
		Name: "sanctions", Source: "sanctions.csv", Headers: []string{"name", "ein"},
		Records: []dataset.Record{
			{Location: "row:2", Fields: map[string]string{"name": "ACME CORPORATION", "ein": "12-3456789"}},
			{Location: "row:3", Fields: map[string]string{"name": "Acme Corp", "ein": "98-7654321"}},
		},
	}

	e := model.CanonicalEntity{
		ID: "ent_0001", Name: "Acme Corp",
		Sources:    []string{"registry", "sanctions"},
		Confidence: model.TierConfirmed,
		Variants: []model.Variant{
			{Name: "Acme Corp", Dataset: "registry", Source: "registry.csv", Location: "row:2", Similarity: 1.0},
			{Name: "ACME CORPORATION", Dataset: "sanctions", Source: "sanctions.csv", Location: "row:2", Similarity: 1.0},
		},
	}
	if withConflict {
		e.Variants = append(e.Variants, model.Variant{
			Name: "Acme Corp", Dataset: "sanctions", Source: "sanctions.csv", Location: "row:3", Similarity: 1.0,
		})
	}
	return []model.CanonicalEntity{e}, []*dataset.Dataset{registry, sanctions}
}

func TestScorer_RescoreEntities_DisqualifierForcesUnresolved(t *testing.T) {
	entities, datasets := conflictFixture(true)
	scorer := NewScorer("run_1")

	changes, warnings := scorer.RescoreEntities(entities, datasets)
	if len(warnings) != 0 {
		t.Errorf("Expected no warnings, got %v", warnings)
	}
	if len(changes) != 1 {
		t.Fatalf("Expected 1 change, got %d", len(changes))
	}

	ch := changes[0]
	if ch.OldTier != model.TierConfirmed || ch.NewTier != model.TierUnresolved {
		t.Errorf("Expected confirmed -> unresolved, got %s -> %s", ch.OldTier, ch.NewTier)
	}
	if ch.Kind != "entity" || ch.RunID != "run_1" {
		t.Errorf("Unexpected change metadata: %+v", ch)
	}
	if entities[0].Confidence != model.TierUnresolved {
		t.Errorf("Expected entity forced to unresolved, got %s", entities[0].Confidence)
	}
	if !strings.Contains(entities[0].Basis, "conflicting ein") {
		t.Errorf("Expected the basis to name the conflicting field, got %q", entities[0].Basis)
	}
}

func TestScorer_RescoreEntities_HardSignalConfirms(t *testing.T) {
	entities, datasets := conflictFixture(false)
	scorer := NewScorer("run_1")

	changes, _ := scorer.RescoreEntities(entities, datasets)
	// Already confirmed; the tier holds, only the basis is refreshed.
	if len(changes) != 0 {
		t.Errorf("Expected no tier change, got %v", changes)
	}
	if entities[0].Confidence != model.TierConfirmed {
		t.Errorf("Expected confirmed, got %s", entities[0].Confidence)
	}
	if !strings.Contains(entities[0].Basis, "matching ein") {
		t.Errorf("Expected hard-signal basis, got %q", entities[0].Basis)
	}
}

func TestScorer_RescoreEntities_Idempotent(t *testing.T) {
	entities, datasets := conflictFixture(true)
	scorer := NewScorer("run_1")

	first, _ := scorer.RescoreEntities(entities, datasets)
	if len(first) == 0 {
		t.Fatal("Expected the first pass to change the tier")
	}
	tier, basis := entities[0].Confidence, entities[0].Basis

	second, _ := scorer.RescoreEntities(entities, datasets)
	if len(second) != 0 {
		t.Errorf("Expected no changes on the second pass, got %v", second)
	}
	if entities[0].Confidence != tier || entities[0].Basis != basis {
		t.Error("Re-scoring identical input must reproduce tier and basis")
	}
}

func TestScorer_RescoreEntities_AfterResolve(t *testing.T) {
	registry := &dataset.Dataset{
		Name: "registry", Source: "registry.csv", Headers: []string{"name", "ein"},
		Records: []dataset.Record{
			{Location: "row:2", Fields: map[string]string{"name": "Acme Corp", "ein": "12-3456789"}},
		},
	}
	sanctions := func(withConflict bool) *dataset.Dataset {
		ds := &dataset.Dataset{
			Name: "sanctions", Source: "sanctions.csv", Headers: []string{"name", "ein"},
			Records: []dataset.Record{
				{Location: "row:2", Fields: map[string]string{"name": "ACME CORPORATION", "ein": "12-3456789"}},
			},
		}
		if withConflict {
			ds.Records = append(ds.Records, dataset.Record{
				Location: "row:3", Fields: map[string]string{"name": "Acme Corp", "ein": "98-7654321"},
			})
		}
		return ds
	}

	r, err := resolve.NewResolver(normalize.NewBasic(), resolve.Options{Threshold: 0.85, Workers: 2})
	if err != nil {
		t.Fatalf("NewResolver failed: %v", err)
	}
	scorer := NewScorer("run_1")

	// Agreeing identifiers: the names merge and the shared EIN confirms.
	agreeing := []*dataset.Dataset{registry, sanctions(false)}
	res, err := r.Resolve(agreeing)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(res.Entities) != 1 {
		t.Fatalf("Expected one merged entity, got %d", len(res.Entities))
	}
	if _, warnings := scorer.RescoreEntities(res.Entities, agreeing); len(warnings) != 0 {
		t.Errorf("Expected no warnings, got %v", warnings)
	}
	if res.Entities[0].Confidence != model.TierConfirmed {
		t.Errorf("Expected confirmed, got %s (%s)", res.Entities[0].Confidence, res.Entities[0].Basis)
	}
	if !strings.Contains(res.Entities[0].Basis, "matching ein") {
		t.Errorf("Expected hard-signal basis, got %q", res.Entities[0].Basis)
	}

	// A third record with the same name but a different EIN rides the
	// name merge into the cluster; the conflict overrides everything.
	conflicting := []*dataset.Dataset{registry, sanctions(true)}
	res, err = r.Resolve(conflicting)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(res.Entities) != 1 {
		t.Fatalf("Expected one merged entity, got %d", len(res.Entities))
	}
	if _, warnings := scorer.RescoreEntities(res.Entities, conflicting); len(warnings) != 0 {
		t.Errorf("Expected no warnings, got %v", warnings)
	}
	if res.Entities[0].Confidence != model.TierUnresolved {
		t.Errorf("Expected unresolved, got %s (%s)", res.Entities[0].Confidence, res.Entities[0].Basis)
	}
	if !strings.Contains(res.Entities[0].Basis, "conflicting ein") {
		t.Errorf("Expected the basis to name the conflict, got %q", res.Entities[0].Basis)
	}
}

func TestScorer_RescoreCrossRefs(t *testing.T) {
	refs := []model.CrossReference{
		{
			EntityID: "ent_0001", EntityName: "Acme Corp",
			Datasets:   []string{"registry", "sanctions"},
			Pairs:      []model.PairComparison{{ExactMatches: 2, CommonFields: 2}},
			Confidence: model.TierPossible,
		},
	}
	scorer := NewScorer("run_1")

	changes := scorer.RescoreCrossRefs(refs)
	if len(changes) != 1 || changes[0].NewTier != model.TierProbable {
		t.Fatalf("Expected possible -> probable, got %v", changes)
	}
	if again := scorer.RescoreCrossRefs(refs); len(again) != 0 {
		t.Errorf("Expected idempotent re-scoring, got %v", again)
	}
}

func TestScorer_RescoreChainFile(t *testing.T) {
	f := &chains.File{
		Path:  "findings.json",
		Shape: "array",
		Chains: []map[string]any{
			{
				"id":                  "ch_1",
				"claim":               "shared ownership",
				"confidence":          "possible",
				"corroboration":       "corroborated",
				"independent_sources": float64(2),
				"hops": []any{
					map[string]any{
						"from_entity": "A", "from_dataset": "x",
						"to_entity": "B", "to_dataset": "y",
						"match_type": "ein", "match_score": 0.9,
					},
				},
			},
		},
	}
	scorer := NewScorer("run_1")

	changes := scorer.RescoreChainFile(f)
	if len(changes) != 1 {
		t.Fatalf("Expected 1 change, got %d", len(changes))
	}
	if changes[0].OldTier != model.TierPossible || changes[0].NewTier != model.TierConfirmed {
		t.Errorf("Expected possible -> confirmed, got %s -> %s", changes[0].OldTier, changes[0].NewTier)
	}
	if f.Chains[0]["confidence"] != "confirmed" {
		t.Errorf("Expected the raw object updated, got %v", f.Chains[0]["confidence"])
	}
	if basis, _ := f.Chains[0]["confidence_basis"].(string); !strings.Contains(basis, "corroborated") {
		t.Errorf("Expected a corroboration basis, got %q", basis)
	}

	if again := scorer.RescoreChainFile(f); len(again) != 0 {
		t.Errorf("Expected idempotent re-scoring, got %v", again)
	}
}
