package crossref

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mtautner/dossier/internal/dataset"
	"github.com/mtautner/dossier/internal/model"
	"github.com/mtautner/dossier/internal/score"
)

// Options tune one linking run.
type Options struct {
	// MinDatasets is how many distinct datasets an entity must appear
	// in to be cross-referenced. Defaults to 2.
	MinDatasets int

	// Datasets restricts linking to these dataset names when non-empty.
	Datasets []string

	// NameColumns mirrors the resolver's override so the name column
	// is excluded from field comparison the same way it was excluded
	// from Extra.
	NameColumns []string
}

// Result is the outcome of one linking run.
type Result struct {
	References []model.CrossReference
	Considered int // entities examined
	Warnings   []string
}

// Linker re-locates every variant of multi-dataset entities and
// compares their non-provenance fields across dataset pairs.
type Linker struct {
	opts Options
}

// NewLinker creates a linker with defaults applied.
func NewLinker(opts Options) *Linker {
	if opts.MinDatasets < 1 {
		opts.MinDatasets = 2
	}
	return &Linker{opts: opts}
}

// Link builds cross-references for every entity spanning at least
// MinDatasets distinct datasets. References come out in entity order.
func (l *Linker) Link(entities []model.CanonicalEntity, datasets []*dataset.Dataset) *Result {
	res := &Result{Considered: len(entities)}

	byName := make(map[string]*dataset.Dataset, len(datasets))
	nameCols := make(map[string]string, len(datasets))
	for _, ds := range datasets {
		byName[ds.Name] = ds
		if col, ok := dataset.PickNameColumn(ds.Headers, l.opts.NameColumns); ok {
			nameCols[ds.Name] = col
		}
	}

	var allow map[string]bool
	if len(l.opts.Datasets) > 0 {
		allow = make(map[string]bool, len(l.opts.Datasets))
		for _, name := range l.opts.Datasets {
			allow[name] = true
		}
	}

	for i := range entities {
		ref, warnings := l.link(&entities[i], byName, nameCols, allow)
		res.Warnings = append(res.Warnings, warnings...)
		if ref != nil {
			res.References = append(res.References, *ref)
		}
	}
	return res
}

// link cross-references a single entity, or returns nil when it does
// not span enough datasets.
func (l *Linker) link(e *model.CanonicalEntity, byName map[string]*dataset.Dataset,
	nameCols map[string]string, allow map[string]bool) (*model.CrossReference, []string) {

	var warnings []string

	// Group the entity's relocated records by dataset. An entity seen
	// twice in one dataset still counts that dataset once.
	fields := map[string][]map[string]string{}
	for _, v := range e.Variants {
		if allow != nil && !allow[v.Dataset] {
			continue
		}
		ds, ok := byName[v.Dataset]
		if !ok {
			warnings = append(warnings,
				fmt.Sprintf("%s: dataset %s not loaded, variant at %s skipped", e.ID, v.Dataset, v.Location))
			continue
		}
		rec, ok := ds.RecordAt(v.Location)
		if !ok {
			warnings = append(warnings,
				fmt.Sprintf("%s: record %s %s not found", e.ID, v.Source, v.Location))
			continue
		}
		fields[v.Dataset] = append(fields[v.Dataset], extraFields(rec.Fields, nameCols[v.Dataset]))
	}

	if len(fields) < l.opts.MinDatasets {
		return nil, warnings
	}

	names := make([]string, 0, len(fields))
	counts := make(map[string]int, len(fields))
	for name, recs := range fields {
		names = append(names, name)
		counts[name] = len(recs)
	}
	sort.Strings(names)

	var pairs []model.PairComparison
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			pairs = append(pairs, comparePair(names[i], names[j], fields[names[i]], fields[names[j]]))
		}
	}

	ref := &model.CrossReference{
		EntityID:     e.ID,
		EntityName:   e.Name,
		Datasets:     names,
		RecordCounts: counts,
		Pairs:        pairs,
	}
	ref.Confidence, ref.Basis = score.CrossRefTier(ref)
	return ref, warnings
}

// comparePair computes the common field set between two datasets'
// records and flags, per field, whether any value on one side equals
// any value on the other.
func comparePair(nameA, nameB string, recsA, recsB []map[string]string) model.PairComparison {
	valuesA := valuesByField(recsA)
	valuesB := valuesByField(recsB)

	matching := map[string]bool{}
	exact := 0
	for field, va := range valuesA {
		vb, ok := valuesB[field]
		if !ok {
			continue
		}
		matching[field] = anyOverlap(va, vb)
		if matching[field] {
			exact++
		}
	}

	return model.PairComparison{
		DatasetA:       nameA,
		DatasetB:       nameB,
		MatchingFields: matching,
		ExactMatches:   exact,
		CommonFields:   len(matching),
	}
}

// valuesByField collects the canonical non-empty values each field
// takes across a dataset's records for one entity.
func valuesByField(recs []map[string]string) map[string]map[string]bool {
	out := map[string]map[string]bool{}
	for _, rec := range recs {
		for k, v := range rec {
			c := canon(v)
			if c == "" {
				continue
			}
			if out[k] == nil {
				out[k] = map[string]bool{}
			}
			out[k][c] = true
		}
	}
	return out
}

func anyOverlap(a, b map[string]bool) bool {
	for v := range a {
		if b[v] {
			return true
		}
	}
	return false
}

// extraFields drops the provenance-bearing name column; everything
// else on the record is comparable.
func extraFields(fields map[string]string, nameCol string) map[string]string {
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		if nameCol != "" && k == nameCol {
			continue
		}
		out[k] = v
	}
	return out
}

// canon folds a field value for comparison: lowercase, whitespace
// collapsed and trimmed.
func canon(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
