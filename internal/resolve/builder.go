package resolve

import (
	"fmt"
	"sort"

	"github.com/mtautner/dossier/internal/match"
	"github.com/mtautner/dossier/internal/model"
)

// BuildEntities turns clusters of record indexes into canonical
// entities. Clusters arrive ordered by smallest member with members
// ascending, so IDs, variant order, and every tie-break are fixed by
// load order alone.
func BuildEntities(clusters [][]int, records []model.EntityRecord, keys []string) []model.CanonicalEntity {
	entities := make([]model.CanonicalEntity, 0, len(clusters))

	for n, cluster := range clusters {
		name, canonicalKey := canonicalName(cluster, records, keys)

		variants := make([]model.Variant, 0, len(cluster))
		seen := map[string]bool{}
		for _, i := range cluster {
			rec := records[i]
			variants = append(variants, model.Variant{
				Name:       rec.Name,
				Dataset:    rec.Dataset,
				Source:     rec.Source,
				Location:   rec.Location,
				Similarity: match.Similarity(keys[i], canonicalKey, 0),
			})
			seen[rec.Dataset] = true
		}

		sources := make([]string, 0, len(seen))
		for ds := range seen {
			sources = append(sources, ds)
		}
		sort.Strings(sources)

		e := model.CanonicalEntity{
			ID:       fmt.Sprintf("ent_%04d", n+1),
			Name:     name,
			Variants: variants,
			Sources:  sources,
		}
		e.Confidence, e.Basis = initialTier(&e)
		entities = append(entities, e)
	}
	return entities
}

// canonicalName picks the most frequent raw name in the cluster, ties
// broken by earliest record. Returns the name and its normalized key.
func canonicalName(cluster []int, records []model.EntityRecord, keys []string) (string, string) {
	counts := map[string]int{}
	firstAt := map[string]int{}
	for _, i := range cluster {
		name := records[i].Name
		counts[name]++
		if _, ok := firstAt[name]; !ok {
			firstAt[name] = i
		}
	}

	best := ""
	for name, c := range counts {
		if best == "" {
			best = name
			continue
		}
		if c > counts[best] || (c == counts[best] && firstAt[name] < firstAt[best]) {
			best = name
		}
	}
	return best, keys[firstAt[best]]
}

// initialTier assigns the provisional confidence a fresh cluster gets
// before the scorer has seen corroborating fields.
func initialTier(e *model.CanonicalEntity) (model.Tier, string) {
	srcs := len(e.Sources)
	size := len(e.Variants)
	avg := e.AvgSimilarity()

	switch {
	case srcs >= 2 && avg >= 0.85:
		return model.TierConfirmed,
			fmt.Sprintf("%d datasets, avg similarity %.2f", srcs, avg)
	case srcs >= 2 || size >= 3:
		return model.TierProbable,
			fmt.Sprintf("%d datasets, %d variants", srcs, size)
	case size >= 2:
		return model.TierPossible,
			fmt.Sprintf("single dataset, %d variants", size)
	default:
		return model.TierUnresolved, "single record"
	}
}
