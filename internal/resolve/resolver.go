package resolve

import (
	"context"
	"fmt"
	"strings"

	"github.com/mtautner/dossier/internal/dataset"
	"github.com/mtautner/dossier/internal/match"
	"github.com/mtautner/dossier/internal/model"
	"github.com/mtautner/dossier/internal/normalize"
	"github.com/mtautner/dossier/internal/worker"
)

// Options tune one resolution run.
type Options struct {
	// Threshold is the minimum similarity for two records to merge,
	// in (0,1].
	Threshold float64

	// NameColumns overrides name-column detection when non-empty.
	NameColumns []string

	// Workers sizes the block-scoring pool.
	Workers int
}

// Result is the outcome of one resolution run.
type Result struct {
	Entities []model.CanonicalEntity
	Datasets []string // datasets that contributed records, input order
	Records  int      // records that entered clustering
	Pairs    int      // candidate pairs scored
	Merges   int      // pairs at or above threshold
	Warnings []string
}

// Resolver clusters name mentions across datasets into canonical
// entities: normalize, block, score candidate pairs, union, build.
type Resolver struct {
	norm normalize.Normalizer
	opts Options
}

// NewResolver creates a resolver on the given normalizer.
func NewResolver(n normalize.Normalizer, opts Options) (*Resolver, error) {
	if opts.Threshold <= 0 || opts.Threshold > 1 {
		return nil, fmt.Errorf("threshold %v out of range (0,1]", opts.Threshold)
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Resolver{norm: n, opts: opts}, nil
}

// Resolve runs the full pipeline over the loaded datasets. Identical
// input always produces identical entities: block scoring may run on
// several workers, but merges apply in block order and every tie-break
// downstream is input-derived.
func (r *Resolver) Resolve(datasets []*dataset.Dataset) (*Result, error) {
	res := &Result{}

	records := r.collect(datasets, res)
	res.Records = len(records)
	if len(records) == 0 {
		return res, nil
	}

	keys := make([]string, len(records))
	for i, rec := range records {
		keys[i] = rec.Key
	}

	ix := match.BuildIndex(keys)
	uf := match.NewUnionFind(len(records))

	merged := r.scoreBlocks(ix, keys, res)
	for _, pair := range merged {
		uf.Union(pair[0], pair[1])
		res.Merges++
	}

	res.Entities = BuildEntities(uf.Clusters(), records, keys)
	return res, nil
}

// collect flattens datasets into EntityRecords with normalized keys.
// Datasets without a recognizable name column are skipped with a
// warning; rows with a blank name cannot resolve and are not loaded.
func (r *Resolver) collect(datasets []*dataset.Dataset, res *Result) []model.EntityRecord {
	var records []model.EntityRecord

	for _, ds := range datasets {
		res.Warnings = append(res.Warnings, ds.Warnings...)

		nameCol, ok := dataset.PickNameColumn(ds.Headers, r.opts.NameColumns)
		if !ok {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("%s: no name column among %v, dataset skipped", ds.Source, ds.Headers))
			continue
		}

		skipped := 0
		contributed := false
		for _, rec := range ds.Records {
			name := strings.TrimSpace(rec.Fields[nameCol])
			if name == "" {
				skipped++
				continue
			}

			extra := make(map[string]string, len(rec.Fields))
			for k, v := range rec.Fields {
				if k != nameCol && v != "" {
					extra[k] = v
				}
			}
			records = append(records, model.EntityRecord{
				Index:    len(records),
				Name:     name,
				Key:      r.norm.Normalize(name),
				Dataset:  ds.Name,
				Source:   ds.Source,
				Location: rec.Location,
				Extra:    extra,
			})
			contributed = true
		}

		if skipped > 0 {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("%s: %d records without a name", ds.Source, skipped))
		}
		if contributed {
			res.Datasets = append(res.Datasets, ds.Name)
		}
	}
	return records
}

// blockJob scores every candidate pair one block owns.
type blockJob struct {
	block     int
	ix        *match.BlockIndex
	keys      []string
	threshold float64
}

// blockResult carries the merges found in one block.
type blockResult struct {
	block  int
	pairs  int
	merges [][2]int
}

func (r *blockResult) GetError() error { return nil }

func (j *blockJob) Execute(_ context.Context) worker.Result {
	out := &blockResult{block: j.block}
	j.ix.PairsFor(j.block, func(i, k int) {
		out.pairs++
		if match.Similarity(j.keys[i], j.keys[k], j.threshold) >= j.threshold {
			out.merges = append(out.merges, [2]int{i, k})
		}
	})
	return out
}

// scoreBlocks fans block scoring out over the pool and returns all
// merge pairs ordered by block, then pair order within the block.
func (r *Resolver) scoreBlocks(ix *match.BlockIndex, keys []string, res *Result) [][2]int {
	blocks := ix.Len()
	if blocks == 0 {
		return nil
	}

	pool := worker.NewPool(r.opts.Workers, blocks)
	pool.Start()
	for b := 0; b < blocks; b++ {
		pool.Submit(&blockJob{block: b, ix: ix, keys: keys, threshold: r.opts.Threshold})
	}

	results := pool.Wait()
	byBlock := make([]*blockResult, blocks)
	for _, raw := range results {
		br := raw.(*blockResult)
		byBlock[br.block] = br
	}

	var merged [][2]int
	for _, br := range byBlock {
		if br == nil {
			continue
		}
		res.Pairs += br.pairs
		merged = append(merged, br.merges...)
	}
	return merged
}
