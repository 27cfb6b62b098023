package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mtautner/dossier/internal/dataset"
	"github.com/mtautner/dossier/internal/model"
	"github.com/mtautner/dossier/internal/normalize"
	"github.com/mtautner/dossier/internal/resolve"
	"github.com/mtautner/dossier/internal/store"
	"github.com/mtautner/dossier/internal/workspace"
)

var (
	resolveThreshold float64
	resolveColumns   []string
	resolveWorkers   int
	resolveGerman    bool
)

// resolveCmd represents the resolve command
var resolveCmd = &cobra.Command{
	Use:   "resolve <workspace>",
	Short: "Cluster dataset records into canonical entities",
	Long: `Resolve loads every dataset under <workspace>/datasets, normalizes
the name column of each record, and clusters records that plausibly
describe the same real-world entity:
- Normalize names (case, punctuation, legal suffixes, noise words)
- Block candidates so only plausible pairs are compared
- Score pairs through the exact/prefix/edit-distance cascade
- Merge pairs at or above the threshold and build canonical entities

The result is written to <workspace>/analysis/canonical_entities.json.
Malformed rows never abort a run; they are counted and attached to the
artifact metadata as warnings.

Example:
  dossier resolve ./case-042
  dossier resolve ./case-042 --threshold 0.9 --german
  dossier resolve ./case-042 --name-columns firma,name --workers 8`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)

	def := model.DefaultConfig()

	// Matching flags
	resolveCmd.Flags().Float64Var(&resolveThreshold, "threshold", def.Resolver.Threshold, "similarity threshold in (0,1]")
	resolveCmd.Flags().StringSliceVar(&resolveColumns, "name-columns", nil, "comma-separated name column candidates (overrides detection)")
	resolveCmd.Flags().BoolVar(&resolveGerman, "german", false, "use German normalization (umlauts, GmbH/AG suffixes, titles)")

	// Concurrency flags
	resolveCmd.Flags().IntVar(&resolveWorkers, "workers", def.Concurrency.ResolveWorkers, "block-scoring worker count")
}

func runResolve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("threshold") {
		cfg.Resolver.Threshold = resolveThreshold
	}
	if cmd.Flags().Changed("name-columns") {
		cfg.Resolver.NameColumns = resolveColumns
	}
	if cmd.Flags().Changed("german") {
		cfg.Resolver.German = resolveGerman
	}
	if cmd.Flags().Changed("workers") {
		cfg.Concurrency.ResolveWorkers = resolveWorkers
	}

	ws, err := workspace.Init(args[0])
	if err != nil {
		return err
	}

	runID := workspace.NewRunID()
	started := time.Now().UTC()

	datasets, loadWarnings, err := dataset.LoadDir(ws.DatasetsDir())
	if err != nil {
		return fmt.Errorf("load datasets: %w", err)
	}
	if len(datasets) == 0 {
		return fmt.Errorf("no datasets in %s", ws.DatasetsDir())
	}

	if cfg.Output.Verbose {
		for _, ds := range datasets {
			fmt.Fprintf(os.Stderr, "⚙️  Loaded %s: %d records (%s)\n", ds.Source, len(ds.Records), ds.Encoding)
		}
	}

	var norm normalize.Normalizer = normalize.NewBasic()
	if cfg.Resolver.German {
		norm = normalize.NewGerman()
	}

	resolver, err := resolve.NewResolver(norm, resolve.Options{
		Threshold:   cfg.Resolver.Threshold,
		NameColumns: cfg.Resolver.NameColumns,
		Workers:     cfg.Concurrency.ResolveWorkers,
	})
	if err != nil {
		return err
	}

	result, err := resolver.Resolve(datasets)
	if err != nil {
		return fmt.Errorf("resolve: %w", err)
	}

	warnings := append(loadWarnings, result.Warnings...)
	artifact := &model.CanonicalArtifact{
		Meta: model.Meta{
			RunID:       runID,
			GeneratedAt: time.Now().UTC(),
			Datasets:    result.Datasets,
			Records:     result.Records,
			Threshold:   cfg.Resolver.Threshold,
			Warnings:    warnings,
		},
		Entities: result.Entities,
	}
	if err := ws.WriteEntities(artifact); err != nil {
		return err
	}

	// Summary
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Entity Resolution Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Datasets:   %d\n", len(result.Datasets))
	fmt.Fprintf(os.Stderr, "  Records:    %d\n", result.Records)
	fmt.Fprintf(os.Stderr, "  Entities:   %d\n", len(result.Entities))
	fmt.Fprintf(os.Stderr, "  Merges:     %d (of %d candidate pairs)\n", result.Merges, result.Pairs)
	for _, tier := range model.Tiers {
		n := 0
		for i := range result.Entities {
			if result.Entities[i].Confidence == tier {
				n++
			}
		}
		fmt.Fprintf(os.Stderr, "    %-11s %d\n", tier, n)
	}
	if len(warnings) > 0 {
		fmt.Fprintf(os.Stderr, "  Warnings:   %d (kept in artifact metadata)\n", len(warnings))
	}
	fmt.Fprintf(os.Stderr, "  Output:     %s\n", ws.EntitiesPath())
	fmt.Fprintf(os.Stderr, "\n")

	recordRun(cfg, ws, &store.Run{
		RunID:      runID,
		Tool:       "resolve",
		Workspace:  ws.Root,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
		Status:     "ok",
		Counts: map[string]int{
			"datasets": len(result.Datasets),
			"records":  result.Records,
			"entities": len(result.Entities),
			"merges":   result.Merges,
			"warnings": len(warnings),
		},
	})

	return nil
}
