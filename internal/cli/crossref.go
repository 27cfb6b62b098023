package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mtautner/dossier/internal/crossref"
	"github.com/mtautner/dossier/internal/dataset"
	"github.com/mtautner/dossier/internal/model"
	"github.com/mtautner/dossier/internal/store"
	"github.com/mtautner/dossier/internal/workspace"
)

var (
	crossrefMinDatasets int
	crossrefDatasets    []string
)

// crossrefCmd represents the crossref command
var crossrefCmd = &cobra.Command{
	Use:   "crossref <workspace>",
	Short: "Cross-reference entities that recur across datasets",
	Long: `Crossref re-locates every variant of each resolved entity in its
source dataset and compares the non-name fields across dataset pairs:
- Entities present in fewer than --min-datasets datasets are skipped
- Values compare case- and whitespace-insensitively; a field matches
  when any record value on one side equals any on the other
- The confidence tier derives from dataset spread and field match rate

The result is written to <workspace>/analysis/cross_references.json.
Requires a prior 'dossier resolve' run.

Example:
  dossier crossref ./case-042
  dossier crossref ./case-042 --min-datasets 3
  dossier crossref ./case-042 --datasets registry,ofac_sdn`,
	Args: cobra.ExactArgs(1),
	RunE: runCrossref,
}

func init() {
	rootCmd.AddCommand(crossrefCmd)

	def := model.DefaultConfig()
	crossrefCmd.Flags().IntVar(&crossrefMinDatasets, "min-datasets", def.CrossRef.MinDatasets, "minimum distinct datasets per cross-reference (>= 2)")
	crossrefCmd.Flags().StringSliceVar(&crossrefDatasets, "datasets", nil, "restrict linking to these dataset names")
}

func runCrossref(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("min-datasets") {
		cfg.CrossRef.MinDatasets = crossrefMinDatasets
	}
	if cfg.CrossRef.MinDatasets < 2 {
		return fmt.Errorf("min-datasets must be at least 2, got %d", cfg.CrossRef.MinDatasets)
	}

	ws, err := workspace.Open(args[0])
	if err != nil {
		return err
	}

	entities, err := ws.ReadEntities()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("no canonical entities in %s; run 'dossier resolve' first", ws.Root)
		}
		return err
	}

	runID := workspace.NewRunID()
	started := time.Now().UTC()

	datasets, loadWarnings, err := dataset.LoadDir(ws.DatasetsDir())
	if err != nil {
		return fmt.Errorf("load datasets: %w", err)
	}

	linker := crossref.NewLinker(crossref.Options{
		MinDatasets: cfg.CrossRef.MinDatasets,
		Datasets:    crossrefDatasets,
		NameColumns: cfg.Resolver.NameColumns,
	})
	result := linker.Link(entities.Entities, datasets)

	warnings := append(loadWarnings, result.Warnings...)
	artifact := &model.CrossRefArtifact{
		Meta: model.Meta{
			RunID:       runID,
			GeneratedAt: time.Now().UTC(),
			Datasets:    entities.Meta.Datasets,
			Records:     entities.Meta.Records,
			Warnings:    warnings,
		},
		MinDatasets: cfg.CrossRef.MinDatasets,
		References:  result.References,
	}
	if err := ws.WriteCrossRefs(artifact); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "✓ Examined %d entities, cross-referenced %d\n", result.Considered, len(result.References))
	for _, ref := range result.References {
		if cfg.Output.Verbose {
			fmt.Fprintf(os.Stderr, "  %s [%s]: %s\n", ref.EntityName, ref.Confidence, ref.Basis)
		}
	}
	if len(warnings) > 0 {
		fmt.Fprintf(os.Stderr, "  %d warnings kept in artifact metadata\n", len(warnings))
	}
	fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", ws.CrossRefsPath())

	recordRun(cfg, ws, &store.Run{
		RunID:      runID,
		Tool:       "crossref",
		Workspace:  ws.Root,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
		Status:     "ok",
		Counts: map[string]int{
			"considered":       result.Considered,
			"cross_references": len(result.References),
			"warnings":         len(warnings),
		},
	})

	return nil
}
