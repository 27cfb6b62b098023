package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mtautner/dossier/internal/chains"
	"github.com/mtautner/dossier/internal/dataset"
	"github.com/mtautner/dossier/internal/score"
	"github.com/mtautner/dossier/internal/store"
	"github.com/mtautner/dossier/internal/workspace"
)

var scoreDryRun bool

// scoreCmd represents the score command
var scoreCmd = &cobra.Command{
	Use:   "score <workspace>",
	Short: "Re-derive confidence tiers across all artifacts",
	Long: `Score re-reads the workspace artifacts and re-derives every
confidence tier from the current rule set:
- Canonical entities: dataset count, identifier agreement, similarity
- Cross-references: dataset count and field match rate
- Evidence chains: corroboration, independent sources, weakest hop

Contradictory hard identifiers (two EINs for one entity) force the
unresolved tier no matter what the other signals say. Every tier that
moves is appended to <workspace>/analysis/scoring_log.jsonl with its
basis. With --dry-run the changes are printed but nothing is written.

Example:
  dossier score ./case-042
  dossier score ./case-042 --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: runScore,
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().BoolVar(&scoreDryRun, "dry-run", false, "print tier changes without writing artifacts")
}

func runScore(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
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

	datasets, _, err := dataset.LoadDir(ws.DatasetsDir())
	if err != nil {
		return fmt.Errorf("load datasets: %w", err)
	}

	crossRefs, err := ws.ReadCrossRefs()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	chainFiles, chainWarnings, err := chains.LoadDir(ws.FindingsDir())
	if err != nil {
		return fmt.Errorf("load findings: %w", err)
	}

	scorer := score.NewScorer(runID)

	changes, scoreWarnings := scorer.RescoreEntities(entities.Entities, datasets)
	if crossRefs != nil {
		changes = append(changes, scorer.RescoreCrossRefs(crossRefs.References)...)
	}
	for _, f := range chainFiles {
		changes = append(changes, scorer.RescoreChainFile(f)...)
	}

	if scoreDryRun {
		for _, c := range changes {
			fmt.Printf("%s %s %s: %s → %s (%s)\n", c.Kind, c.ID, c.Name, c.OldTier, c.NewTier, c.Basis)
		}
		fmt.Fprintf(os.Stderr, "✓ Dry run: %d tier changes, nothing written\n", len(changes))
	} else {
		if err := ws.WriteEntities(entities); err != nil {
			return err
		}
		if crossRefs != nil {
			if err := ws.WriteCrossRefs(crossRefs); err != nil {
				return err
			}
		}
		for _, f := range chainFiles {
			if err := f.Save(); err != nil {
				return fmt.Errorf("rewrite %s: %w", f.Path, err)
			}
		}
		if err := ws.AppendScoringLog(changes); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "✓ Rescored %d entities", len(entities.Entities))
		if crossRefs != nil {
			fmt.Fprintf(os.Stderr, ", %d cross-references", len(crossRefs.References))
		}
		if len(chainFiles) > 0 {
			fmt.Fprintf(os.Stderr, ", %d chain files", len(chainFiles))
		}
		fmt.Fprintf(os.Stderr, "\n✓ %d tier changes appended to %s\n", len(changes), ws.ScoringLogPath())
	}
	for _, w := range append(chainWarnings, scoreWarnings...) {
		if cfg.Output.Verbose {
			fmt.Fprintf(os.Stderr, "  warning: %s\n", w)
		}
	}

	status := "ok"
	if scoreDryRun {
		status = "dry-run"
	}
	recordRun(cfg, ws, &store.Run{
		RunID:      runID,
		Tool:       "score",
		Workspace:  ws.Root,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
		Status:     status,
		Counts: map[string]int{
			"entities": len(entities.Entities),
			"changes":  len(changes),
			"warnings": len(chainWarnings) + len(scoreWarnings),
		},
	})

	return nil
}
