package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mtautner/dossier/internal/chains"
	"github.com/mtautner/dossier/internal/model"
	"github.com/mtautner/dossier/internal/store"
	"github.com/mtautner/dossier/internal/workspace"
)

var chainsStrict bool

// chainsCmd represents the chains command
var chainsCmd = &cobra.Command{
	Use:   "chains <workspace> [files...]",
	Short: "Validate evidence chains against structural rules",
	Long: `Chains validates externally authored evidence-chain files, by default
every *.json under <workspace>/findings:
- Every chain needs a claim, a confidence tier, and at least one hop
- Tier values must come from the known set; unknown values fail
- Hops need their endpoint fields and a known match_type, and any
  match_score must be numeric in [0,1]
- A hop that does not continue the previous hop's entity warns
- In strict mode, link_strength and per-hop record references are
  required too

Validation never coerces a malformed chain into a passing one. The
report is written to <workspace>/analysis/chain_validation.json and the
command exits non-zero if any chain fails.

Example:
  dossier chains ./case-042
  dossier chains ./case-042 --strict
  dossier chains ./case-042 findings/shell-companies.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runChains,
}

func init() {
	rootCmd.AddCommand(chainsCmd)

	chainsCmd.Flags().BoolVar(&chainsStrict, "strict", false, "treat warnings as failures")
}

func runChains(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("strict") {
		cfg.Chains.Strict = chainsStrict
	}

	ws, err := workspace.Open(args[0])
	if err != nil {
		return err
	}

	runID := workspace.NewRunID()
	started := time.Now().UTC()

	var (
		files        []*chains.File
		loadWarnings []string
	)
	if len(args) > 1 {
		for _, path := range args[1:] {
			f, err := chains.LoadFile(path)
			if err != nil {
				loadWarnings = append(loadWarnings, err.Error())
				fmt.Fprintf(os.Stderr, "✗ %s: %v\n", path, err)
				continue
			}
			files = append(files, f)
		}
	} else {
		files, loadWarnings, err = chains.LoadDir(ws.FindingsDir())
		if err != nil {
			return fmt.Errorf("load findings: %w", err)
		}
		for _, w := range loadWarnings {
			fmt.Fprintf(os.Stderr, "✗ %s\n", w)
		}
	}
	if len(files) == 0 && len(loadWarnings) == 0 {
		fmt.Fprintf(os.Stderr, "✓ No findings files in %s\n", ws.FindingsDir())
		return nil
	}

	validator := chains.NewValidator(cfg.Chains.Strict)
	results := validator.ValidateAll(files)
	passed, warned, failed := chains.Summarize(results)

	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Path
	}
	report := &model.ValidationReport{
		Meta: model.Meta{
			RunID:       runID,
			GeneratedAt: time.Now().UTC(),
			Warnings:    loadWarnings,
		},
		Files:   names,
		Chains:  results,
		Passed:  passed,
		Failed:  failed,
		Warned:  warned,
		Skipped: len(loadWarnings),
	}
	if err := ws.WriteValidationReport(report); err != nil {
		return err
	}

	for _, r := range results {
		switch {
		case r.Failed():
			fmt.Fprintf(os.Stderr, "✗ %s (%s): %s\n", r.ChainID, r.File, r.Failures[0])
		case len(r.Warnings) > 0:
			fmt.Fprintf(os.Stderr, "✓ %s (%d warnings)\n", r.ChainID, len(r.Warnings))
		default:
			fmt.Fprintf(os.Stderr, "✓ %s\n", r.ChainID)
		}
	}
	fmt.Fprintf(os.Stderr, "\n%d passed, %d with warnings, %d failed\n", passed, warned, failed)

	status := "ok"
	if failed > 0 {
		status = "failed"
	}
	recordRun(cfg, ws, &store.Run{
		RunID:      runID,
		Tool:       "chains",
		Workspace:  ws.Root,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
		Status:     status,
		Counts: map[string]int{
			"files":   len(files),
			"chains":  len(results),
			"passed":  passed,
			"warned":  warned,
			"failed":  failed,
			"skipped": len(loadWarnings),
		},
	})

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d chains", chains.ErrChainsFailed, failed, len(results))
	}
	return nil
}
