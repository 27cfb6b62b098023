package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mtautner/dossier/internal/match"
	"github.com/mtautner/dossier/internal/normalize"
	"github.com/mtautner/dossier/internal/store"
	"github.com/mtautner/dossier/internal/workspace"
)

var (
	matchIncoming string
	matchAgainst  string
	matchOut      string
	matchGerman   bool
)

// matchOutcome pairs one incoming record with its best counterpart.
type matchOutcome struct {
	Incoming match.CompositeRecord  `json:"incoming"`
	Against  *match.CompositeRecord `json:"against,omitempty"`
	Result   match.CompositeResult  `json:"result"`
}

// matchCmd represents the match command
var matchCmd = &cobra.Command{
	Use:   "match <workspace> --incoming <file> --against <file>",
	Short: "Match structured records through the composite tiers",
	Long: `Match compares two files of structured records (name, legal form,
register ID, city, officers) pairwise through fixed signal tiers:
- A shared register ID is decisive when the register courts agree;
  register numbers repeat across courts
- Name, legal form, and city agreeing together is next
- Officer or address overlap is the weakest accepted signal

Tiers are tried strongest first and the first hit decides the score;
nothing is averaged. Each incoming record keeps its best counterpart.
Results go to --out or stdout.

Example:
  dossier match ./case-042 --incoming new.json --against known.json
  dossier match ./case-042 --incoming new.json --against known.json --out matched.json`,
	Args: cobra.ExactArgs(1),
	RunE: runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringVar(&matchIncoming, "incoming", "", "JSON file of records to match")
	matchCmd.Flags().StringVar(&matchAgainst, "against", "", "JSON file of records to match against")
	matchCmd.Flags().StringVar(&matchOut, "out", "", "output path (default: stdout)")
	matchCmd.Flags().BoolVar(&matchGerman, "german", false, "use German normalization and register-court canonicalization")
	_ = matchCmd.MarkFlagRequired("incoming")
	_ = matchCmd.MarkFlagRequired("against")
}

func runMatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("german") {
		cfg.Resolver.German = matchGerman
	}

	ws, err := workspace.Open(args[0])
	if err != nil {
		return err
	}

	incoming, err := loadCompositeRecords(matchIncoming)
	if err != nil {
		return err
	}
	against, err := loadCompositeRecords(matchAgainst)
	if err != nil {
		return err
	}

	runID := workspace.NewRunID()
	started := time.Now().UTC()

	var norm normalize.Normalizer = normalize.NewBasic()
	if cfg.Resolver.German {
		norm = normalize.NewGerman()
	}
	matcher := match.NewCompositeMatcher(norm)

	outcomes := make([]matchOutcome, 0, len(incoming))
	matched := 0
	for _, in := range incoming {
		best := matchOutcome{Incoming: in}
		for i := range against {
			r := matcher.Match(in, against[i])
			if !r.Matched {
				continue
			}
			// First match wins a score tie, so output order is fixed
			// by input order alone.
			if !best.Result.Matched || r.Score > best.Result.Score {
				best.Result = r
				best.Against = &against[i]
			}
		}
		if best.Result.Matched {
			matched++
		}
		outcomes = append(outcomes, best)
	}

	data, err := json.MarshalIndent(outcomes, "", "  ")
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	if matchOut != "" {
		if err := os.WriteFile(matchOut, append(data, '\n'), 0o644); err != nil {
			return fmt.Errorf("write results: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", matchOut)
	} else {
		fmt.Println(string(data))
	}
	fmt.Fprintf(os.Stderr, "✓ Matched %d of %d incoming records against %d candidates\n",
		matched, len(incoming), len(against))

	recordRun(cfg, ws, &store.Run{
		RunID:      runID,
		Tool:       "match",
		Workspace:  ws.Root,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
		Status:     "ok",
		Counts: map[string]int{
			"incoming": len(incoming),
			"against":  len(against),
			"matched":  matched,
		},
	})

	return nil
}

func loadCompositeRecords(path string) ([]match.CompositeRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	var records []match.CompositeRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: no records", path)
	}
	return records, nil
}
