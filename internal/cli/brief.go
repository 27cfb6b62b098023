package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mtautner/dossier/internal/connector"
	"github.com/mtautner/dossier/internal/llm"
	"github.com/mtautner/dossier/internal/store"
	"github.com/mtautner/dossier/internal/workspace"
)

var (
	briefProvider string
	briefModel    string
	briefTimeout  time.Duration
)

// briefCmd represents the brief command
var briefCmd = &cobra.Command{
	Use:   "brief <workspace>",
	Short: "Write an investigation brief from the scored artifacts",
	Long: `Brief renders <workspace>/analysis/brief.md from the canonical
entities, cross-references, and chain validation report.

Without a provider the brief is the deterministic render of the
artifacts. With --provider a narrative is generated on top, under a
strict source allowlist (the workspace's dataset names and enrichment
URLs): a response citing anything else is discarded and the
deterministic brief is written with a warning. The brief never feeds
back into scoring.

Example:
  dossier brief ./case-042
  dossier brief ./case-042 --provider openai --model gpt-4o-mini
  dossier brief ./case-042 --provider ollama --model llama3.1:8b`,
	Args: cobra.ExactArgs(1),
	RunE: runBrief,
}

func init() {
	rootCmd.AddCommand(briefCmd)

	briefCmd.Flags().StringVar(&briefProvider, "provider", "", "LLM provider (openai, ollama; empty for the deterministic brief)")
	briefCmd.Flags().StringVar(&briefModel, "model", "", "LLM model name")
	briefCmd.Flags().DurationVar(&briefTimeout, "timeout", 2*time.Minute, "overall brief timeout")
}

func runBrief(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("provider") {
		cfg.LLM.Provider = briefProvider
	}
	if cmd.Flags().Changed("model") {
		cfg.LLM.Model = briefModel
	}

	// API keys come from the environment, never from the config file
	switch cfg.LLM.Provider {
	case "openai":
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		}
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "ollama":
		if base := os.Getenv("OLLAMA_BASE_URL"); base != "" && cfg.LLM.BaseURL == "" {
			cfg.LLM.BaseURL = base
		}
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
	crossRefs, err := ws.ReadCrossRefs()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	validation, err := ws.ReadValidationReport()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	runID := workspace.NewRunID()
	started := time.Now().UTC()
	ctx, cancel := context.WithTimeout(context.Background(), briefTimeout)
	defer cancel()

	briefer, err := llm.NewBriefer(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return err
	}
	if cfg.Output.Verbose && briefer.IsEnabled() {
		fmt.Fprintf(os.Stderr, "⚙️  Generating narrative via %s...\n", briefer.ProviderName())
	}

	brief, err := briefer.Generate(ctx, llm.BriefInput{
		Entities:   entities,
		CrossRefs:  crossRefs,
		Validation: validation,
		Allowlist:  collectAllowlist(ws, entities.Meta.Datasets),
	})
	if err != nil {
		return err
	}
	if err := ws.WriteBrief(brief.Markdown); err != nil {
		return err
	}

	for _, w := range brief.Warnings {
		fmt.Fprintf(os.Stderr, "  warning: %s\n", w)
	}
	if brief.Model != "" {
		fmt.Fprintf(os.Stderr, "✓ Narrative generated by %s (%d tokens)\n", brief.Model, brief.TokensUsed)
	}
	fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", ws.BriefPath())

	recordRun(cfg, ws, &store.Run{
		RunID:      runID,
		Tool:       "brief",
		Workspace:  ws.Root,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
		Status:     "ok",
		Counts: map[string]int{
			"entities": len(entities.Entities),
			"warnings": len(brief.Warnings),
			"tokens":   brief.TokensUsed,
		},
	})

	return nil
}

// collectAllowlist gathers the citable sources: the run's dataset
// names plus every enrichment hit URL already in the workspace.
func collectAllowlist(ws *workspace.Workspace, datasets []string) []string {
	allow := append([]string{}, datasets...)
	seen := make(map[string]bool, len(allow))
	for _, s := range allow {
		seen[s] = true
	}

	entries, err := os.ReadDir(ws.EnrichmentDir())
	if err != nil {
		return allow
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(ws.EnrichmentDir(), entry.Name()))
		if err != nil {
			continue
		}
		var enrichment connector.Enrichment
		if err := json.Unmarshal(data, &enrichment); err != nil {
			continue
		}
		for _, hit := range enrichment.Hits {
			if !seen[hit.URL] {
				seen[hit.URL] = true
				allow = append(allow, hit.URL)
			}
		}
	}
	return allow
}
