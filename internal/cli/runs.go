package cli

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mtautner/dossier/internal/store"
	"github.com/mtautner/dossier/internal/workspace"
)

var runsLimit int

// runsCmd represents the runs command
var runsCmd = &cobra.Command{
	Use:   "runs <workspace>",
	Short: "List recent runs recorded in the workspace",
	Long: `Runs lists the invocations recorded in the workspace run registry,
newest first. The registry is bookkeeping: artifacts stay the source
of truth and are recomputed from scratch each run.

Example:
  dossier runs ./case-042
  dossier runs ./case-042 --limit 5`,
	Args: cobra.ExactArgs(1),
	RunE: runRuns,
}

func init() {
	rootCmd.AddCommand(runsCmd)

	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "how many runs to list")
}

func runRuns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ws, err := workspace.Open(args[0])
	if err != nil {
		return err
	}

	path := cfg.Store.Path
	if path == "" {
		path = ws.StorePath()
	}
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintf(os.Stderr, "No runs recorded in %s\n", ws.Root)
		return nil
	}

	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.Recent(runsLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintf(os.Stderr, "No runs recorded in %s\n", ws.Root)
		return nil
	}

	fmt.Printf("%-20s %-10s %-8s %s\n", "STARTED", "TOOL", "STATUS", "COUNTS")
	for _, run := range runs {
		fmt.Printf("%-20s %-10s %-8s %s\n",
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.Tool, run.Status, formatCounts(run.Counts))
		if cfg.Output.Verbose {
			fmt.Printf("  run %s", run.RunID)
			if run.Notes != "" {
				fmt.Printf("  %s", run.Notes)
			}
			fmt.Println()
		}
	}

	return nil
}

func formatCounts(counts map[string]int) string {
	if len(counts) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, counts[k])
	}
	return strings.Join(parts, " ")
}
