package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mtautner/dossier/internal/cache"
	"github.com/mtautner/dossier/internal/connector"
	"github.com/mtautner/dossier/internal/model"
	"github.com/mtautner/dossier/internal/store"
	"github.com/mtautner/dossier/internal/worker"
	"github.com/mtautner/dossier/internal/workspace"
)

var (
	sanctionsURL     string
	sanctionsRefresh bool
	sanctionsTimeout time.Duration
)

// sanctionsCmd represents the sanctions command
var sanctionsCmd = &cobra.Command{
	Use:   "sanctions <workspace>",
	Short: "Sync the OFAC SDN list into the workspace",
	Long: `Sanctions downloads the OFAC Specially Designated Nationals list,
normalizes its headerless CSV format, and writes it to
<workspace>/datasets/ofac_sdn.csv so the resolver consumes it like any
other dataset.

The download honors robots.txt, the per-host rate limit, and the HTTP
cache. A list younger than the refresh interval is not re-downloaded
unless --refresh is given. A failed download never clobbers a
previously synced file.

Example:
  dossier sanctions ./case-042
  dossier sanctions ./case-042 --refresh
  dossier sanctions ./case-042 --url https://mirror.example/sdn.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runSanctions,
}

func init() {
	rootCmd.AddCommand(sanctionsCmd)

	def := model.DefaultConfig()
	sanctionsCmd.Flags().StringVar(&sanctionsURL, "url", def.Sanctions.URL, "SDN list URL")
	sanctionsCmd.Flags().BoolVar(&sanctionsRefresh, "refresh", false, "re-download even if the local copy is fresh")
	sanctionsCmd.Flags().DurationVar(&sanctionsTimeout, "timeout", 5*time.Minute, "overall sync timeout")
}

func runSanctions(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("url") {
		cfg.Sanctions.URL = sanctionsURL
	}

	ws, err := workspace.Init(args[0])
	if err != nil {
		return err
	}

	runID := workspace.NewRunID()
	started := time.Now().UTC()
	ctx, cancel := context.WithTimeout(context.Background(), sanctionsTimeout)
	defer cancel()

	client := connector.NewSanctionsClient(newFetcher(cfg, ws), cfg.Sanctions)

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "⚙️  Syncing %s...\n", cfg.Sanctions.URL)
	}
	result, err := client.Sync(ctx, ws, sanctionsRefresh)

	status := "ok"
	counts := map[string]int{}
	if result != nil {
		counts["rows"] = result.Rows
		counts["skipped"] = result.Skipped
	}
	if err != nil {
		status = "failed"
	}
	recordRun(cfg, ws, &store.Run{
		RunID:      runID,
		Tool:       "sanctions",
		Workspace:  ws.Root,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
		Status:     status,
		Counts:     counts,
	})
	if err != nil {
		return err
	}

	if !result.Refreshed {
		fmt.Fprintf(os.Stderr, "✓ Sanctions list is fresh: %s\n", result.Path)
		return nil
	}
	fmt.Fprintf(os.Stderr, "✓ Synced %d sanctions rows to %s", result.Rows, result.Path)
	if result.FromCache {
		fmt.Fprintf(os.Stderr, " (from cache)")
	}
	fmt.Fprintf(os.Stderr, "\n")
	if result.Skipped > 0 {
		fmt.Fprintf(os.Stderr, "  %d malformed rows skipped\n", result.Skipped)
	}

	return nil
}

// newFetcher assembles the outbound HTTP stack: layered cache under
// the workspace, per-host rate limiting, robots.txt awareness.
func newFetcher(cfg *model.Config, ws *workspace.Workspace) *connector.Fetcher {
	var httpCache cache.Cache
	if cfg.Cache.Enabled {
		httpCache = cache.NewLayeredCache(cfg.Cache.TTL, ws.CacheDir(), cfg.Cache.TTL)
	}
	limiter := worker.NewLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	return connector.NewFetcher(cfg, httpCache, limiter)
}
