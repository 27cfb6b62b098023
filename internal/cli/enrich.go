package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/mtautner/dossier/internal/connector"
	"github.com/mtautner/dossier/internal/model"
	"github.com/mtautner/dossier/internal/store"
	"github.com/mtautner/dossier/internal/worker"
	"github.com/mtautner/dossier/internal/workspace"
)

var (
	enrichEntity  string
	enrichLimit   int
	enrichTimeout time.Duration
)

// enrichCmd represents the enrich command
var enrichCmd = &cobra.Command{
	Use:   "enrich <workspace>",
	Short: "Look up entities in public web sources",
	Long: `Enrich queries the configured HTML search endpoint for one entity
(--entity) or for the still-unresolved entities of the last resolve:
- Result links are unwrapped, deduplicated, and classified by source
  authority (primary, secondary, tertiary)
- Page sentences mentioning any known name variant are kept as context
- Everything lands in <workspace>/enrichment/<entity_id>.json

Enrichment is context for the investigator. It never changes a
confidence tier; only 'dossier score' moves tiers.

Example:
  dossier enrich ./case-042
  dossier enrich ./case-042 --entity ent_0007
  dossier enrich ./case-042 --limit 10`,
	Args: cobra.ExactArgs(1),
	RunE: runEnrich,
}

func init() {
	rootCmd.AddCommand(enrichCmd)

	enrichCmd.Flags().StringVar(&enrichEntity, "entity", "", "enrich one entity by id (ent_0001)")
	enrichCmd.Flags().IntVar(&enrichLimit, "limit", 3, "how many unresolved entities to enrich when --entity is not set")
	enrichCmd.Flags().DurationVar(&enrichTimeout, "timeout", 2*time.Minute, "overall enrichment timeout")
}

// enrichJob fetches and stores the enrichment for one entity.
type enrichJob struct {
	ctx      context.Context
	searcher *connector.Searcher
	ws       *workspace.Workspace
	entity   *model.CanonicalEntity
}

type enrichResult struct {
	entityID string
	name     string
	hits     int
	mentions int
	err      error
}

func (r *enrichResult) GetError() error { return r.err }

func (j *enrichJob) Execute(_ context.Context) worker.Result {
	res := &enrichResult{entityID: j.entity.ID, name: j.entity.Name}
	enrichment, err := j.searcher.Enrich(j.ctx, j.entity)
	if err != nil {
		res.err = err
		return res
	}
	if err := j.ws.WriteEnrichment(j.entity.ID, enrichment); err != nil {
		res.err = err
		return res
	}
	res.hits = len(enrichment.Hits)
	res.mentions = len(enrichment.Mentions)
	return res
}

func runEnrich(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ws, err := workspace.Open(args[0])
	if err != nil {
		return err
	}

	artifact, err := ws.ReadEntities()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("no canonical entities in %s; run 'dossier resolve' first", ws.Root)
		}
		return err
	}

	selected, err := selectEntities(artifact.Entities, enrichEntity, enrichLimit)
	if err != nil {
		return err
	}
	if len(selected) == 0 {
		fmt.Fprintf(os.Stderr, "✓ No unresolved entities to enrich\n")
		return nil
	}

	runID := workspace.NewRunID()
	started := time.Now().UTC()
	ctx, cancel := context.WithTimeout(context.Background(), enrichTimeout)
	defer cancel()

	searcher := connector.NewSearcher(
		newFetcher(cfg, ws),
		connector.NewAuthorityClassifier(&cfg.Authority),
		cfg.Enrichment,
	)

	pool := worker.NewPool(cfg.Concurrency.FetchWorkers, len(selected))
	pool.Start()
	for _, e := range selected {
		pool.Submit(&enrichJob{ctx: ctx, searcher: searcher, ws: ws, entity: e})
	}
	results := pool.Wait()

	// Completion order is nondeterministic; report in entity order.
	sort.Slice(results, func(i, j int) bool {
		return results[i].(*enrichResult).entityID < results[j].(*enrichResult).entityID
	})

	enriched, failed := 0, 0
	var firstErr error
	for _, r := range results {
		res := r.(*enrichResult)
		if res.err != nil {
			failed++
			if firstErr == nil {
				firstErr = res.err
			}
			fmt.Fprintf(os.Stderr, "✗ %s %s: %v\n", res.entityID, res.name, res.err)
			continue
		}
		enriched++
		fmt.Fprintf(os.Stderr, "✓ %s %s: %d hits, %d mentions → %s\n",
			res.entityID, res.name, res.hits, res.mentions, ws.EnrichmentPath(res.entityID))
	}

	status := "ok"
	if failed > 0 {
		status = "partial"
	}
	recordRun(cfg, ws, &store.Run{
		RunID:      runID,
		Tool:       "enrich",
		Workspace:  ws.Root,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
		Status:     status,
		Counts: map[string]int{
			"selected": len(selected),
			"enriched": enriched,
			"failed":   failed,
		},
	})

	// A single requested entity that cannot be enriched is an error;
	// in batch mode failures are counted and the rest still land.
	if enrichEntity != "" && firstErr != nil {
		return firstErr
	}
	return nil
}

// selectEntities picks the explicit entity, or the unresolved ones in
// artifact order up to the limit.
func selectEntities(entities []model.CanonicalEntity, id string, limit int) ([]*model.CanonicalEntity, error) {
	if id != "" {
		for i := range entities {
			if entities[i].ID == id {
				return []*model.CanonicalEntity{&entities[i]}, nil
			}
		}
		return nil, fmt.Errorf("entity %s not found", id)
	}

	var selected []*model.CanonicalEntity
	for i := range entities {
		if entities[i].Confidence != model.TierUnresolved {
			continue
		}
		selected = append(selected, &entities[i])
		if len(selected) == limit {
			break
		}
	}
	return selected, nil
}
