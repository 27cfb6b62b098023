// Package workspace manages the on-disk layout every dossier tool
// works against:
//
//	<root>/
//	  datasets/    input CSV/JSON files
//	  findings/    analyst-authored evidence chain files
//	  analysis/    produced artifacts and logs
//	  enrichment/  web lookup results per entity
//	  .dossier/    cache and run store
package workspace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/mtautner/dossier/internal/logging"
	"github.com/mtautner/dossier/internal/model"
)

const (
	datasetsDir   = "datasets"
	findingsDir   = "findings"
	analysisDir   = "analysis"
	enrichmentDir = "enrichment"
	internalDir   = ".dossier"

	entitiesFile   = "canonical_entities.json"
	crossRefsFile  = "cross_references.json"
	validationFile = "chain_validation.json"
	scoringLogFile = "scoring_log.jsonl"
	briefFile      = "brief.md"
	storeFile      = "dossier.db"
	sanctionsFile  = "ofac_sdn.csv"
)

// Workspace is one investigation directory.
type Workspace struct {
	Root string
}

// Open points at an existing workspace root.
func Open(root string) (*Workspace, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("workspace %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workspace %s: not a directory", root)
	}
	return &Workspace{Root: root}, nil
}

// Init creates the workspace skeleton, leaving existing content alone.
func Init(root string) (*Workspace, error) {
	for _, dir := range []string{
		root,
		filepath.Join(root, datasetsDir),
		filepath.Join(root, findingsDir),
		filepath.Join(root, analysisDir),
		filepath.Join(root, enrichmentDir),
		filepath.Join(root, internalDir, "cache"),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("init workspace: %w", err)
		}
	}
	return &Workspace{Root: root}, nil
}

// NewRunID mints the identifier stamped on every artifact of one run.
func NewRunID() string {
	return uuid.NewString()
}

func (w *Workspace) DatasetsDir() string   { return filepath.Join(w.Root, datasetsDir) }
func (w *Workspace) FindingsDir() string   { return filepath.Join(w.Root, findingsDir) }
func (w *Workspace) AnalysisDir() string   { return filepath.Join(w.Root, analysisDir) }
func (w *Workspace) EnrichmentDir() string { return filepath.Join(w.Root, enrichmentDir) }
func (w *Workspace) CacheDir() string      { return filepath.Join(w.Root, internalDir, "cache") }
func (w *Workspace) StorePath() string     { return filepath.Join(w.Root, internalDir, storeFile) }

func (w *Workspace) EntitiesPath() string   { return filepath.Join(w.AnalysisDir(), entitiesFile) }
func (w *Workspace) CrossRefsPath() string  { return filepath.Join(w.AnalysisDir(), crossRefsFile) }
func (w *Workspace) ValidationPath() string { return filepath.Join(w.AnalysisDir(), validationFile) }
func (w *Workspace) ScoringLogPath() string { return filepath.Join(w.AnalysisDir(), scoringLogFile) }
func (w *Workspace) BriefPath() string      { return filepath.Join(w.AnalysisDir(), briefFile) }

// SanctionsPath names the synced OFAC dataset. It lives with the other
// datasets so the resolver picks it up like any input file.
func (w *Workspace) SanctionsPath() string {
	return filepath.Join(w.DatasetsDir(), sanctionsFile)
}

// EnrichmentPath names the lookup result file for one entity.
func (w *Workspace) EnrichmentPath(entityID string) string {
	return filepath.Join(w.EnrichmentDir(), entityID+".json")
}

// WriteEnrichment persists one entity's web lookup result.
func (w *Workspace) WriteEnrichment(entityID string, v any) error {
	return w.writeJSON(w.EnrichmentPath(entityID), v)
}

// WriteEntities persists the canonical entity artifact.
func (w *Workspace) WriteEntities(art *model.CanonicalArtifact) error {
	return w.writeJSON(w.EntitiesPath(), art)
}

// ReadEntities loads the canonical entity artifact.
func (w *Workspace) ReadEntities() (*model.CanonicalArtifact, error) {
	var art model.CanonicalArtifact
	if err := w.readJSON(w.EntitiesPath(), &art); err != nil {
		return nil, err
	}
	return &art, nil
}

// WriteCrossRefs persists the cross-reference artifact.
func (w *Workspace) WriteCrossRefs(art *model.CrossRefArtifact) error {
	return w.writeJSON(w.CrossRefsPath(), art)
}

// ReadCrossRefs loads the cross-reference artifact.
func (w *Workspace) ReadCrossRefs() (*model.CrossRefArtifact, error) {
	var art model.CrossRefArtifact
	if err := w.readJSON(w.CrossRefsPath(), &art); err != nil {
		return nil, err
	}
	return &art, nil
}

// WriteValidationReport persists the chain validation report.
func (w *Workspace) WriteValidationReport(report *model.ValidationReport) error {
	return w.writeJSON(w.ValidationPath(), report)
}

// ReadValidationReport loads the chain validation report.
func (w *Workspace) ReadValidationReport() (*model.ValidationReport, error) {
	var report model.ValidationReport
	if err := w.readJSON(w.ValidationPath(), &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// WriteBrief persists the generated investigation brief.
func (w *Workspace) WriteBrief(text string) error {
	if err := os.MkdirAll(w.AnalysisDir(), 0o755); err != nil {
		return fmt.Errorf("write brief: %w", err)
	}
	if err := os.WriteFile(w.BriefPath(), []byte(text), 0o644); err != nil {
		return fmt.Errorf("write brief: %w", err)
	}
	return nil
}

// AppendScoringLog appends one JSONL event per tier change. The log
// is append-only across runs; history lives here and in the run store.
func (w *Workspace) AppendScoringLog(changes []model.TierChange) error {
	if len(changes) == 0 {
		return nil
	}
	if err := os.MkdirAll(w.AnalysisDir(), 0o755); err != nil {
		return fmt.Errorf("scoring log: %w", err)
	}
	f, err := os.OpenFile(w.ScoringLogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("scoring log: %w", err)
	}
	defer f.Close()

	logger := logging.New(f)
	for _, c := range changes {
		logger.Log().
			Str("run_id", c.RunID).
			Str("kind", c.Kind).
			Str("id", c.ID).
			Str("name", c.Name).
			Str("old_tier", string(c.OldTier)).
			Str("new_tier", string(c.NewTier)).
			Str("basis", c.Basis).
			Msg("tier change")
	}
	return nil
}

func (w *Workspace) writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func (w *Workspace) readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}
