package connector

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mtautner/dossier/internal/model"
	"github.com/mtautner/dossier/internal/workspace"
)

// The published SDN file is headerless CSV with twelve positional
// columns and "-0-" as the null marker. Only the columns useful for
// matching are carried into the workspace dataset; the vessel columns
// in between are dropped.
const (
	sdnColEntNum  = 0
	sdnColName    = 1
	sdnColType    = 2
	sdnColProgram = 3
	sdnColTitle   = 4
	sdnColRemarks = 11

	sdnNullMarker = "-0-"
)

var sdnHeader = []string{"ent_num", "name", "type", "program", "title", "remarks"}

// SanctionsClient syncs the OFAC SDN list into a workspace dataset so
// the resolver consumes sanctioned names like any other input file.
type SanctionsClient struct {
	fetcher *Fetcher
	url     string
	refresh time.Duration
}

// NewSanctionsClient applies defaults for a zero URL or refresh window.
func NewSanctionsClient(fetcher *Fetcher, cfg model.SanctionsConfig) *SanctionsClient {
	def := model.DefaultConfig().Sanctions
	if cfg.URL == "" {
		cfg.URL = def.URL
	}
	if cfg.Refresh <= 0 {
		cfg.Refresh = def.Refresh
	}
	return &SanctionsClient{fetcher: fetcher, url: cfg.URL, refresh: cfg.Refresh}
}

// SanctionsResult describes one sync.
type SanctionsResult struct {
	Path      string // workspace location of the dataset
	Rows      int    // usable entries written
	Skipped   int    // malformed or nameless source rows
	Refreshed bool   // false when the existing file was still fresh
	FromCache bool
}

// Sync downloads and rewrites the SDN dataset unless the existing file
// is younger than the refresh window (force overrides). A failed
// download or parse leaves any previously synced file untouched.
func (c *SanctionsClient) Sync(ctx context.Context, ws *workspace.Workspace, force bool) (*SanctionsResult, error) {
	path := ws.SanctionsPath()

	if !force {
		if info, err := os.Stat(path); err == nil && time.Since(info.ModTime()) < c.refresh {
			return &SanctionsResult{Path: path, Refreshed: false}, nil
		}
	}

	res, err := c.fetcher.FetchWithRetry(ctx, c.url)
	if err != nil {
		return nil, fmt.Errorf("download sanctions list: %w", err)
	}

	rows, skipped, err := parseSDN(res.Body)
	if err != nil {
		return nil, fmt.Errorf("parse sanctions list: %w", err)
	}

	if err := writeSDNDataset(path, rows); err != nil {
		return nil, err
	}

	return &SanctionsResult{
		Path:      path,
		Rows:      len(rows),
		Skipped:   skipped,
		Refreshed: true,
		FromCache: res.FromCache,
	}, nil
}

// parseSDN maps raw SDN rows onto the workspace header. Rows that
// cannot be parsed or carry no name are counted, not fatal.
func parseSDN(data []byte) ([][]string, int, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][]string
	skipped := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}
		if len(rec) <= sdnColName {
			skipped++
			continue
		}

		row := []string{
			sdnField(rec, sdnColEntNum),
			sdnField(rec, sdnColName),
			sdnField(rec, sdnColType),
			sdnField(rec, sdnColProgram),
			sdnField(rec, sdnColTitle),
			sdnField(rec, sdnColRemarks),
		}
		if row[1] == "" {
			skipped++
			continue
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, skipped, errors.New("no usable rows")
	}
	return rows, skipped, nil
}

func sdnField(rec []string, i int) string {
	if i >= len(rec) {
		return ""
	}
	v := strings.TrimSpace(rec[i])
	if v == sdnNullMarker {
		return ""
	}
	return v
}

func writeSDNDataset(path string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("write sanctions dataset: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write sanctions dataset: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(sdnHeader); err != nil {
		f.Close()
		return fmt.Errorf("write sanctions dataset: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			f.Close()
			return fmt.Errorf("write sanctions dataset: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("write sanctions dataset: %w", err)
	}
	return f.Close()
}
