package connector

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/mtautner/dossier/internal/model"
	"github.com/mtautner/dossier/internal/workspace"
)

const sdnSample = `36,"AEROCARIBBEAN AIRLINES","-0-","CUBA","-0-","-0-","-0-","-0-","-0-","-0-","-0-","a.k.a. 'AERO-CARIBBEAN'."
173,"ANGLO-CARIBBEAN CO., LTD.",-0-,CUBA,-0-,-0-,-0-,-0-,-0-,-0-,-0-,-0-
999,SHORT ROW CO
1001
1002,-0-,-0-,CUBA
`

func TestParseSDN(t *testing.T) {
	rows, skipped, err := parseSDN([]byte(sdnSample))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("Expected 3 usable rows, got %d", len(rows))
	}
	if skipped != 2 {
		t.Errorf("Expected 2 skipped rows, got %d", skipped)
	}

	want := []string{"36", "AEROCARIBBEAN AIRLINES", "", "CUBA", "", "a.k.a. 'AERO-CARIBBEAN'."}
	for i, field := range want {
		if rows[0][i] != field {
			t.Errorf("Row 0 field %d = %q, want %q", i, rows[0][i], field)
		}
	}

	// Null markers collapse to empty fields
	if rows[1][5] != "" {
		t.Errorf("Expected -0- remarks to be empty, got %q", rows[1][5])
	}

	// Short rows pad the missing columns
	if rows[2][1] != "SHORT ROW CO" || rows[2][5] != "" {
		t.Errorf("Unexpected short row: %v", rows[2])
	}
}

func TestParseSDN_NoUsableRows(t *testing.T) {
	if _, _, err := parseSDN([]byte("1001\n1002,-0-\n")); err == nil {
		t.Error("Expected error when every row is unusable")
	}
}

func TestSanctionsClient_Sync(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		hits.Add(1)
		_, _ = fmt.Fprint(w, sdnSample)
	}))
	defer server.Close()

	ws, err := workspace.Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init workspace: %v", err)
	}

	fetcher := NewFetcher(testConfig(), nil, nil)
	client := NewSanctionsClient(fetcher, model.SanctionsConfig{URL: server.URL + "/sdn.csv"})

	res, err := client.Sync(context.Background(), ws, false)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if !res.Refreshed {
		t.Error("First sync should refresh")
	}
	if res.Rows != 3 || res.Skipped != 2 {
		t.Errorf("Rows/Skipped = %d/%d, want 3/2", res.Rows, res.Skipped)
	}
	if res.Path != ws.SanctionsPath() {
		t.Errorf("Unexpected path: %s", res.Path)
	}

	data, err := os.ReadFile(res.Path)
	if err != nil {
		t.Fatalf("Read dataset: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if lines[0] != "ent_num,name,type,program,title,remarks" {
		t.Errorf("Unexpected header: %s", lines[0])
	}
	if len(lines) != 4 {
		t.Errorf("Expected header plus 3 rows, got %d lines", len(lines))
	}

	// A fresh file inside the refresh window is left alone
	res, err = client.Sync(context.Background(), ws, false)
	if err != nil {
		t.Fatalf("Second sync: %v", err)
	}
	if res.Refreshed {
		t.Error("Fresh file should not be re-downloaded")
	}
	if hits.Load() != 1 {
		t.Errorf("Expected 1 download, got %d", hits.Load())
	}

	// Force overrides the window
	res, err = client.Sync(context.Background(), ws, true)
	if err != nil {
		t.Fatalf("Forced sync: %v", err)
	}
	if !res.Refreshed {
		t.Error("Forced sync should refresh")
	}
	if hits.Load() != 2 {
		t.Errorf("Expected 2 downloads after force, got %d", hits.Load())
	}
}

func TestSanctionsClient_Sync_FailureKeepsExistingFile(t *testing.T) {
	var failing atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		if failing.Load() {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = fmt.Fprint(w, sdnSample)
	}))
	defer server.Close()

	ws, err := workspace.Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init workspace: %v", err)
	}

	fetcher := NewFetcher(testConfig(), nil, nil)
	client := NewSanctionsClient(fetcher, model.SanctionsConfig{URL: server.URL + "/sdn.csv"})

	if _, err := client.Sync(context.Background(), ws, false); err != nil {
		t.Fatalf("Initial sync: %v", err)
	}
	before, err := os.ReadFile(ws.SanctionsPath())
	if err != nil {
		t.Fatalf("Read dataset: %v", err)
	}

	failing.Store(true)
	if _, err := client.Sync(context.Background(), ws, true); err == nil {
		t.Fatal("Expected error when download fails")
	}

	after, err := os.ReadFile(ws.SanctionsPath())
	if err != nil {
		t.Fatalf("Read dataset after failure: %v", err)
	}
	if string(before) != string(after) {
		t.Error("Failed download must not clobber the existing dataset")
	}
}

func TestNewSanctionsClient_Defaults(t *testing.T) {
	client := NewSanctionsClient(nil, model.SanctionsConfig{})
	def := model.DefaultConfig().Sanctions
	if client.url != def.URL {
		t.Errorf("Expected default URL, got %s", client.url)
	}
	if client.refresh != def.Refresh {
		t.Errorf("Expected default refresh window, got %v", client.refresh)
	}
}
