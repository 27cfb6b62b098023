package connector

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestRobotsChecker_DisallowHonored(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, "User-agent: *\nDisallow: /admin/\n")
	}))
	defer server.Close()

	checker := NewRobotsChecker(server.Client(), "dossier-test/1.0")

	allowed, _, err := checker.CanFetch(context.Background(), server.URL+"/admin/users")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if allowed {
		t.Error("Expected /admin/ to be disallowed")
	}

	allowed, _, err = checker.CanFetch(context.Background(), server.URL+"/public")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !allowed {
		t.Error("Expected /public to be allowed")
	}
}

func TestRobotsChecker_PolicyCachedPerHost(t *testing.T) {
	var fetches atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)
		_, _ = fmt.Fprint(w, "User-agent: *\nDisallow:\n")
	}))
	defer server.Close()

	checker := NewRobotsChecker(server.Client(), "dossier-test/1.0")
	for i := 0; i < 3; i++ {
		if _, _, err := checker.CanFetch(context.Background(), fmt.Sprintf("%s/page/%d", server.URL, i)); err != nil {
			t.Fatalf("CanFetch %d: %v", i, err)
		}
	}

	if fetches.Load() != 1 {
		t.Errorf("Expected 1 robots.txt fetch, got %d", fetches.Load())
	}
}

func TestRobotsChecker_404AllowsEverything(t *testing.T) {
	var fetches atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)
		http.NotFound(w, r)
	}))
	defer server.Close()

	checker := NewRobotsChecker(server.Client(), "dossier-test/1.0")

	allowed, _, err := checker.CanFetch(context.Background(), server.URL+"/anything")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !allowed {
		t.Error("Missing robots.txt should allow everything")
	}

	// The 404 is cached like a real policy
	if _, _, err := checker.CanFetch(context.Background(), server.URL+"/other"); err != nil {
		t.Fatalf("Second CanFetch: %v", err)
	}
	if fetches.Load() != 1 {
		t.Errorf("Expected the 404 to be cached, got %d fetches", fetches.Load())
	}
}

func TestRobotsChecker_CrawlDelayReported(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, "User-agent: *\nCrawl-delay: 2\nDisallow:\n")
	}))
	defer server.Close()

	checker := NewRobotsChecker(server.Client(), "dossier-test/1.0")
	allowed, delay, err := checker.CanFetch(context.Background(), server.URL+"/page")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !allowed {
		t.Error("Expected page to be allowed")
	}
	if delay != 2*time.Second {
		t.Errorf("Expected 2s crawl delay, got %v", delay)
	}
}

func TestRobotsChecker_FetchFailureAllows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	checker := NewRobotsChecker(&http.Client{Timeout: time.Second}, "dossier-test/1.0")
	allowed, _, err := checker.CanFetch(context.Background(), url+"/page")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !allowed {
		t.Error("Unreachable robots.txt should allow by default")
	}
}

func TestRobotsChecker_BadURL(t *testing.T) {
	checker := NewRobotsChecker(&http.Client{}, "dossier-test/1.0")
	if _, _, err := checker.CanFetch(context.Background(), "http://bad url.test/"); err == nil {
		t.Error("Expected error for unparseable URL")
	}
}

func TestProductToken(t *testing.T) {
	tests := []struct {
		ua   string
		want string
	}{
		{"Dossier/0.3 (+https://github.com/mtautner/dossier)", "Dossier"},
		{"curl/8.0", "curl"},
		{"plain-agent", "plain-agent"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := productToken(tt.ua); got != tt.want {
			t.Errorf("productToken(%q) = %q, want %q", tt.ua, got, tt.want)
		}
	}
}
