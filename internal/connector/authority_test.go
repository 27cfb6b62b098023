package connector

import (
	"testing"

	"github.com/mtautner/dossier/internal/model"
)

func TestAuthorityClassifier_DefaultDomains(t *testing.T) {
	classifier := NewAuthorityClassifier(nil)

	tests := []struct {
		url  string
		want SourceTier
	}{
		{"https://www.treasury.gov/ofac/downloads/sdn.csv", SourcePrimary},
		{"https://sec.gov/cgi-bin/browse-edgar", SourcePrimary},
		{"https://efts.sec.gov/LATEST/search-index?q=acme", SourcePrimary},
		{"https://opencorporates.com/companies/de/123", SourcePrimary},
		{"https://www.icij.org/investigations/panama-papers/", SourceSecondary},
		{"https://offshoreleaks.icij.org/nodes/12345", SourceSecondary},
		{"https://www.reuters.com/markets/acme", SourceSecondary},
		{"https://example.com/blog/acme", SourceTertiary},
		{"https://cityofspringfield.gov/records", SourcePrimary},
		{"https://registry.mit.edu/entities", SourcePrimary},
		{"https://research.ox.ac.uk/companies", SourcePrimary},
		{"https://treasury.gov:8443/ofac", SourcePrimary},
		{"http://bad url%/", SourceTertiary},
		{"", SourceTertiary},
	}

	for _, tt := range tests {
		if got := classifier.Classify(tt.url); got != tt.want {
			t.Errorf("Classify(%q) = %s, want %s", tt.url, got, tt.want)
		}
	}
}

func TestAuthorityClassifier_DomainMapOverrides(t *testing.T) {
	cfg := model.DefaultConfig().Authority
	cfg.DomainMap = map[string]string{
		"reuters.com":      "tertiary",
		"blog.example.net": "Primary", // case-insensitive
	}
	classifier := NewAuthorityClassifier(&cfg)

	if got := classifier.Classify("https://reuters.com/markets"); got != SourceTertiary {
		t.Errorf("Override should demote reuters.com, got %s", got)
	}
	if got := classifier.Classify("https://blog.example.net/post"); got != SourcePrimary {
		t.Errorf("Override should promote blog.example.net, got %s", got)
	}
	// Overrides are exact-host; subdomains still follow the domain lists
	if got := classifier.Classify("https://www.reuters.com/markets"); got != SourceSecondary {
		t.Errorf("Subdomain should keep list tier, got %s", got)
	}
}

func TestAuthorityClassifier_PathPatterns(t *testing.T) {
	cfg := &model.AuthorityConfig{
		PathPatterns: []model.PathPattern{
			{Pattern: `^/registry/`, Tier: "primary"},
			{Pattern: `^/court-filings/`, Tier: "secondary"},
			{Pattern: `(unbalanced`, Tier: "primary"}, // dropped, never panics
		},
	}
	classifier := NewAuthorityClassifier(cfg)

	if got := classifier.Classify("https://example.org/registry/acme"); got != SourcePrimary {
		t.Errorf("Registry path should be primary, got %s", got)
	}
	if got := classifier.Classify("https://example.org/court-filings/2024"); got != SourceSecondary {
		t.Errorf("Filings path should be secondary, got %s", got)
	}
	if got := classifier.Classify("https://example.org/blog/acme"); got != SourceTertiary {
		t.Errorf("Unmatched path should be tertiary, got %s", got)
	}
}

func TestParseSourceTier(t *testing.T) {
	tests := []struct {
		in   string
		want SourceTier
	}{
		{"primary", SourcePrimary},
		{"PRIMARY", SourcePrimary},
		{"1", SourcePrimary},
		{"secondary", SourceSecondary},
		{"2", SourceSecondary},
		{"tertiary", SourceTertiary},
		{"3", SourceTertiary},
		{"nonsense", SourceTertiary},
		{"", SourceTertiary},
	}

	for _, tt := range tests {
		if got := parseSourceTier(tt.in); got != tt.want {
			t.Errorf("parseSourceTier(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
