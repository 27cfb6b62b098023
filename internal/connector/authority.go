package connector

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/mtautner/dossier/internal/model"
)

// SourceTier ranks how authoritative an enrichment source is. Primary
// covers official registries and government records, secondary the
// established investigative and financial press; everything else is
// tertiary. Source authority is reported next to each hit so an analyst
// can weigh it; it never feeds into confidence scoring.
type SourceTier string

const (
	SourcePrimary   SourceTier = "primary"
	SourceSecondary SourceTier = "secondary"
	SourceTertiary  SourceTier = "tertiary"
)

// AuthorityClassifier assigns a SourceTier to URLs based on the
// configured domain lists, per-host overrides, and path patterns.
type AuthorityClassifier struct {
	primary   map[string]bool
	secondary map[string]bool
	domainMap map[string]SourceTier
	patterns  []pathPattern
}

type pathPattern struct {
	re   *regexp.Regexp
	tier SourceTier
}

// NewAuthorityClassifier compiles the authority configuration. A nil
// config falls back to the built-in domain lists. Patterns that do not
// compile are dropped.
func NewAuthorityClassifier(cfg *model.AuthorityConfig) *AuthorityClassifier {
	if cfg == nil {
		def := model.DefaultConfig().Authority
		cfg = &def
	}

	c := &AuthorityClassifier{
		primary:   make(map[string]bool, len(cfg.PrimaryDomains)),
		secondary: make(map[string]bool, len(cfg.SecondaryDomains)),
		domainMap: make(map[string]SourceTier, len(cfg.DomainMap)),
	}
	for _, domain := range cfg.PrimaryDomains {
		c.primary[strings.ToLower(domain)] = true
	}
	for _, domain := range cfg.SecondaryDomains {
		c.secondary[strings.ToLower(domain)] = true
	}
	for host, tier := range cfg.DomainMap {
		c.domainMap[strings.ToLower(host)] = parseSourceTier(tier)
	}
	for _, p := range cfg.PathPatterns {
		re, err := regexp.Compile(p.Pattern)
		if err != nil {
			continue
		}
		c.patterns = append(c.patterns, pathPattern{re: re, tier: parseSourceTier(p.Tier)})
	}

	return c
}

// Classify maps a URL to its authority tier. Explicit per-host overrides
// win, then the primary and secondary domain lists (exact host or any
// subdomain), then path patterns, then the government and academic TLDs.
// Anything unrecognized is tertiary.
func (c *AuthorityClassifier) Classify(rawURL string) SourceTier {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return SourceTertiary
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return SourceTertiary
	}

	if tier, ok := c.domainMap[host]; ok {
		return tier
	}
	if matchDomain(c.primary, host) {
		return SourcePrimary
	}
	if matchDomain(c.secondary, host) {
		return SourceSecondary
	}

	for _, p := range c.patterns {
		if p.re.MatchString(parsed.Path) {
			return p.tier
		}
	}

	if strings.HasSuffix(host, ".gov") || strings.HasSuffix(host, ".edu") || strings.HasSuffix(host, ".ac.uk") {
		return SourcePrimary
	}

	return SourceTertiary
}

func matchDomain(set map[string]bool, host string) bool {
	if set[host] {
		return true
	}
	for domain := range set {
		if strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

func parseSourceTier(s string) SourceTier {
	switch strings.ToLower(s) {
	case "primary", "1":
		return SourcePrimary
	case "secondary", "2":
		return SourceSecondary
	default:
		return SourceTertiary
	}
}
