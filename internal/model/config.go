package model

import "time"

// Config holds the full runtime configuration. Values merge from four
// layers: CLI flags, DOSSIER_* environment variables, the config file
// (~/.dossier/config.yaml), and the defaults below.
type Config struct {
	Resolver    ResolverConfig    `yaml:"resolver" mapstructure:"resolver"`
	CrossRef    CrossRefConfig    `yaml:"crossref" mapstructure:"crossref"`
	Chains      ChainsConfig      `yaml:"chains" mapstructure:"chains"`
	HTTP        HTTPConfig        `yaml:"http" mapstructure:"http"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit" mapstructure:"rate_limit"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Enrichment  EnrichmentConfig  `yaml:"enrichment" mapstructure:"enrichment"`
	Sanctions   SanctionsConfig   `yaml:"sanctions" mapstructure:"sanctions"`
	Authority   AuthorityConfig   `yaml:"authority" mapstructure:"authority"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
}

// ResolverConfig controls entity resolution.
type ResolverConfig struct {
	// Threshold is the minimum similarity for two names to join a cluster
	Threshold float64 `yaml:"threshold" mapstructure:"threshold"`

	// NameColumns overrides automatic name-column detection (CSV header names)
	NameColumns []string `yaml:"name_columns" mapstructure:"name_columns"`

	// German enables German-aware normalization (umlaut folding, titles, courts)
	German bool `yaml:"german" mapstructure:"german"`
}

// CrossRefConfig controls cross-dataset reference linking.
type CrossRefConfig struct {
	// MinDatasets is the minimum distinct datasets an entity must span
	MinDatasets int `yaml:"min_datasets" mapstructure:"min_datasets"`
}

// ChainsConfig controls evidence chain validation.
type ChainsConfig struct {
	// Strict promotes warnings to failures
	Strict bool `yaml:"strict" mapstructure:"strict"`
}

// HTTPConfig controls outbound fetching (sanctions download, enrichment).
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	InsecureTLS  bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`

	// Proxy settings (empty means use environment)
	HTTPProxy  string `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy    string `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// CacheConfig controls the fetch cache under <workspace>/.dossier/cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// RateLimitConfig throttles outbound requests per host.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
}

// ConcurrencyConfig sizes the worker pools.
type ConcurrencyConfig struct {
	// ResolveWorkers score similarity blocks in parallel
	ResolveWorkers int `yaml:"resolve_workers" mapstructure:"resolve_workers"`

	// FetchWorkers run enrichment lookups in parallel
	FetchWorkers int `yaml:"fetch_workers" mapstructure:"fetch_workers"`
}

// EnrichmentConfig controls web-search enrichment of resolved entities.
type EnrichmentConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Limit   int    `yaml:"limit" mapstructure:"limit"` // max results kept per entity
}

// SanctionsConfig controls the OFAC SDN list download.
type SanctionsConfig struct {
	URL     string        `yaml:"url" mapstructure:"url"`
	Refresh time.Duration `yaml:"refresh" mapstructure:"refresh"` // re-download when older
}

// PathPattern maps a URL path regexp to an authority tier name.
type PathPattern struct {
	Pattern string `yaml:"pattern" mapstructure:"pattern"`
	Tier    string `yaml:"tier" mapstructure:"tier"`
}

// AuthorityConfig classifies enrichment sources into authority tiers.
type AuthorityConfig struct {
	PrimaryDomains   []string          `yaml:"primary_domains" mapstructure:"primary_domains"`
	SecondaryDomains []string          `yaml:"secondary_domains" mapstructure:"secondary_domains"`
	PathPatterns     []PathPattern     `yaml:"path_patterns" mapstructure:"path_patterns"`
	DomainMap        map[string]string `yaml:"domain_map" mapstructure:"domain_map"`
}

// LLMConfig controls optional brief generation. The provider only ever
// summarizes scored artifacts; it never influences tiers.
type LLMConfig struct {
	Provider       string `yaml:"provider" mapstructure:"provider"` // "openai", "ollama", "" (disabled)
	Model          string `yaml:"model" mapstructure:"model"`
	APIKey         string `yaml:"-" mapstructure:"api_key"` // never serialized to disk
	BaseURL        string `yaml:"base_url" mapstructure:"base_url"`
	Timeout        int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	StrictEvidence bool   `yaml:"strict_evidence" mapstructure:"strict_evidence"`
	MaxTokens      int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// StoreConfig controls the run-history database.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"` // default <workspace>/.dossier/dossier.db
}

// OutputConfig controls terminal and log output.
type OutputConfig struct {
	Verbose  bool   `yaml:"verbose" mapstructure:"verbose"`
	LogLevel string `yaml:"log_level" mapstructure:"log_level"` // trace..panic, zerolog names
	NoColor  bool   `yaml:"no_color" mapstructure:"no_color"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Resolver: ResolverConfig{
			Threshold: 0.85,
		},
		CrossRef: CrossRefConfig{
			MinDatasets: 2,
		},
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "Dossier/0.3 (+https://github.com/mtautner/dossier)",
			MaxBodyBytes: 20_000_000,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     24 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 2,
			Burst:             4,
		},
		Concurrency: ConcurrencyConfig{
			ResolveWorkers: 4,
			FetchWorkers:   4,
		},
		Enrichment: EnrichmentConfig{
			BaseURL: "https://html.duckduckgo.com/html/",
			Limit:   5,
		},
		Sanctions: SanctionsConfig{
			URL:     "https://www.treasury.gov/ofac/downloads/sdn.csv",
			Refresh: 7 * 24 * time.Hour,
		},
		Authority: AuthorityConfig{
			PrimaryDomains: []string{
				"treasury.gov",
				"sec.gov",
				"justice.gov",
				"handelsregister.de",
				"unternehmensregister.de",
				"bundesanzeiger.de",
				"companieshouse.gov.uk",
				"opencorporates.com",
			},
			SecondaryDomains: []string{
				"icij.org",
				"occrp.org",
				"offshoreleaks.icij.org",
				"northdata.de",
				"reuters.com",
				"bloomberg.com",
			},
		},
		LLM: LLMConfig{
			Provider:       "", // Disabled by default
			Timeout:        30,
			StrictEvidence: true,
			MaxTokens:      1500,
		},
		Store: StoreConfig{
			Enabled: true,
		},
		Output: OutputConfig{
			LogLevel: "info",
		},
	}
}
