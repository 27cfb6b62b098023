package connector

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/mtautner/dossier/internal/model"
)

// Searcher runs web lookups for canonical entities against an HTML
// search endpoint and distills the result page into an enrichment
// artifact. Enrichment is context for the analyst; it never changes a
// confidence tier.
type Searcher struct {
	fetcher    *Fetcher
	classifier *AuthorityClassifier
	baseURL    string
	limit      int
}

// NewSearcher applies defaults for a zero base URL or result limit.
func NewSearcher(fetcher *Fetcher, classifier *AuthorityClassifier, cfg model.EnrichmentConfig) *Searcher {
	def := model.DefaultConfig().Enrichment
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Limit <= 0 {
		cfg.Limit = def.Limit
	}
	return &Searcher{
		fetcher:    fetcher,
		classifier: classifier,
		baseURL:    cfg.BaseURL,
		limit:      cfg.Limit,
	}
}

// SearchHit is one outbound link from the result page.
type SearchHit struct {
	URL       string     `json:"url"`
	Title     string     `json:"title"`
	Authority SourceTier `json:"authority"`
}

// Enrichment is the on-disk shape of enrichment/<entity_id>.json.
type Enrichment struct {
	EntityID  string      `json:"entity_id"`
	Name      string      `json:"name"`
	Query     string      `json:"query"`
	Source    string      `json:"source"` // final URL of the result page
	FetchedAt time.Time   `json:"fetched_at"`
	Hits      []SearchHit `json:"hits"`
	Mentions  []string    `json:"mentions,omitempty"` // sentences naming a variant
}

// Enrich looks up one entity by its canonical name and returns the
// classified hits plus any result-page sentences that mention a known
// name variant.
func (s *Searcher) Enrich(ctx context.Context, e *model.CanonicalEntity) (*Enrichment, error) {
	query := `"` + e.Name + `"`
	target, err := s.queryURL(query)
	if err != nil {
		return nil, err
	}

	res, err := s.fetcher.FetchWithRetry(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", e.ID, err)
	}

	doc, err := html.Parse(bytes.NewReader(res.Body))
	if err != nil {
		return nil, fmt.Errorf("parse result page: %w", err)
	}

	return &Enrichment{
		EntityID:  e.ID,
		Name:      e.Name,
		Query:     query,
		Source:    res.FinalURL,
		FetchedAt: time.Now().UTC(),
		Hits:      s.collectHits(doc, res.FinalURL),
		Mentions:  mentionsOf(splitSentences(visibleText(doc)), e),
	}, nil
}

func (s *Searcher) queryURL(query string) (string, error) {
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse search base URL: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// collectHits walks the parsed page for outbound anchors. Links back to
// the search host are navigation, not results, and are dropped along
// with anything relative or untitled.
func (s *Searcher) collectHits(doc *html.Node, pageURL string) []SearchHit {
	searchHost := hostOf(pageURL)

	var hits []SearchHit
	seen := make(map[string]bool)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if len(hits) >= s.limit {
			return
		}
		if n.Type == html.ElementNode && n.Data == "a" {
			if hit, ok := s.hitFrom(n, searchHost); ok && !seen[hit.URL] {
				seen[hit.URL] = true
				hits = append(hits, hit)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return hits
}

func (s *Searcher) hitFrom(n *html.Node, searchHost string) (SearchHit, bool) {
	var href string
	for _, attr := range n.Attr {
		if attr.Key == "href" {
			href = strings.TrimSpace(attr.Val)
			break
		}
	}
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
		return SearchHit{}, false
	}

	href = unwrapRedirect(href)

	parsed, err := url.Parse(href)
	if err != nil || parsed.Host == "" || parsed.Host == searchHost {
		return SearchHit{}, false
	}
	if parsed.Scheme != "" && parsed.Scheme != "http" && parsed.Scheme != "https" {
		return SearchHit{}, false
	}

	title := strings.Join(strings.Fields(anchorText(n)), " ")
	if title == "" {
		return SearchHit{}, false
	}

	return SearchHit{URL: href, Title: title, Authority: s.classifier.Classify(href)}, true
}

// unwrapRedirect resolves the indirection layer search engines put in
// front of result links (DuckDuckGo's /l/?uddg=<target>).
func unwrapRedirect(href string) string {
	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}
	if strings.HasSuffix(parsed.Host, "duckduckgo.com") && strings.HasPrefix(parsed.Path, "/l/") {
		if target := parsed.Query().Get("uddg"); target != "" {
			return target
		}
	}
	return href
}

func anchorText(n *html.Node) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return buf.String()
}

// visibleText flattens the page's text nodes, skipping script and style
// subtrees.
func visibleText(doc *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			}
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return buf.String()
}

// splitSentences cuts flattened page text at sentence terminators,
// keeping only pieces long enough to carry meaning and short enough to
// be a sentence rather than a nav bar.
func splitSentences(text string) []string {
	text = strings.ReplaceAll(text, "\n", " ")

	var sentences []string
	var current strings.Builder

	keep := func() {
		sentence := strings.TrimSpace(current.String())
		if len(sentence) >= 30 && len(sentence) <= 500 {
			sentences = append(sentences, sentence)
		}
		current.Reset()
	}

	for i, r := range text {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			// Split only at terminator+space so dotted tokens survive
			if i+1 < len(text) && (text[i+1] == ' ' || text[i+1] == '\t') {
				keep()
			}
		}
	}
	if current.Len() > 0 {
		keep()
	}

	return sentences
}

// mentionsOf keeps the sentences naming any of the entity's variants,
// deduplicated case-insensitively.
func mentionsOf(sentences []string, e *model.CanonicalEntity) []string {
	names := make([]string, 0, len(e.Variants)+1)
	seenName := make(map[string]bool)
	for _, v := range append([]model.Variant{{Name: e.Name}}, e.Variants...) {
		lower := strings.ToLower(strings.TrimSpace(v.Name))
		if lower != "" && !seenName[lower] {
			seenName[lower] = true
			names = append(names, lower)
		}
	}

	var mentions []string
	seen := make(map[string]bool)
	for _, sentence := range sentences {
		lower := strings.ToLower(sentence)
		if seen[lower] {
			continue
		}
		for _, name := range names {
			if strings.Contains(lower, name) {
				seen[lower] = true
				mentions = append(mentions, sentence)
				break
			}
		}
	}

	return mentions
}
