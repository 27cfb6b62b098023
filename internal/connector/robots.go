package connector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// RobotsChecker answers whether a URL may be fetched, caching one parsed
// robots.txt per host for the life of the run. A host whose robots.txt
// cannot be fetched or parsed is treated as allowing everything; a 404
// is cached the same way so the host is asked only once.
type RobotsChecker struct {
	client *http.Client
	agent  string

	mu     sync.RWMutex
	byHost map[string]*robotstxt.RobotsData
}

// NewRobotsChecker shares the fetcher's HTTP client. Robots groups match
// on the product token, so "Dossier/0.3 (+https://...)" is checked as
// "Dossier".
func NewRobotsChecker(client *http.Client, userAgent string) *RobotsChecker {
	return &RobotsChecker{
		client: client,
		agent:  productToken(userAgent),
		byHost: make(map[string]*robotstxt.RobotsData),
	}
}

// CanFetch reports whether rawURL is allowed and any crawl delay the
// host requests for our agent.
func (r *RobotsChecker) CanFetch(ctx context.Context, rawURL string) (bool, time.Duration, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false, 0, fmt.Errorf("parse URL: %w", err)
	}

	data, err := r.dataFor(ctx, parsed)
	if err != nil {
		// Unable to retrieve the policy: allow, do not punish the target
		return true, 0, nil
	}

	allowed := data.TestAgent(parsed.Path, r.agent)

	var delay time.Duration
	if group := data.FindGroup(r.agent); group != nil {
		delay = group.CrawlDelay
	}

	return allowed, delay, nil
}

// Clear drops all cached policies.
func (r *RobotsChecker) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byHost = make(map[string]*robotstxt.RobotsData)
}

func (r *RobotsChecker) dataFor(ctx context.Context, target *url.URL) (*robotstxt.RobotsData, error) {
	r.mu.RLock()
	data, ok := r.byHost[target.Host]
	r.mu.RUnlock()
	if ok {
		return data, nil
	}

	robotsURL := fmt.Sprintf("%s://%s/robots.txt", target.Scheme, target.Host)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", r.agent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		data, _ = robotstxt.FromStatusAndBytes(http.StatusNotFound, nil)
	} else {
		data, err = robotstxt.FromResponse(resp)
		if err != nil {
			return nil, fmt.Errorf("parse robots.txt: %w", err)
		}
	}

	r.mu.Lock()
	r.byHost[target.Host] = data
	r.mu.Unlock()

	return data, nil
}

// productToken reduces a full User-Agent header to the bare product name.
func productToken(ua string) string {
	fields := strings.Fields(ua)
	if len(fields) == 0 {
		return ua
	}
	return strings.Split(fields[0], "/")[0]
}
