// Package connector talks to the outside world: the OFAC sanctions
// download and web-search enrichment. All outbound HTTP goes through one
// Fetcher that caches bodies, throttles per host, and honors robots.txt,
// so repeated runs against the same registries stay polite.
package connector

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mtautner/dossier/internal/cache"
	"github.com/mtautner/dossier/internal/model"
	"github.com/mtautner/dossier/internal/worker"
)

// ErrRobotsDisallowed marks URLs the target host's robots.txt rules out.
var ErrRobotsDisallowed = errors.New("blocked by robots.txt")

// fetchSleepFunc is replaced in tests to skip backoff waits.
var fetchSleepFunc = time.Sleep

const fetchAttempts = 3

// Fetcher retrieves URLs on behalf of the connectors. A nil cache store
// or limiter disables that layer; robots checks are always on.
type Fetcher struct {
	client    *http.Client
	robots    *RobotsChecker
	store     cache.Cache
	limiter   *worker.Limiter
	userAgent string
	maxBytes  int64
	ttl       time.Duration
}

// NewFetcher builds a fetcher from the HTTP and cache configuration.
// store and limiter may be nil.
func NewFetcher(cfg *model.Config, store cache.Cache, limiter *worker.Limiter) *Fetcher {
	transport := &http.Transport{
		Proxy: newProxyFunc(cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy),
	}
	if cfg.HTTP.InsecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	client := &http.Client{
		Timeout:   cfg.HTTP.Timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 3 {
				return errors.New("stopped after 3 redirects")
			}
			return nil
		},
	}

	return &Fetcher{
		client:    client,
		robots:    NewRobotsChecker(client, cfg.HTTP.UserAgent),
		store:     store,
		limiter:   limiter,
		userAgent: cfg.HTTP.UserAgent,
		maxBytes:  cfg.HTTP.MaxBodyBytes,
		ttl:       cfg.Cache.TTL,
	}
}

// FetchResult is one retrieved body with enough response metadata for
// the connectors to decide what to do with it.
type FetchResult struct {
	Body        []byte
	StatusCode  int
	ContentType string
	FinalURL    string
	FromCache   bool
}

// Fetch retrieves rawURL. Cached bodies are served without touching the
// network; fresh fetches consult robots.txt and wait for a rate token
// before going out.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	key := cache.Key(rawURL)
	if f.store != nil {
		if body, ok := f.store.Get(key); ok {
			return &FetchResult{Body: body, StatusCode: http.StatusOK, FinalURL: rawURL, FromCache: true}, nil
		}
	}

	allowed, delay, err := f.robots.CanFetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, fmt.Errorf("%s: %w", rawURL, ErrRobotsDisallowed)
	}
	if delay > 0 && f.limiter != nil {
		if host := hostOf(rawURL); host != "" {
			f.limiter.SetHostRate(host, 1/delay.Seconds(), 1)
		}
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, rawURL); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if f.store != nil {
		_ = f.store.Set(key, body, f.ttl)
	}

	return &FetchResult{
		Body:        body,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		FinalURL:    resp.Request.URL.String(),
	}, nil
}

// FetchWithRetry retries transient failures (5xx, 429, dropped
// connections) with a linear backoff. Permanent failures (client
// errors, robots denials, malformed URLs) fail on the first attempt.
func (f *Fetcher) FetchWithRetry(ctx context.Context, rawURL string) (*FetchResult, error) {
	var lastErr error
	for attempt := 1; attempt <= fetchAttempts; attempt++ {
		res, err := f.Fetch(ctx, rawURL)
		if err == nil {
			return res, nil
		}
		lastErr = err
		if !isRetryableFetchError(err) {
			return nil, err
		}
		if attempt < fetchAttempts {
			fetchSleepFunc(time.Duration(attempt) * 500 * time.Millisecond)
		}
	}
	return nil, lastErr
}

func isRetryableFetchError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, code := range []string{"429", "500", "502", "503", "504"} {
		if strings.Contains(msg, "unexpected status: "+code) {
			return true
		}
	}
	return strings.Contains(msg, "connection refused") || strings.Contains(msg, "connection reset")
}

func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return parsed.Host
}
