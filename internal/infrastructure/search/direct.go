package search

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/sdslens/backend/internal/domain"
)

const (
	// browserUserAgent makes the plain-HTTP tier look like a real browser;
	// the engine serves a stripped no-JS results page to it.
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"
	acceptLanguage   = "en-US,en;q=0.9"
)

// DirectTier fetches the search engine results page over plain HTTP and
// parses result anchors out of the returned HTML. It is the fallback for
// the browser-rendered tier.
type DirectTier struct {
	httpClient  *http.Client
	baseURL     string
	maxResults  int
	rateLimiter *rate.Limiter
}

// NewDirectTier creates the direct-fetch search tier. ratePerSec bounds
// outbound requests to the engine; burst allows short spikes.
func NewDirectTier(baseURL string, maxResults int, timeout time.Duration, ratePerSec float64, burst int) *DirectTier {
	if maxResults <= 0 {
		maxResults = 5
	}
	if ratePerSec <= 0 {
		ratePerSec = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &DirectTier{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     baseURL,
		maxResults:  maxResults,
		rateLimiter: rate.NewLimiter(rate.Limit(ratePerSec), burst),
	}
}

func (t *DirectTier) Name() string { return "direct" }

// Search runs one query against the engine. A single attempt: failures are
// returned to the provider, which treats them as the end of the line.
func (t *DirectTier) Search(ctx context.Context, query string) ([]string, error) {
	if err := t.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	reqURL := fmt.Sprintf("%s?q=%s", t.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept-Language", acceptLanguage)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSearchFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", domain.ErrSearchFailure, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse results page: %w", err)
	}

	links := extractResultLinks(doc, t.maxResults)
	log.Printf("[SEARCH] direct tier: %d result(s) for %q", len(links), query)
	return links, nil
}
