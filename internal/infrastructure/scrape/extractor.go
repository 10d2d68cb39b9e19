package scrape

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/sdslens/backend/internal/domain"
)

// sizeRegex matches quantity declarations like "500ml" or "2.5 kg"
// anywhere in the page's visible text.
var sizeRegex = regexp.MustCompile(`(?i)\d+(\.\d+)?\s?(ml|g|kg|oz|l)`)

// sdsMarkers flag a PDF link as a safety data sheet when found in its href
// or link text.
var sdsMarkers = []string{"sds", "msds", "safety"}

// page bundles a parsed document with the URL it was fetched from, which
// anchors relative-link resolution and the host fallback.
type page struct {
	doc  *goquery.Document
	base *url.URL
}

// strategy is one named heuristic for one field. Strategies run in order;
// the first non-empty answer wins.
type strategy struct {
	name  string
	apply func(p *page) string
}

var nameStrategies = []strategy{
	{"first-h1", func(p *page) string {
		return strings.TrimSpace(p.doc.Find("h1").First().Text())
	}},
}

var manufacturerStrategies = []strategy{
	{"itemprop-manufacturer", func(p *page) string {
		return strings.TrimSpace(p.doc.Find(`[itemprop="manufacturer"]`).First().Text())
	}},
	{"brand-class", func(p *page) string {
		return strings.TrimSpace(p.doc.Find(".brand").First().Text())
	}},
	{"url-host", func(p *page) string {
		return p.base.Hostname()
	}},
}

var sizeStrategies = []strategy{
	{"visible-text-regex", func(p *page) string {
		return sizeRegex.FindString(p.doc.Find("body").Text())
	}},
}

var sdsStrategies = []strategy{
	{"pdf-anchor", findSDSAnchor},
}

// Extractor fetches candidate pages and applies the field heuristics.
type Extractor struct {
	httpClient *http.Client
}

// NewExtractor creates a field extractor with a per-fetch timeout.
func NewExtractor(timeout time.Duration) *Extractor {
	return &Extractor{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Extract implements domain.FieldExtractor. It fetches the page and runs
// the ordered strategies per field. Any network or parse error yields nil:
// the caller drops the candidate and the batch carries on.
func (e *Extractor) Extract(ctx context.Context, pageURL string) *domain.ExtractedFields {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		log.Printf("[SCRAPE] bad candidate URL %q: %v", pageURL, err)
		return nil
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		log.Printf("[SCRAPE] fetch failed for %q: %v", pageURL, err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[SCRAPE] fetch for %q returned status %d", pageURL, resp.StatusCode)
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		log.Printf("[SCRAPE] parse failed for %q: %v", pageURL, err)
		return nil
	}

	// Redirects may have moved us; resolve links against where we landed.
	base := resp.Request.URL
	return extractFields(&page{doc: doc, base: base}, pageURL)
}

func extractFields(p *page, pageURL string) *domain.ExtractedFields {
	return &domain.ExtractedFields{
		URL:          pageURL,
		Name:         firstMatch(nameStrategies, p),
		Manufacturer: firstMatch(manufacturerStrategies, p),
		Size:         firstMatch(sizeStrategies, p),
		SDSURL:       firstMatch(sdsStrategies, p),
	}
}

func firstMatch(strategies []strategy, p *page) string {
	for _, s := range strategies {
		if v := s.apply(p); v != "" {
			return v
		}
	}
	return ""
}

// findSDSAnchor scans anchors whose href ends in .pdf and returns the first
// one whose href or text mentions a safety-data-sheet marker, resolved to
// an absolute URL against the page base.
func findSDSAnchor(p *page) string {
	var found string
	p.doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		if !strings.HasSuffix(strings.ToLower(href), ".pdf") {
			return true
		}
		haystack := strings.ToLower(href + " " + sel.Text())
		for _, marker := range sdsMarkers {
			if strings.Contains(haystack, marker) {
				found = resolveURL(p.base, href)
				return false
			}
		}
		return true
	})
	return found
}

func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base == nil {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}
