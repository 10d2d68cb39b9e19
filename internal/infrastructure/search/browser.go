package search

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
)

// BrowserSession owns the process-wide headless browser used by the
// rendered search tier. The underlying browser is started lazily on first
// use and shared across concurrent searches, each of which opens its own
// tab. Release must be called exactly once at shutdown and is safe against
// repeated signals.
type BrowserSession struct {
	headless bool

	initOnce    sync.Once
	releaseOnce sync.Once

	allocCtx    context.Context
	allocCancel context.CancelFunc
	initErr     error
}

// NewBrowserSession prepares a lazily-initialized browser session. No
// browser process is started until the first search needs one.
func NewBrowserSession(headless bool) *BrowserSession {
	return &BrowserSession{headless: headless}
}

func (s *BrowserSession) init() {
	s.initOnce.Do(func() {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", s.headless),
			chromedp.UserAgent(browserUserAgent),
			chromedp.Flag("lang", "en-US"),
		)
		s.allocCtx, s.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
		log.Printf("[SEARCH] browser session initialized (headless=%v)", s.headless)
	})
}

// NewTab returns a tab context bound to the shared browser, and its cancel
// function. Cancelling the tab does not tear down the session.
func (s *BrowserSession) NewTab(ctx context.Context) (context.Context, context.CancelFunc) {
	s.init()
	tabCtx, tabCancel := chromedp.NewContext(s.allocCtx)
	if deadline, ok := ctx.Deadline(); ok {
		var timeoutCancel context.CancelFunc
		tabCtx, timeoutCancel = context.WithDeadline(tabCtx, deadline)
		return tabCtx, func() { timeoutCancel(); tabCancel() }
	}
	return tabCtx, tabCancel
}

// Release shuts the browser down. Idempotent: the first call wins, later
// calls (repeated shutdown signals) are no-ops.
func (s *BrowserSession) Release() {
	s.releaseOnce.Do(func() {
		if s.allocCancel != nil {
			s.allocCancel()
			log.Printf("[SEARCH] browser session released")
		}
	})
}

// BrowserTier renders the search engine results page in the shared browser
// session and extracts result anchors from the rendered DOM. It carries the
// anti-bot weight the plain-HTTP tier cannot.
type BrowserTier struct {
	session    *BrowserSession
	baseURL    string
	maxResults int
	timeout    time.Duration
}

// NewBrowserTier creates the browser-rendered search tier on top of a
// shared session.
func NewBrowserTier(session *BrowserSession, baseURL string, maxResults int, timeout time.Duration) *BrowserTier {
	if maxResults <= 0 {
		maxResults = 5
	}
	return &BrowserTier{
		session:    session,
		baseURL:    baseURL,
		maxResults: maxResults,
		timeout:    timeout,
	}
}

func (t *BrowserTier) Name() string { return "browser" }

// Search navigates a fresh tab to the results page, waits for the body to
// render, and parses the rendered HTML. One attempt; errors bubble to the
// provider for fallback.
func (t *BrowserTier) Search(ctx context.Context, query string) ([]string, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	tabCtx, tabCancel := t.session.NewTab(ctx)
	defer tabCancel()

	reqURL := fmt.Sprintf("%s?q=%s", t.baseURL, url.QueryEscape(query))

	var html string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(reqURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("browser navigation failed: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse rendered page: %w", err)
	}

	links := extractResultLinks(doc, t.maxResults)
	log.Printf("[SEARCH] browser tier: %d result(s) for %q", len(links), query)
	return links, nil
}
