package search

import (
	"net/url"

	"github.com/PuerkitoBio/goquery"
)

// extractResultLinks pulls organic result URLs out of a search engine
// results page. Both tiers feed their HTML through here so they agree on
// what counts as a result.
//
// Selectors follow the engine's markup for organic results: the
// ".yuRUbf > a" wrapper on rendered pages, and the legacy "/url?q=..."
// redirect anchors on the no-JS variant. Links are filtered to absolute
// HTTP(S) URLs, deduplicated in order, and truncated to max.
func extractResultLinks(doc *goquery.Document, max int) []string {
	var raw []string

	doc.Find("div.yuRUbf > a[href]").Each(func(_ int, sel *goquery.Selection) {
		if href, ok := sel.Attr("href"); ok {
			raw = append(raw, href)
		}
	})

	if len(raw) == 0 {
		doc.Find(`a[href^="/url?q="]`).Each(func(_ int, sel *goquery.Selection) {
			href, _ := sel.Attr("href")
			if target := redirectTarget(href); target != "" {
				raw = append(raw, target)
			}
		})
	}

	seen := make(map[string]bool, len(raw))
	links := make([]string, 0, max)
	for _, link := range raw {
		if !isAbsoluteHTTP(link) || seen[link] {
			continue
		}
		seen[link] = true
		links = append(links, link)
		if len(links) == max {
			break
		}
	}
	return links
}

// redirectTarget unwraps a "/url?q=<target>&..." redirect href.
func redirectTarget(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return u.Query().Get("q")
}

func isAbsoluteHTTP(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
