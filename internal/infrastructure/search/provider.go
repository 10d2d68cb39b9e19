package search

import (
	"context"
	"log"
)

// Tier is one search strategy in the fallback chain.
type Tier interface {
	Name() string
	Search(ctx context.Context, query string) ([]string, error)
}

// Provider runs the tiers in order and returns the first non-empty result
// set. Tier errors are swallowed and logged; a tier that fails or comes
// back empty just hands control to the next one. When every tier fails the
// provider returns an empty slice, never an error: resolution proceeds with
// zero candidates.
type Provider struct {
	tiers []Tier
}

// NewProvider builds a provider over the given tiers, tried in argument
// order. Nil tiers are skipped so callers can wire an optional browser
// tier unconditionally.
func NewProvider(tiers ...Tier) *Provider {
	kept := make([]Tier, 0, len(tiers))
	for _, t := range tiers {
		if t != nil {
			kept = append(kept, t)
		}
	}
	return &Provider{tiers: kept}
}

// Search implements domain.SearchProvider.
func (p *Provider) Search(ctx context.Context, query string) []string {
	for _, tier := range p.tiers {
		links, err := tier.Search(ctx, query)
		if err != nil {
			log.Printf("[SEARCH] %s tier failed for %q: %v", tier.Name(), query, err)
			continue
		}
		if len(links) == 0 {
			log.Printf("[SEARCH] %s tier returned no results for %q", tier.Name(), query)
			continue
		}
		return links
	}
	return nil
}
