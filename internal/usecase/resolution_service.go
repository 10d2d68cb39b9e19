package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/sdslens/backend/internal/domain"
)

// ResolutionServiceConfig holds configuration for the resolution service
type ResolutionServiceConfig struct {
	MaxConcurrentExtractions int
}

// ResolutionService resolves a barcode to a product record.
// Flow: check store -> on miss search the web -> scrape candidates
// concurrently -> pick top candidate -> secondary SDS lookup -> persist.
type ResolutionService struct {
	store         domain.ProductRepository
	searcher      domain.SearchProvider
	extractor     domain.FieldExtractor
	maxConcurrent int
}

// NewResolutionService creates a resolution service with dependencies
func NewResolutionService(
	store domain.ProductRepository,
	searcher domain.SearchProvider,
	extractor domain.FieldExtractor,
	config ResolutionServiceConfig,
) *ResolutionService {
	maxConcurrent := config.MaxConcurrentExtractions
	if maxConcurrent <= 0 {
		maxConcurrent = 5 // matches the search result cap
	}
	return &ResolutionService{
		store:         store,
		searcher:      searcher,
		extractor:     extractor,
		maxConcurrent: maxConcurrent,
	}
}

// Resolve looks up a barcode. A stored record is returned immediately with
// no network traffic: a barcode is scraped from the web at most once, every
// later resolution is served from the store. On a miss the scrape result is
// persisted before returning, even when every field came back empty.
//
// Store failures are fatal to the request. Search and scrape failures only
// degrade the candidate set; zero candidates is still a success.
func (s *ResolutionService) Resolve(ctx context.Context, barcode string) (*domain.ResolveResult, error) {
	if strings.TrimSpace(barcode) == "" {
		return nil, domain.ErrInvalidRequest
	}

	record, err := s.store.GetByBarcode(ctx, barcode)
	if err == nil {
		log.Printf("[RESOLVE] cache hit for barcode %q", barcode)
		return &domain.ResolveResult{
			Barcode:   barcode,
			Product:   record,
			FromCache: true,
		}, nil
	}
	if !errors.Is(err, domain.ErrProductNotFound) {
		return nil, err
	}

	log.Printf("[RESOLVE] cache miss for barcode %q, searching", barcode)
	urls := s.searcher.Search(ctx, "barcode "+barcode)
	candidates := s.extractAll(ctx, urls)
	top := pickTopCandidate(candidates)

	if top.SDSURL == "" {
		top.SDSURL = s.searchSDSLink(ctx, barcode)
	}

	record = &domain.ProductRecord{
		Barcode:      barcode,
		Name:         top.Name,
		Manufacturer: top.Manufacturer,
		Size:         top.Size,
	}
	if top.SDSURL != "" {
		record.SDSURL = &top.SDSURL
	}

	if err := s.store.Upsert(ctx, record); err != nil {
		return nil, err
	}

	log.Printf("[RESOLVE] stored barcode %q (name=%q, %d candidate(s))",
		barcode, record.Name, len(candidates))
	return &domain.ResolveResult{
		Barcode:    barcode,
		Product:    record,
		Candidates: candidates,
	}, nil
}

// Confirm overwrites the stored name and size with user-confirmed values.
// This is the only path that replaces scraped fields; manufacturer and the
// SDS link survive from the existing record when one exists.
func (s *ResolutionService) Confirm(ctx context.Context, barcode, name, size string) (*domain.ProductRecord, error) {
	if strings.TrimSpace(barcode) == "" {
		return nil, domain.ErrInvalidRequest
	}

	record, err := s.store.GetByBarcode(ctx, barcode)
	if errors.Is(err, domain.ErrProductNotFound) {
		record = &domain.ProductRecord{Barcode: barcode}
	} else if err != nil {
		return nil, err
	}

	record.Name = name
	record.Size = size
	if err := s.store.Upsert(ctx, record); err != nil {
		return nil, err
	}

	log.Printf("[RESOLVE] confirmed barcode %q (name=%q, size=%q)", barcode, name, size)
	return record, nil
}

// extractAll scrapes every candidate URL with bounded concurrency and
// returns the successful extractions in original search rank order.
func (s *ResolutionService) extractAll(ctx context.Context, urls []string) []domain.ExtractedFields {
	if len(urls) == 0 {
		return nil
	}

	results := make([]*domain.ExtractedFields, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)

	for i, candidateURL := range urls {
		g.Go(func() error {
			results[i] = s.extractor.Extract(gctx, candidateURL)
			return nil
		})
	}
	// Workers never return errors; failed extractions are nil slots.
	_ = g.Wait()

	extracted := make([]domain.ExtractedFields, 0, len(urls))
	for _, fields := range results {
		if fields != nil {
			extracted = append(extracted, *fields)
		}
	}
	return extracted
}

// pickTopCandidate selects the candidate to persist: the first (by search
// rank) with a non-empty name, else the first successful extraction, else
// an all-empty record.
func pickTopCandidate(candidates []domain.ExtractedFields) domain.ExtractedFields {
	for _, c := range candidates {
		if c.Name != "" {
			return c
		}
	}
	if len(candidates) > 0 {
		return candidates[0]
	}
	return domain.ExtractedFields{}
}

// searchSDSLink runs the secondary direct query for a safety-data-sheet
// PDF. Best effort, one attempt: the first returned URL that is itself a
// PDF wins, anything else leaves the field empty.
func (s *ResolutionService) searchSDSLink(ctx context.Context, barcode string) string {
	query := fmt.Sprintf("%s sds pdf", barcode)
	for _, link := range s.searcher.Search(ctx, query) {
		if strings.HasSuffix(strings.ToLower(link), ".pdf") {
			log.Printf("[RESOLVE] secondary SDS search hit for %q: %s", barcode, link)
			return link
		}
	}
	return ""
}
