package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/sdslens/backend/internal/domain"
)

// fakeStore is an in-memory ProductRepository with fault injection.
type fakeStore struct {
	mu        sync.Mutex
	records   map[string]*domain.ProductRecord
	getErr    error
	upsertErr error
	upserts   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]*domain.ProductRecord)}
}

func (s *fakeStore) GetByBarcode(ctx context.Context, barcode string) (*domain.ProductRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	record, ok := s.records[barcode]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	out := *record
	return &out, nil
}

func (s *fakeStore) Upsert(ctx context.Context, record *domain.ProductRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.upserts++
	stored := *record
	s.records[record.Barcode] = &stored
	return nil
}

func (s *fakeStore) Close() error { return nil }

// fakeSearcher returns canned results per query and records every call.
type fakeSearcher struct {
	mu      sync.Mutex
	results map[string][]string
	queries []string
}

func (f *fakeSearcher) Search(ctx context.Context, query string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	return f.results[query]
}

func (f *fakeSearcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

// fakeExtractor maps URLs to canned extractions; unknown URLs yield nil.
type fakeExtractor struct {
	mu    sync.Mutex
	pages map[string]*domain.ExtractedFields
	calls int
}

func (f *fakeExtractor) Extract(ctx context.Context, url string) *domain.ExtractedFields {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	fields, ok := f.pages[url]
	if !ok {
		return nil
	}
	out := *fields
	return &out
}

func newService(store *fakeStore, searcher *fakeSearcher, extractor *fakeExtractor) *ResolutionService {
	return NewResolutionService(store, searcher, extractor, ResolutionServiceConfig{})
}

func TestResolve_CacheHitSkipsNetwork(t *testing.T) {
	store := newFakeStore()
	store.records["12345"] = &domain.ProductRecord{Barcode: "12345", Name: "Cached Product"}
	searcher := &fakeSearcher{}
	extractor := &fakeExtractor{}
	s := newService(store, searcher, extractor)

	result, err := s.Resolve(context.Background(), "12345")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if !result.FromCache {
		t.Error("expected FromCache to be true")
	}
	if result.Product == nil || result.Product.Name != "Cached Product" {
		t.Errorf("unexpected product: %+v", result.Product)
	}
	if searcher.callCount() != 0 {
		t.Errorf("search called %d times on a cache hit, want 0", searcher.callCount())
	}
	if extractor.calls != 0 {
		t.Errorf("extractor called %d times on a cache hit, want 0", extractor.calls)
	}
}

func TestResolve_FullScrapeWithSecondarySDSSearch(t *testing.T) {
	store := newFakeStore()
	searcher := &fakeSearcher{results: map[string][]string{
		"barcode 93549004": {"http://a.example/p"},
		"93549004 sds pdf": {"http://a.example/sds.pdf"},
	}}
	extractor := &fakeExtractor{pages: map[string]*domain.ExtractedFields{
		"http://a.example/p": {
			URL: "http://a.example/p", Name: "Sample Chemical", Size: "500ml",
		},
	}}
	s := newService(store, searcher, extractor)

	result, err := s.Resolve(context.Background(), "93549004")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if result.FromCache {
		t.Error("expected a fresh resolution, got FromCache")
	}
	if len(result.Candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(result.Candidates))
	}

	stored := store.records["93549004"]
	if stored == nil {
		t.Fatal("record was not persisted")
	}
	if stored.Name != "Sample Chemical" || stored.Size != "500ml" {
		t.Errorf("stored record = %+v", stored)
	}
	if stored.SDSURL == nil || *stored.SDSURL != "http://a.example/sds.pdf" {
		t.Errorf("stored SDS URL = %v, want the secondary search hit", stored.SDSURL)
	}
}

func TestResolve_SecondarySearchSkippedWhenSDSPresent(t *testing.T) {
	store := newFakeStore()
	searcher := &fakeSearcher{results: map[string][]string{
		"barcode 555": {"http://a.example/p"},
	}}
	extractor := &fakeExtractor{pages: map[string]*domain.ExtractedFields{
		"http://a.example/p": {
			URL: "http://a.example/p", Name: "Thing",
			SDSURL: "http://a.example/docs/sds.pdf",
		},
	}}
	s := newService(store, searcher, extractor)

	if _, err := s.Resolve(context.Background(), "555"); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if searcher.callCount() != 1 {
		t.Errorf("search called %d times, want 1 (no secondary SDS query)", searcher.callCount())
	}
}

func TestResolve_SecondResolveServedFromStore(t *testing.T) {
	store := newFakeStore()
	searcher := &fakeSearcher{results: map[string][]string{
		"barcode 777": {"http://a.example/p"},
		"777 sds pdf": nil,
	}}
	extractor := &fakeExtractor{pages: map[string]*domain.ExtractedFields{
		"http://a.example/p": {URL: "http://a.example/p", Name: "Once Only"},
	}}
	s := newService(store, searcher, extractor)

	first, err := s.Resolve(context.Background(), "777")
	if err != nil {
		t.Fatalf("first Resolve() error = %v", err)
	}
	searchesAfterFirst := searcher.callCount()

	second, err := s.Resolve(context.Background(), "777")
	if err != nil {
		t.Fatalf("second Resolve() error = %v", err)
	}

	if searcher.callCount() != searchesAfterFirst {
		t.Error("second resolution issued another search; barcode must be scraped at most once")
	}
	if !second.FromCache {
		t.Error("second resolution should come from the store")
	}
	if second.Product.Name != first.Product.Name {
		t.Errorf("second result %q differs from first %q", second.Product.Name, first.Product.Name)
	}
}

func TestResolve_ZeroCandidatesIsStillSuccess(t *testing.T) {
	store := newFakeStore()
	searcher := &fakeSearcher{} // every query comes back empty
	extractor := &fakeExtractor{}
	s := newService(store, searcher, extractor)

	result, err := s.Resolve(context.Background(), "000111")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if len(result.Candidates) != 0 {
		t.Errorf("got %d candidates, want 0", len(result.Candidates))
	}
	stored := store.records["000111"]
	if stored == nil {
		t.Fatal("empty resolution must still persist a record")
	}
	if stored.Name != "" || stored.SDSURL != nil {
		t.Errorf("stored record should be all-empty with nil SDS: %+v", stored)
	}
}

func TestResolve_FailedExtractionsAreDropped(t *testing.T) {
	store := newFakeStore()
	searcher := &fakeSearcher{results: map[string][]string{
		"barcode 888": {"http://dead.example/p", "http://a.example/p"},
		"888 sds pdf": nil,
	}}
	extractor := &fakeExtractor{pages: map[string]*domain.ExtractedFields{
		// dead.example is absent: extraction yields nil and is dropped.
		"http://a.example/p": {URL: "http://a.example/p", Name: "Survivor"},
	}}
	s := newService(store, searcher, extractor)

	result, err := s.Resolve(context.Background(), "888")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if len(result.Candidates) != 1 || result.Candidates[0].Name != "Survivor" {
		t.Errorf("candidates = %+v, want only the successful extraction", result.Candidates)
	}
	if store.records["888"].Name != "Survivor" {
		t.Errorf("stored name = %q", store.records["888"].Name)
	}
}

func TestResolve_StorageErrorsAreFatal(t *testing.T) {
	t.Run("lookup failure", func(t *testing.T) {
		store := newFakeStore()
		store.getErr = fmt.Errorf("%w: disk gone", domain.ErrStorageFailure)
		s := newService(store, &fakeSearcher{}, &fakeExtractor{})

		_, err := s.Resolve(context.Background(), "123")
		if !errors.Is(err, domain.ErrStorageFailure) {
			t.Errorf("error = %v, want ErrStorageFailure", err)
		}
	})

	t.Run("persist failure", func(t *testing.T) {
		store := newFakeStore()
		store.upsertErr = fmt.Errorf("%w: disk full", domain.ErrStorageFailure)
		s := newService(store, &fakeSearcher{}, &fakeExtractor{})

		_, err := s.Resolve(context.Background(), "123")
		if !errors.Is(err, domain.ErrStorageFailure) {
			t.Errorf("error = %v, want ErrStorageFailure", err)
		}
	})
}

func TestResolve_EmptyBarcodeRejected(t *testing.T) {
	s := newService(newFakeStore(), &fakeSearcher{}, &fakeExtractor{})

	for _, barcode := range []string{"", "   "} {
		if _, err := s.Resolve(context.Background(), barcode); !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("Resolve(%q) error = %v, want ErrInvalidRequest", barcode, err)
		}
	}
}

func TestExtractAll_PreservesRankOrder(t *testing.T) {
	pages := make(map[string]*domain.ExtractedFields)
	var urls []string
	for i := 0; i < 5; i++ {
		u := fmt.Sprintf("http://r%d.example/p", i)
		urls = append(urls, u)
		pages[u] = &domain.ExtractedFields{URL: u, Name: fmt.Sprintf("Product %d", i)}
	}
	s := newService(newFakeStore(), &fakeSearcher{}, &fakeExtractor{pages: pages})

	candidates := s.extractAll(context.Background(), urls)

	if len(candidates) != 5 {
		t.Fatalf("got %d candidates, want 5", len(candidates))
	}
	for i, c := range candidates {
		if !strings.HasSuffix(c.Name, fmt.Sprint(i)) {
			t.Errorf("candidate %d is %q; rank order not preserved", i, c.Name)
		}
	}
}

func TestPickTopCandidate(t *testing.T) {
	testCases := []struct {
		name       string
		candidates []domain.ExtractedFields
		wantName   string
		wantURL    string
	}{
		{
			name: "first with non-empty name wins",
			candidates: []domain.ExtractedFields{
				{URL: "u1", Size: "1l"},
				{URL: "u2", Name: "Named"},
				{URL: "u3", Name: "Also Named"},
			},
			wantName: "Named",
			wantURL:  "u2",
		},
		{
			name: "first extraction when none has a name",
			candidates: []domain.ExtractedFields{
				{URL: "u1", Size: "1l"},
				{URL: "u2", Size: "2l"},
			},
			wantName: "",
			wantURL:  "u1",
		},
		{
			name:       "all-empty record when nothing extracted",
			candidates: nil,
			wantName:   "",
			wantURL:    "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			top := pickTopCandidate(tc.candidates)
			if top.Name != tc.wantName || top.URL != tc.wantURL {
				t.Errorf("got {name:%q url:%q}, want {name:%q url:%q}",
					top.Name, top.URL, tc.wantName, tc.wantURL)
			}
		})
	}
}

func TestConfirm_OverwritesNameAndSizeOnly(t *testing.T) {
	store := newFakeStore()
	sds := "http://a.example/sds.pdf"
	store.records["999"] = &domain.ProductRecord{
		Barcode: "999", Name: "Scraped", Manufacturer: "Acme", Size: "1l", SDSURL: &sds,
	}
	s := newService(store, &fakeSearcher{}, &fakeExtractor{})

	record, err := s.Confirm(context.Background(), "999", "Confirmed", "750ml")
	if err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}

	if record.Name != "Confirmed" || record.Size != "750ml" {
		t.Errorf("record = %+v", record)
	}
	if record.Manufacturer != "Acme" {
		t.Errorf("manufacturer lost on confirm: %+v", record)
	}
	if record.SDSURL == nil || *record.SDSURL != sds {
		t.Errorf("SDS link lost on confirm: %+v", record)
	}
}

func TestConfirm_CreatesRecordWhenMissing(t *testing.T) {
	store := newFakeStore()
	s := newService(store, &fakeSearcher{}, &fakeExtractor{})

	record, err := s.Confirm(context.Background(), "NEW", "Manual Entry", "2.5 kg")
	if err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	if record.Name != "Manual Entry" || record.Size != "2.5 kg" {
		t.Errorf("record = %+v", record)
	}
	if store.records["NEW"] == nil {
		t.Error("confirmed record was not persisted")
	}
}

func TestConfirm_EmptyBarcodeRejected(t *testing.T) {
	s := newService(newFakeStore(), &fakeSearcher{}, &fakeExtractor{})

	if _, err := s.Confirm(context.Background(), "", "n", "s"); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("error = %v, want ErrInvalidRequest", err)
	}
}
