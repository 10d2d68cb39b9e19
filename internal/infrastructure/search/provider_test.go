package search

import (
	"context"
	"errors"
	"testing"
)

// stubTier records invocations and plays back a canned response.
type stubTier struct {
	name  string
	links []string
	err   error
	calls int
}

func (s *stubTier) Name() string { return s.name }

func (s *stubTier) Search(ctx context.Context, query string) ([]string, error) {
	s.calls++
	return s.links, s.err
}

func TestProvider_FirstTierWins(t *testing.T) {
	tier1 := &stubTier{name: "browser", links: []string{"https://a.example/p"}}
	tier2 := &stubTier{name: "direct", links: []string{"https://b.example/p"}}
	p := NewProvider(tier1, tier2)

	got := p.Search(context.Background(), "barcode 123")

	if len(got) != 1 || got[0] != "https://a.example/p" {
		t.Errorf("got %v, want the browser tier result", got)
	}
	if tier2.calls != 0 {
		t.Errorf("fallback tier called %d times, want 0", tier2.calls)
	}
}

func TestProvider_FallsBackOnError(t *testing.T) {
	tier1 := &stubTier{name: "browser", err: errors.New("browser crashed")}
	tier2 := &stubTier{name: "direct", links: []string{"https://b.example/p"}}
	p := NewProvider(tier1, tier2)

	got := p.Search(context.Background(), "barcode 123")

	if len(got) != 1 || got[0] != "https://b.example/p" {
		t.Errorf("got %v, want the direct tier result", got)
	}
	if tier1.calls != 1 || tier2.calls != 1 {
		t.Errorf("calls = (%d, %d), want each tier tried exactly once", tier1.calls, tier2.calls)
	}
}

func TestProvider_FallsBackOnEmptyResult(t *testing.T) {
	tier1 := &stubTier{name: "browser"}
	tier2 := &stubTier{name: "direct", links: []string{"https://b.example/p"}}
	p := NewProvider(tier1, tier2)

	got := p.Search(context.Background(), "barcode 123")

	if len(got) != 1 || got[0] != "https://b.example/p" {
		t.Errorf("got %v, want the direct tier result", got)
	}
}

func TestProvider_AllTiersFailReturnsEmpty(t *testing.T) {
	tier1 := &stubTier{name: "browser", err: errors.New("boom")}
	tier2 := &stubTier{name: "direct", err: errors.New("blocked")}
	p := NewProvider(tier1, tier2)

	got := p.Search(context.Background(), "barcode 123")

	if len(got) != 0 {
		t.Errorf("got %v, want empty result without error", got)
	}
	if tier2.calls != 1 {
		t.Errorf("fallback tier called %d times, want exactly 1", tier2.calls)
	}
}

func TestProvider_SkipsNilTiers(t *testing.T) {
	tier := &stubTier{name: "direct", links: []string{"https://b.example/p"}}
	p := NewProvider(nil, tier)

	got := p.Search(context.Background(), "q")

	if len(got) != 1 {
		t.Errorf("got %v, want the non-nil tier result", got)
	}
}
