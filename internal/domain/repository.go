package domain

import "context"

// ProductRepository defines the interface for the durable product store.
// Upsert must be idempotent: writing the same record twice leaves one row.
type ProductRepository interface {
	GetByBarcode(ctx context.Context, barcode string) (*ProductRecord, error)
	Upsert(ctx context.Context, record *ProductRecord) error
	Close() error
}

// SearchProvider defines the interface for web search. Implementations
// return up to five absolute HTTP(S) result URLs in source relevance order
// and never return an error: a failed search is an empty slice.
type SearchProvider interface {
	Search(ctx context.Context, query string) []string
}

// FieldExtractor defines the interface for scraping structured fields from
// a candidate URL. A nil result (with nil error) means the page could not
// be fetched or parsed; callers drop it without failing the batch.
type FieldExtractor interface {
	Extract(ctx context.Context, url string) *ExtractedFields
}

// OCREngine defines the interface for the text-recognition collaborator.
// It accepts an encoded image and returns text lines with bounding-box
// heights plus the concatenated raw text.
type OCREngine interface {
	Recognize(ctx context.Context, image []byte) (*OCRResult, error)
}
