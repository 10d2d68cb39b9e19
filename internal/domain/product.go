package domain

// ProductRecord is the persisted result of a barcode resolution.
// One record exists per barcode; the barcode string is used verbatim
// as the lookup key.
type ProductRecord struct {
	Barcode      string  `json:"barcode"`
	Name         string  `json:"name"`
	Manufacturer string  `json:"manufacturer"`
	Size         string  `json:"size"`
	SDSURL       *string `json:"sdsUrl"` // nil when no SDS link has been found
}

// ExtractedFields holds the best-effort fields scraped from one candidate
// URL. All fields may be empty; none are ever invented.
type ExtractedFields struct {
	URL          string `json:"url"`
	Name         string `json:"name"`
	Manufacturer string `json:"manufacturer"`
	Size         string `json:"size"`
	SDSURL       string `json:"sdsUrl"`
}

// ResolveResult is the response of a barcode resolution request.
// Product is the stored record (cache hit) or the freshly persisted one;
// Candidates lists every successful extraction from this call, in search
// rank order, and is empty on a cache hit.
type ResolveResult struct {
	Barcode    string            `json:"barcode"`
	Product    *ProductRecord    `json:"product"`
	Candidates []ExtractedFields `json:"candidates"`
	FromCache  bool              `json:"fromCache"`
}
