package domain

// OCRLine is a single recognized text line with the height of its bounding
// box in pixels. Height drives the "tallest text is the product name"
// heuristic.
type OCRLine struct {
	Text   string  `json:"text"`
	Height float64 `json:"height"`
}

// OCRResult is the raw output of the OCR engine for one image.
type OCRResult struct {
	Lines []OCRLine `json:"lines"`
	Text  string    `json:"text"`
}

// OCRFields is the post-processed best guess extracted from an OCRResult.
// Absent values are empty strings, never null.
type OCRFields struct {
	BestName string `json:"bestName"`
	BestSize string `json:"bestSize"`
	RawText  string `json:"rawText"`
}
