package usecase

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/sdslens/backend/internal/domain"
	"github.com/sdslens/backend/internal/imaging"
)

// ocrSizeRegex matches quantity declarations in recognized label text,
// the same pattern the web scraper applies to page text.
var ocrSizeRegex = regexp.MustCompile(`(?i)\d+(\.\d+)?\s?(ml|g|kg|oz|l)`)

// OCRServiceConfig holds configuration for the OCR pipeline
type OCRServiceConfig struct {
	PaddingRatio float64
	MaxWidth     int
}

// OCRService turns a captured label photo into a best-guess name/size
// pair: crop (when the UI supplied a rectangle), normalize, recognize,
// then parse the recognized lines.
type OCRService struct {
	engine       domain.OCREngine
	paddingRatio float64
	maxWidth     int
}

// NewOCRService creates an OCR service around a recognition engine
func NewOCRService(engine domain.OCREngine, config OCRServiceConfig) *OCRService {
	maxWidth := config.MaxWidth
	if maxWidth <= 0 {
		maxWidth = imaging.DefaultMaxWidth
	}
	return &OCRService{
		engine:       engine,
		paddingRatio: config.PaddingRatio,
		maxWidth:     maxWidth,
	}
}

// Process runs the full pipeline over a raw photo. crop may be nil, in
// which case the whole image is read.
func (s *OCRService) Process(ctx context.Context, photo []byte, crop *domain.CropRectangle) (*domain.OCRFields, error) {
	if len(photo) == 0 {
		return nil, domain.ErrMissingImage
	}

	prepared, err := imaging.Prepare(photo, crop, s.paddingRatio, s.maxWidth)
	if err != nil {
		return nil, err
	}

	result, err := s.engine.Recognize(ctx, prepared)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrOCRFailure, err)
	}

	fields := ParseBestFields(result)
	log.Printf("[OCR] recognized %d line(s), bestName=%q bestSize=%q",
		len(result.Lines), fields.BestName, fields.BestSize)
	return &fields, nil
}

// ParseBestFields post-processes OCR output into a best-guess name/size
// pair. The name is the text of the tallest line longer than two
// characters - the most prominent text on a label is almost always the
// brand or product name. The size is the first quantity-pattern match
// scanning lines in order. Both fall back to the raw concatenated text and
// come back as empty strings when nothing qualifies, never as null.
func ParseBestFields(result *domain.OCRResult) domain.OCRFields {
	fields := domain.OCRFields{RawText: result.Text}

	var tallest float64
	for _, line := range result.Lines {
		text := strings.TrimSpace(line.Text)
		if len(text) <= 2 {
			continue
		}
		if line.Height > tallest {
			tallest = line.Height
			fields.BestName = text
		}
	}
	if fields.BestName == "" {
		for _, line := range strings.Split(result.Text, "\n") {
			if text := strings.TrimSpace(line); len(text) > 2 {
				fields.BestName = text
				break
			}
		}
	}

	for _, line := range result.Lines {
		if m := ocrSizeRegex.FindString(line.Text); m != "" {
			fields.BestSize = m
			break
		}
	}
	if fields.BestSize == "" {
		fields.BestSize = ocrSizeRegex.FindString(result.Text)
	}

	return fields
}
