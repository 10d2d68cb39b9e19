package ocrengine

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/sdslens/backend/internal/domain"
)

// TesseractEngine implements domain.OCREngine using the gosseract client.
// A fresh client is created per call; the engine itself is stateless and
// safe for concurrent use.
type TesseractEngine struct {
	language      string
	clientFactory func() *gosseract.Client
}

// NewTesseractEngine constructs a Tesseract-backed OCR engine. language is
// a Tesseract language code ("eng" when empty).
func NewTesseractEngine(language string) *TesseractEngine {
	if language == "" {
		language = "eng"
	}
	return &TesseractEngine{
		language:      language,
		clientFactory: gosseract.NewClient,
	}
}

// Recognize runs OCR over an encoded image and returns the recognized text
// lines with their bounding-box heights plus the concatenated raw text.
func (e *TesseractEngine) Recognize(ctx context.Context, image []byte) (*domain.OCRResult, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	client := e.clientFactory()
	defer client.Close()

	if err := client.SetImageFromBytes(image); err != nil {
		return nil, fmt.Errorf("%w: set image: %v", domain.ErrOCRFailure, err)
	}
	if err := client.SetLanguage(e.language); err != nil {
		return nil, fmt.Errorf("%w: set language: %v", domain.ErrOCRFailure, err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrOCRFailure, err)
	}
	text = strings.TrimSpace(text)

	result := &domain.OCRResult{Text: text}

	// Line geometry is best-effort: without it the caller falls back to
	// raw-text parsing.
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err == nil {
		for _, box := range boxes {
			line := strings.TrimSpace(box.Word)
			if line == "" {
				continue
			}
			result.Lines = append(result.Lines, domain.OCRLine{
				Text:   line,
				Height: float64(box.Box.Dy()),
			})
		}
	}

	return result, nil
}
