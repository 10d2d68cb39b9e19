package http

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sdslens/backend/internal/domain"
)

// ResolutionUsecase is the slice of the resolution service the handlers
// need.
type ResolutionUsecase interface {
	Resolve(ctx context.Context, barcode string) (*domain.ResolveResult, error)
	Confirm(ctx context.Context, barcode, name, size string) (*domain.ProductRecord, error)
}

// OCRUsecase is the slice of the OCR pipeline the handlers need.
type OCRUsecase interface {
	Process(ctx context.Context, photo []byte, crop *domain.CropRectangle) (*domain.OCRFields, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	resolution ResolutionUsecase
	ocr        OCRUsecase
}

// NewHandler creates a new HTTP handler
func NewHandler(resolution ResolutionUsecase, ocr OCRUsecase) *Handler {
	return &Handler{resolution: resolution, ocr: ocr}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "sdslens-backend",
		"version": "1.0.0",
	})
}

type resolveRequest struct {
	Barcode string `json:"barcode"`
}

// ResolveProduct handles barcode resolution requests. A resolution with
// zero scraped candidates is still a success with an empty candidate list;
// only storage failures turn into error responses.
func (h *Handler) ResolveProduct(c *gin.Context) {
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Barcode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "barcode is required"})
		return
	}

	result, err := h.resolution.Resolve(c.Request.Context(), req.Barcode)
	if err != nil {
		status, msg := classifyError(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	if result.Candidates == nil {
		result.Candidates = []domain.ExtractedFields{}
	}
	c.JSON(http.StatusOK, result)
}

type confirmRequest struct {
	Barcode string `json:"barcode"`
	Name    string `json:"name"`
	Size    string `json:"size"`
}

// ConfirmProduct stores user-confirmed name and size for a barcode. This is
// the only endpoint that overwrites previously scraped values.
func (h *Handler) ConfirmProduct(c *gin.Context) {
	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Barcode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "barcode is required"})
		return
	}

	record, err := h.resolution.Confirm(c.Request.Context(), req.Barcode, req.Name, req.Size)
	if err != nil {
		status, msg := classifyError(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, record)
}

type ocrRequest struct {
	ImageBase64 string                `json:"imageBase64"`
	CropInfo    *domain.CropRectangle `json:"cropInfo"`
}

// RunOCR accepts a base64 photo plus optional crop metadata and returns the
// best-guess name/size read off the label.
func (h *Handler) RunOCR(c *gin.Context) {
	var req ocrRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ImageBase64 == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no image provided"})
		return
	}

	photo, err := base64.StdEncoding.DecodeString(req.ImageBase64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid base64 image data"})
		return
	}

	fields, err := h.ocr.Process(c.Request.Context(), photo, req.CropInfo)
	if err != nil {
		status, msg := classifyError(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, fields)
}

// classifyError maps domain errors onto HTTP statuses. Storage failures are
// the only 5xx from the resolution path; everything transient was already
// degraded away below this layer.
func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrMissingImage):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrPreprocessing):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, domain.ErrStorageFailure):
		return http.StatusInternalServerError, err.Error()
	case errors.Is(err, domain.ErrOCRFailure):
		return http.StatusInternalServerError, err.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}
