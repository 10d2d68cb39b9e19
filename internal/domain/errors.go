package domain

import "errors"

var (
	// ErrProductNotFound is returned when no record exists for a barcode
	ErrProductNotFound = errors.New("product not found")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrStorageFailure is returned when the product store fails; fatal to
	// the request that hit it
	ErrStorageFailure = errors.New("product store failure")

	// ErrSearchFailure is returned when a search tier fails; recovered by
	// falling back to the next tier
	ErrSearchFailure = errors.New("search request failed")

	// ErrMissingImage is returned when an OCR request carries no image
	ErrMissingImage = errors.New("no image provided")

	// ErrPreprocessing is returned when image decoding or the
	// normalization chain fails
	ErrPreprocessing = errors.New("image preprocessing failed")

	// ErrOCRFailure is returned when the OCR engine fails on a prepared image
	ErrOCRFailure = errors.New("ocr recognition failed")
)
