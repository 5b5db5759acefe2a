package document

import "errors"

// Domain errors - defined once, used everywhere
var (
	// Document validation errors
	ErrInvalidDocumentID = errors.New("invalid document ID")
	ErrInvalidName       = errors.New("invalid document name")
	ErrNilData           = errors.New("document data cannot be nil")
	ErrDocumentNotFound  = errors.New("document not found")

	// Filter validation errors
	ErrInvalidLimit     = errors.New("limit cannot be negative")
	ErrInvalidOffset    = errors.New("offset cannot be negative")
	ErrInvalidTimeRange = errors.New("invalid time range: since is after before")
)
