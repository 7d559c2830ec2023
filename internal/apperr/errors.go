// Package apperr defines sentinel errors shared across packages.
package apperr

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrInvalidSchema     = errors.New("invalid schema")
	ErrInvalidDocument   = errors.New("invalid document")
	ErrValidationFailed  = errors.New("validation failed")
)
