package models

import (
	"fmt"
	"github.com/myrjola/casefile/internal/errors"
)

// Failure kinds reported by the case workflow. Wrap them with errors.Wrap to attach context and detect them with
// errors.Is at the boundary.
var (
	// ErrNotFound means a case, step or alert identifier did not resolve.
	ErrNotFound = errors.NewSentinel("not found")
	// ErrValidation means the caller supplied a bad enum value or left a required field empty.
	ErrValidation = errors.NewSentinel("validation failed")
	// ErrUpstreamParse means the reasoning service answered without a recoverable structured payload.
	ErrUpstreamParse = errors.NewSentinel("upstream response not parseable")
	// ErrUpstreamCall means the reasoning service or a text extractor failed.
	ErrUpstreamCall = errors.NewSentinel("upstream call failed")
	// ErrStoreIO means the case store could not be read or written.
	ErrStoreIO = errors.NewSentinel("case store failure")
	// ErrConflict means a concurrent writer updated the case first.
	ErrConflict = errors.NewSentinel("concurrent modification")
)

// Classify tags err with a failure kind. The result matches kind with errors.Is and keeps the message of err.
func Classify(kind, err error) error {
	return fmt.Errorf("%w: %w", kind, err)
}

// ErrorKind returns the short machine-readable name of the failure kind err belongs to, "internal" when it matches
// none of them.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrUpstreamParse):
		return "upstream_parse"
	case errors.Is(err, ErrUpstreamCall):
		return "upstream_call"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrStoreIO):
		return "store_io"
	default:
		return "internal"
	}
}
