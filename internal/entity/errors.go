package entity

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	// Tenant lifecycle errors
	ErrTenantState    = errors.New("operation not valid in current tenant state")
	ErrTenantTornDown = errors.New("tenant namespace is torn down")
	ErrProvision      = errors.New("namespace provisioning failed")

	// Chunking errors
	ErrEmptyDocument = errors.New("document produced no chunks")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")

	// Validation errors
	ErrMissingField     = errors.New("required field is missing")
	ErrInvalidParameter = errors.New("invalid parameter")
)

// ExtractionError marks a source file that could not be read or parsed.
// Batch callers skip the file and continue; it is never fatal to a run.
type ExtractionError struct {
	SourceRef string
	Err       error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.SourceRef, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}
